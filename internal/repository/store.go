package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the querier surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository method works both inside and outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store hands out repositories and transactional handles. Workflows open
// exactly one Tx per invocation and never hold it across asynchronous
// work.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Users() UserRepository
	Issues() IssueRepository
	Votes() VoteRepository
	Verifications() VerificationRepository
}

// Tx scopes every repository to a single database transaction.
type Tx interface {
	Users() UserRepository
	Issues() IssueRepository
	Votes() VoteRepository
	Verifications() VerificationRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type store struct {
	pool          *pgxpool.Pool
	users         UserRepository
	issues        IssueRepository
	votes         VoteRepository
	verifications VerificationRepository
}

// NewStore returns a Postgres-backed store over the given pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &store{
		pool:          pool,
		users:         NewUserRepository(pool),
		issues:        NewIssueRepository(pool),
		votes:         NewVoteRepository(pool),
		verifications: NewVerificationRepository(pool),
	}
}

func (s *store) Begin(ctx context.Context) (Tx, error) {
	pgxTx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &storeTx{tx: pgxTx}, nil
}

func (s *store) Users() UserRepository                 { return s.users }
func (s *store) Issues() IssueRepository               { return s.issues }
func (s *store) Votes() VoteRepository                 { return s.votes }
func (s *store) Verifications() VerificationRepository { return s.verifications }

type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) Users() UserRepository                 { return NewUserRepository(t.tx) }
func (t *storeTx) Issues() IssueRepository               { return NewIssueRepository(t.tx) }
func (t *storeTx) Votes() VoteRepository                 { return NewVoteRepository(t.tx) }
func (t *storeTx) Verifications() VerificationRepository { return NewVerificationRepository(t.tx) }

func (t *storeTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *storeTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The unique indexes on (issue_id, user_id) are the sole
// mechanism preventing duplicate votes and verifications under races.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
