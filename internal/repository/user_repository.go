package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/civicchain/civic-service/internal/domain"
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetWalletRef(ctx context.Context, id, walletRef string) error
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, reputation, badges)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Reputation,
		nonNilBadges(user.Badges),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// nonNilBadges keeps the badges bind an empty array rather than NULL; a
// nil []string encodes as SQL NULL and the column is NOT NULL.
func nonNilBadges(badges []string) []string {
	if badges == nil {
		return []string{}
	}
	return badges
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET reputation=$1, issues_reported=$2, issues_resolved=$3,
            total_upvotes=$4, verifications_done=$5, badges=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.db.Exec(ctx, query,
		user.Reputation,
		user.IssuesReported,
		user.IssuesResolved,
		user.TotalUpvotes,
		user.VerificationsDone,
		nonNilBadges(user.Badges),
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = userSelect + ` WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = userSelect + ` WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) SetWalletRef(ctx context.Context, id, walletRef string) error {
	const query = `UPDATE users SET wallet_ref=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, walletRef, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const userSelect = `
        SELECT id, name, email, password_hash, role, reputation, issues_reported,
               issues_resolved, total_upvotes, verifications_done, badges,
               wallet_ref, created_at, updated_at
        FROM users`

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Reputation,
		&user.IssuesReported,
		&user.IssuesResolved,
		&user.TotalUpvotes,
		&user.VerificationsDone,
		&user.Badges,
		&user.WalletRef,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
