package repository

import (
	"context"

	"github.com/civicchain/civic-service/internal/domain"
)

// VoteRepository encapsulates vote persistence. Votes are created once and
// never mutated or deleted.
type VoteRepository interface {
	Create(ctx context.Context, vote *domain.Vote) error
	ExistsByUserAndIssue(ctx context.Context, userID, issueID string) (bool, error)
	ListByIssue(ctx context.Context, issueID string) ([]domain.Vote, error)
	SumUpvoterReputation(ctx context.Context, issueID string) (int, error)
}

type voteRepository struct {
	db DB
}

// NewVoteRepository instantiates repository.
func NewVoteRepository(db DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	const query = `
        INSERT INTO votes (issue_id, user_id, vote_type)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		vote.IssueID,
		vote.UserID,
		vote.Type,
	).Scan(&vote.ID, &vote.CreatedAt)
}

func (r *voteRepository) ExistsByUserAndIssue(ctx context.Context, userID, issueID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM votes WHERE user_id=$1 AND issue_id=$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, issueID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *voteRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.Vote, error) {
	const query = `
        SELECT id, issue_id, user_id, vote_type, created_at
        FROM votes WHERE issue_id=$1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vote
	for rows.Next() {
		var vote domain.Vote
		if err := rows.Scan(&vote.ID, &vote.IssueID, &vote.UserID, &vote.Type, &vote.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, vote)
	}
	return result, rows.Err()
}

// SumUpvoterReputation totals the current reputation of every user who
// upvoted the issue, a scoring engine input.
func (r *voteRepository) SumUpvoterReputation(ctx context.Context, issueID string) (int, error) {
	const query = `
        SELECT COALESCE(SUM(u.reputation), 0)
        FROM votes v
        JOIN users u ON u.id = v.user_id
        WHERE v.issue_id=$1 AND v.vote_type=$2`
	var sum int
	if err := r.db.QueryRow(ctx, query, issueID, domain.VoteUp).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}
