package repository

import (
	"context"

	"github.com/civicchain/civic-service/internal/domain"
)

// VerificationRepository encapsulates verification persistence.
type VerificationRepository interface {
	Create(ctx context.Context, verification *domain.Verification) error
	ExistsByUserAndIssue(ctx context.Context, userID, issueID string) (bool, error)
	CountByIssue(ctx context.Context, issueID string) (int, error)
}

type verificationRepository struct {
	db DB
}

// NewVerificationRepository instantiates repository.
func NewVerificationRepository(db DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(ctx context.Context, verification *domain.Verification) error {
	const query = `
        INSERT INTO verifications (issue_id, user_id)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		verification.IssueID,
		verification.UserID,
	).Scan(&verification.ID, &verification.CreatedAt)
}

func (r *verificationRepository) ExistsByUserAndIssue(ctx context.Context, userID, issueID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM verifications WHERE user_id=$1 AND issue_id=$2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, issueID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *verificationRepository) CountByIssue(ctx context.Context, issueID string) (int, error) {
	const query = `SELECT COUNT(*) FROM verifications WHERE issue_id=$1`
	var count int
	if err := r.db.QueryRow(ctx, query, issueID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
