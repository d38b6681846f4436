package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/civicchain/civic-service/internal/domain"
)

// IssueFilter captures listing parameters.
type IssueFilter struct {
	ReporterID  *string
	Region      *string
	Statuses    []domain.IssueStatus
	Categories  []domain.IssueCategory
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, proofURL *string) error
	UpdateScore(ctx context.Context, id string, score float64) error
	SetLedgerRef(ctx context.Context, id, ledgerRef string) error
	IncrementVotes(ctx context.Context, id string, voteType domain.VoteType) error
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	CountNearby(ctx context.Context, lat, lng float64, radiusMeters float64, since time.Time, excludeID *string) (int, error)
}

type issueRepository struct {
	db DB
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(db DB) IssueRepository {
	return &issueRepository{db: db}
}

const issueColumns = `id, reporter_id, image_url, description, category, latitude, longitude,
               region, status, priority_score, upvotes, downvotes, ledger_ref, proof_url,
               created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (reporter_id, image_url, description, category, latitude, longitude, region, status, priority_score)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		issue.ReporterID,
		issue.ImageURL,
		issue.Description,
		issue.Category,
		issue.Latitude,
		issue.Longitude,
		issue.Region,
		issue.Status,
		issue.PriorityScore,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	var issue domain.Issue
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&issue.ID,
		&issue.ReporterID,
		&issue.ImageURL,
		&issue.Description,
		&issue.Category,
		&issue.Latitude,
		&issue.Longitude,
		&issue.Region,
		&issue.Status,
		&issue.PriorityScore,
		&issue.Upvotes,
		&issue.Downvotes,
		&issue.LedgerRef,
		&issue.ProofURL,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, proofURL *string) error {
	const query = `
        UPDATE issues SET status=$1, proof_url=COALESCE($2, proof_url), updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, status, proofURL, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) UpdateScore(ctx context.Context, id string, score float64) error {
	const query = `UPDATE issues SET priority_score=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, score, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) SetLedgerRef(ctx context.Context, id, ledgerRef string) error {
	const query = `UPDATE issues SET ledger_ref=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, ledgerRef, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) IncrementVotes(ctx context.Context, id string, voteType domain.VoteType) error {
	column := "upvotes"
	if voteType == domain.VoteDown {
		column = "downvotes"
	}
	query := fmt.Sprintf(`UPDATE issues SET %s=%s+1, updated_at=NOW() WHERE id=$1`, column, column)
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := `SELECT ` + issueColumns + ` FROM issues`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.Region != nil {
		args = append(args, *filter.Region)
		clauses = append(clauses, fmt.Sprintf("region=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY priority_score DESC, created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// CountNearby counts other issues within radiusMeters of the point created
// since the given time, using a haversine great-circle distance. excludeID
// is nil at creation time when the issue row does not exist yet.
func (r *issueRepository) CountNearby(ctx context.Context, lat, lng float64, radiusMeters float64, since time.Time, excludeID *string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM issues
        WHERE ($1::uuid IS NULL OR id <> $1::uuid)
          AND created_at >= $2
          AND 2 * 6371000 * asin(sqrt(
                power(sin(radians(latitude - $3) / 2), 2) +
                cos(radians($3)) * cos(radians(latitude)) *
                power(sin(radians(longitude - $4) / 2), 2)
              )) <= $5`
	var count int
	if err := r.db.QueryRow(ctx, query, excludeID, since, lat, lng, radiusMeters).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.ReporterID,
			&issue.ImageURL,
			&issue.Description,
			&issue.Category,
			&issue.Latitude,
			&issue.Longitude,
			&issue.Region,
			&issue.Status,
			&issue.PriorityScore,
			&issue.Upvotes,
			&issue.Downvotes,
			&issue.LedgerRef,
			&issue.ProofURL,
			&issue.CreatedAt,
			&issue.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
