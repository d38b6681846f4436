package dto

import (
	"time"

	"github.com/civicchain/civic-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	ImageURL    string  `json:"image_url"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Region      *string `json:"region"`
}

// UpdateStatusRequest payload for the authority endpoint.
type UpdateStatusRequest struct {
	Status   string  `json:"status"`
	ProofURL *string `json:"proof_url"`
}

// IssueSummary response.
type IssueSummary struct {
	ID            string               `json:"id"`
	ReporterID    string               `json:"reporter_id"`
	Category      domain.IssueCategory `json:"category"`
	Latitude      float64              `json:"latitude"`
	Longitude     float64              `json:"longitude"`
	Region        *string              `json:"region"`
	Status        domain.IssueStatus   `json:"status"`
	PriorityScore float64              `json:"priority_score"`
	Upvotes       int                  `json:"upvotes"`
	Downvotes     int                  `json:"downvotes"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// IssueDetailResponse provides full issue info.
type IssueDetailResponse struct {
	IssueSummary
	ImageURL          string  `json:"image_url"`
	Description       string  `json:"description"`
	LedgerRef         *string `json:"ledger_ref"`
	ProofURL          *string `json:"proof_url"`
	VerificationCount int     `json:"verification_count"`
}

// LeaderboardEntry is one priority-ranked issue.
type LeaderboardEntry struct {
	IssueID string  `json:"issue_id"`
	Score   float64 `json:"score"`
}
