package events

import (
	"time"

	"github.com/civicchain/civic-service/internal/domain"
)

// EventType enumerates supported event identifiers. Each maps onto one
// notification kind accepted by the external ledger mirror.
type EventType string

const (
	EventUserCreated       EventType = "user_created"
	EventIssueCreated      EventType = "issue_created"
	EventVoteCast          EventType = "vote_cast"
	EventReputationChanged EventType = "reputation_changed"
	EventStatusChanged     EventType = "status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Role       domain.UserRole `json:"role"`
	Reputation int             `json:"reputation"`
	WalletRef  *string         `json:"wallet_ref,omitempty"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category      domain.IssueCategory `json:"category"`
	Region        *string              `json:"region,omitempty"`
	PriorityScore float64              `json:"priority_score"`
}

// VoteCastPayload payload.
type VoteCastPayload struct {
	VoteType  domain.VoteType `json:"vote_type"`
	Upvotes   int             `json:"upvotes"`
	Downvotes int             `json:"downvotes"`
}

// ReputationChangedPayload payload.
type ReputationChangedPayload struct {
	OldReputation int `json:"old_reputation"`
	NewReputation int `json:"new_reputation"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	AutoClose bool               `json:"auto_close,omitempty"`
}
