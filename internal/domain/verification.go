package domain

import "time"

// Verification records a citizen's independent confirmation that a
// resolved issue is actually fixed. Unique per (user, issue); only
// created while the issue is RESOLVED.
type Verification struct {
	ID        string
	IssueID   string
	UserID    string
	CreatedAt time.Time
}
