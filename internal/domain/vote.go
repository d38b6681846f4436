package domain

import "time"

// VoteType enumerates the two vote directions.
type VoteType string

const (
	VoteUp   VoteType = "UPVOTE"
	VoteDown VoteType = "DOWNVOTE"
)

// Valid reports whether the vote type is a known member.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote records a single user's vote on a single issue. A (user, issue)
// pair may hold at most one vote, of either type, ever; votes are never
// mutated or deleted.
type Vote struct {
	ID        string
	IssueID   string
	UserID    string
	Type      VoteType
	CreatedAt time.Time
}
