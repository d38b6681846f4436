package domain

import "time"

// UserRole separates citizens from government authority accounts.
type UserRole string

const (
	RoleCitizen    UserRole = "CITIZEN"
	RoleGovernment UserRole = "GOVERNMENT"
)

// Valid reports whether the role is a known member.
func (r UserRole) Valid() bool {
	return r == RoleCitizen || r == RoleGovernment
}

// DefaultReputation is assigned to every newly created user.
const DefaultReputation = 100

// User is the domain model for citizens and government accounts.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Role              UserRole
	Reputation        int
	IssuesReported    int
	IssuesResolved    int
	TotalUpvotes      int
	VerificationsDone int
	Badges            []string
	WalletRef         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasBadge reports whether the user already holds the named badge.
func (u *User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// StatSnapshot captures the counters badge eligibility is evaluated from.
type StatSnapshot struct {
	Reputation        int
	IssuesReported    int
	IssuesResolved    int
	VerificationsDone int
}

// Stats returns the user's current stat snapshot.
func (u *User) Stats() StatSnapshot {
	return StatSnapshot{
		Reputation:        u.Reputation,
		IssuesReported:    u.IssuesReported,
		IssuesResolved:    u.IssuesResolved,
		VerificationsDone: u.VerificationsDone,
	}
}
