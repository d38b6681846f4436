package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "OPEN"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
)

// Valid reports whether the status is a known member.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// IssueCategory classifies the kind of civic problem reported.
type IssueCategory string

const (
	CategoryPothole     IssueCategory = "POTHOLE"
	CategoryGarbage     IssueCategory = "GARBAGE"
	CategoryStreetlight IssueCategory = "STREETLIGHT"
	CategoryWater       IssueCategory = "WATER"
	CategoryOther       IssueCategory = "OTHER"
)

// Valid reports whether the category is a known member.
func (c IssueCategory) Valid() bool {
	switch c {
	case CategoryPothole, CategoryGarbage, CategoryStreetlight, CategoryWater, CategoryOther:
		return true
	}
	return false
}

// Issue is the aggregate for a reported civic problem.
type Issue struct {
	ID            string
	ReporterID    string
	ImageURL      string
	Description   string
	Category      IssueCategory
	Latitude      float64
	Longitude     float64
	Region        *string
	Status        IssueStatus
	PriorityScore float64
	Upvotes       int
	Downvotes     int
	LedgerRef     *string
	ProofURL      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
