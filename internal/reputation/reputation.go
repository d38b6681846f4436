// Package reputation computes reputation adjustments and badge eligibility
// from user stat snapshots. Both computations are pure; workflows persist
// the results.
package reputation

import "github.com/civicchain/civic-service/internal/domain"

// MinReputation floors every reputation adjustment.
const MinReputation = 0

// Deltas carries the configured reputation adjustments per community action.
type Deltas struct {
	UpvoteReceived        int
	DownvoteReceived      int
	IssueVerifiedResolved int
	VerificationPerformed int
	MarkedSpam            int
}

// DefaultDeltas mirrors the shipped configuration defaults.
func DefaultDeltas() Deltas {
	return Deltas{
		UpvoteReceived:        5,
		DownvoteReceived:      -3,
		IssueVerifiedResolved: 10,
		VerificationPerformed: 5,
		MarkedSpam:            -20,
	}
}

// Apply adds delta to the current reputation, never dropping below
// MinReputation.
func Apply(current, delta int) int {
	next := current + delta
	if next < MinReputation {
		return MinReputation
	}
	return next
}

// Badge names awarded by the engine.
const (
	BadgeFirstReporter = "First Reporter"
	BadgeTopReporter   = "Top Reporter"
	BadgeCivicHero     = "Civic Hero"
	BadgeVerifier      = "Verifier"
	BadgeTrustedVoice  = "Trusted Voice"
)

// EligibleBadges returns every badge the snapshot currently qualifies for.
// Badge grants are insert-only set unions: a user keeps a badge even if
// the qualifying stat later regresses, so callers only ever add the
// returned names to the user's set.
func EligibleBadges(stats domain.StatSnapshot) []string {
	var badges []string
	if stats.IssuesReported >= 1 {
		badges = append(badges, BadgeFirstReporter)
	}
	if stats.IssuesReported >= 10 {
		badges = append(badges, BadgeTopReporter)
	}
	if stats.IssuesReported >= 50 {
		badges = append(badges, BadgeCivicHero)
	}
	if stats.VerificationsDone >= 10 {
		badges = append(badges, BadgeVerifier)
	}
	if stats.Reputation >= 200 {
		badges = append(badges, BadgeTrustedVoice)
	}
	return badges
}

// MergeBadges unions newly eligible badges into the existing set,
// preserving order of first award.
func MergeBadges(existing, eligible []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		have[b] = struct{}{}
	}
	merged := existing
	for _, b := range eligible {
		if _, ok := have[b]; !ok {
			merged = append(merged, b)
			have[b] = struct{}{}
		}
	}
	return merged
}
