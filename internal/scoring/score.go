// Package scoring computes the 0-100 priority score that ranks issues for
// authority attention. Score is a pure function of its snapshot; callers
// gather the aggregates from the store and persist the result themselves.
package scoring

import "time"

// Weights of the five score components.
const (
	weightDensity    = 2.5
	weightReporter   = 2.0
	weightUpvoters   = 2.0
	weightUrgency    = 2.5
	weightTimeFactor = 1.0
)

const maxScore = 100

// NearbyRadiusMeters bounds the location-density aggregate: only other
// issues within this radius count.
const NearbyRadiusMeters = 100

// NearbyWindow bounds the location-density aggregate in time.
const NearbyWindow = 30 * 24 * time.Hour

// CategoryUrgency fixes the urgency component per category name. Unknown
// names take the OTHER weight; the classification collaborator can hand
// back stale values and scoring must degrade instead of failing.
func CategoryUrgency(category string) float64 {
	switch category {
	case "POTHOLE":
		return 8
	case "GARBAGE":
		return 6
	case "STREETLIGHT":
		return 4
	case "WATER":
		return 9
	default:
		return 5
	}
}

// Snapshot carries everything Score needs about one issue.
type Snapshot struct {
	Category             string
	CreatedAt            time.Time
	Now                  time.Time
	NearbyCount          int
	ReporterReputation   int
	UpvoterReputationSum int
}

// Score computes the weighted priority score for the snapshot, clamped to
// [0, 100]. Negative aggregates are treated as zero rather than rejected.
func Score(s Snapshot) float64 {
	density := clamp(float64(s.NearbyCount), 0, 10)
	reporter := clamp(float64(s.ReporterReputation)/10, 0, 10)
	upvoters := clamp(float64(s.UpvoterReputationSum)/100, 0, 10)
	urgency := CategoryUrgency(s.Category)

	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}
	ageDays := now.Sub(s.CreatedAt).Hours() / 24
	timeFactor := clamp(ageDays, 0, 10)

	score := weightDensity*density +
		weightReporter*reporter +
		weightUpvoters*upvoters +
		weightUrgency*urgency +
		weightTimeFactor*timeFactor

	return clamp(score, 0, maxScore)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
