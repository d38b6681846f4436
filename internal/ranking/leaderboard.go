// Package ranking maintains the regional priority leaderboards that back
// the authority dashboard. Redis sorted sets keyed by region; every score
// recompute feeds them. Redis being down is never fatal.
package ranking

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "leaderboard:"
	// GlobalRegion aggregates every issue regardless of region label.
	GlobalRegion = "_all"
)

// Entry is one leaderboard row.
type Entry struct {
	IssueID string
	Score   float64
}

// Leaderboard wraps the Redis sorted sets ranking issues by priority.
type Leaderboard struct {
	client *redis.Client
}

// NewLeaderboard builds a leaderboard over the given client.
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// Update records the issue's score in the region's set and the global set.
func (l *Leaderboard) Update(ctx context.Context, region *string, issueID string, score float64) error {
	if l == nil || l.client == nil {
		return nil
	}
	member := redis.Z{Score: score, Member: issueID}
	if err := l.client.ZAdd(ctx, keyPrefix+GlobalRegion, member).Err(); err != nil {
		return err
	}
	if region != nil && *region != "" {
		return l.client.ZAdd(ctx, keyPrefix+*region, member).Err()
	}
	return nil
}

// Remove drops an issue from the sets once it leaves the active pool.
func (l *Leaderboard) Remove(ctx context.Context, region *string, issueID string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if err := l.client.ZRem(ctx, keyPrefix+GlobalRegion, issueID).Err(); err != nil {
		return err
	}
	if region != nil && *region != "" {
		return l.client.ZRem(ctx, keyPrefix+*region, issueID).Err()
	}
	return nil
}

// Top returns the highest-priority issues for a region, best first.
func (l *Leaderboard) Top(ctx context.Context, region string, limit int) ([]Entry, error) {
	if l == nil || l.client == nil {
		return nil, nil
	}
	if region == "" {
		region = GlobalRegion
	}
	if limit <= 0 {
		limit = 20
	}
	members, err := l.client.ZRevRangeWithScores(ctx, keyPrefix+region, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		id, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{IssueID: id, Score: m.Score})
	}
	return entries, nil
}
