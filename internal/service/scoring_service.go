package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/ranking"
	"github.com/civicchain/civic-service/internal/repository"
	"github.com/civicchain/civic-service/internal/scoring"
)

// ScoringService gathers the scoring engine's inputs from the store,
// persists the recomputed priority score, and feeds the leaderboard.
// Recomputation runs read-after-commit: a score computed against a
// slightly stale set of concurrent votes is accepted, since it is always
// re-derivable from store state.
type ScoringService struct {
	store       repository.Store
	leaderboard *ranking.Leaderboard
	logger      *zap.Logger
}

// NewScoringService constructs the service. leaderboard may be nil.
func NewScoringService(store repository.Store, leaderboard *ranking.Leaderboard, logger *zap.Logger) *ScoringService {
	return &ScoringService{store: store, leaderboard: leaderboard, logger: logger}
}

// Recompute re-derives the issue's score from current store state,
// persists it, and updates the leaderboard. Leaderboard failures are
// logged, never surfaced.
func (s *ScoringService) Recompute(ctx context.Context, issueID string) (float64, error) {
	issues := s.store.Issues()
	issue, err := issues.GetByID(ctx, issueID)
	if err != nil {
		return 0, err
	}

	reporter, err := s.store.Users().GetByID(ctx, issue.ReporterID)
	if err != nil {
		return 0, err
	}

	since := time.Now().Add(-scoring.NearbyWindow)
	nearby, err := issues.CountNearby(ctx, issue.Latitude, issue.Longitude, scoring.NearbyRadiusMeters, since, &issue.ID)
	if err != nil {
		return 0, err
	}

	upvoterSum, err := s.store.Votes().SumUpvoterReputation(ctx, issue.ID)
	if err != nil {
		return 0, err
	}

	score := scoring.Score(scoring.Snapshot{
		Category:             string(issue.Category),
		CreatedAt:            issue.CreatedAt,
		NearbyCount:          nearby,
		ReporterReputation:   reporter.Reputation,
		UpvoterReputationSum: upvoterSum,
	})

	if err := issues.UpdateScore(ctx, issue.ID, score); err != nil {
		return 0, err
	}

	s.publishToLeaderboard(ctx, issue, score)
	return score, nil
}

func (s *ScoringService) publishToLeaderboard(ctx context.Context, issue *domain.Issue, score float64) {
	if s.leaderboard == nil {
		return
	}
	if err := s.leaderboard.Update(ctx, issue.Region, issue.ID, score); err != nil {
		s.logger.Warn("leaderboard update failed",
			zap.String("issue_id", issue.ID),
			zap.Error(err))
	}
}

// PublishToLeaderboard exposes the best-effort leaderboard write for
// workflows that already hold a fresh score.
func (s *ScoringService) PublishToLeaderboard(ctx context.Context, issue *domain.Issue, score float64) {
	s.publishToLeaderboard(ctx, issue, score)
}

// TopIssues serves the authority dashboard from Redis.
func (s *ScoringService) TopIssues(ctx context.Context, region string, limit int) ([]ranking.Entry, error) {
	return s.leaderboard.Top(ctx, region, limit)
}
