package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/events"
	"github.com/civicchain/civic-service/internal/reputation"
	"github.com/civicchain/civic-service/internal/repository"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

// VoteService orchestrates a single vote: the vote row, the issue
// counters, and the reporter's reputation commit atomically; the score
// recompute and ledger mirror run after commit as independent best-effort
// steps.
type VoteService struct {
	store      repository.Store
	scoring    *ScoringService
	dispatcher events.Dispatcher
	deltas     reputation.Deltas
	logger     *zap.Logger
}

// VoteDependencies bundles collaborators for the vote service.
type VoteDependencies struct {
	Store      repository.Store
	Scoring    *ScoringService
	Dispatcher events.Dispatcher
	Deltas     reputation.Deltas
	Logger     *zap.Logger
}

// VoteResult reports the committed vote and the reporter's new standing.
type VoteResult struct {
	Vote               *domain.Vote
	Upvotes            int
	Downvotes          int
	ReporterReputation int
}

// NewVoteService constructs the service.
func NewVoteService(deps VoteDependencies) *VoteService {
	return &VoteService{
		store:      deps.Store,
		scoring:    deps.Scoring,
		dispatcher: deps.Dispatcher,
		deltas:     deps.Deltas,
		logger:     deps.Logger,
	}
}

// CastVote records one vote by voterID on issueID. A user gets at most one
// vote per issue, ever; switching vote type is not supported.
func (s *VoteService) CastVote(ctx context.Context, voterID, issueID string, voteType domain.VoteType) (*VoteResult, error) {
	if !voteType.Valid() {
		return nil, apperrors.NewValidationError("invalid vote type", map[string]any{"vote_type": voteType})
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	issue, err := tx.Issues().GetByID(ctx, issueID)
	if err != nil {
		return nil, mapNoRows(err, "issue")
	}
	if issue.ReporterID == voterID {
		return nil, apperrors.NewConflict("cannot vote on own issue", nil)
	}
	if _, err := tx.Users().GetByID(ctx, voterID); err != nil {
		return nil, mapNoRows(err, "user")
	}

	// Application-level check for a friendly error; the unique index on
	// (issue_id, user_id) is what actually closes the race window.
	exists, err := tx.Votes().ExistsByUserAndIssue(ctx, voterID, issueID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("already voted", nil)
	}

	vote := &domain.Vote{IssueID: issueID, UserID: voterID, Type: voteType}
	if err := tx.Votes().Create(ctx, vote); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("already voted", nil)
		}
		return nil, err
	}

	if err := tx.Issues().IncrementVotes(ctx, issueID, voteType); err != nil {
		return nil, err
	}

	reporter, err := tx.Users().GetByID(ctx, issue.ReporterID)
	if err != nil {
		return nil, mapNoRows(err, "user")
	}
	oldReputation := reporter.Reputation

	delta := s.deltas.UpvoteReceived
	if voteType == domain.VoteDown {
		delta = s.deltas.DownvoteReceived
	}
	reporter.Reputation = reputation.Apply(reporter.Reputation, delta)
	if voteType == domain.VoteUp {
		reporter.TotalUpvotes++
	}
	reporter.Badges = reputation.MergeBadges(reporter.Badges, reputation.EligibleBadges(reporter.Stats()))
	if err := tx.Users().Update(ctx, reporter); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	upvotes := issue.Upvotes
	downvotes := issue.Downvotes
	if voteType == domain.VoteUp {
		upvotes++
	} else {
		downvotes++
	}

	// Post-commit: the two best-effort steps are independent; a failure
	// in either never undoes the vote.
	if _, err := s.scoring.Recompute(ctx, issueID); err != nil {
		s.logger.Warn("score recompute after vote failed",
			zap.String("issue_id", issueID),
			zap.Error(err))
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventVoteCast,
		IssueID: issueID,
		UserID:  voterID,
		Payload: events.VoteCastPayload{
			VoteType:  voteType,
			Upvotes:   upvotes,
			Downvotes: downvotes,
		},
	})
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventReputationChanged,
		IssueID: issueID,
		UserID:  reporter.ID,
		Payload: events.ReputationChangedPayload{
			OldReputation: oldReputation,
			NewReputation: reporter.Reputation,
		},
	})

	return &VoteResult{
		Vote:               vote,
		Upvotes:            upvotes,
		Downvotes:          downvotes,
		ReporterReputation: reporter.Reputation,
	}, nil
}
