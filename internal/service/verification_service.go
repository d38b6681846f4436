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

// VerificationService orchestrates citizen re-verification of resolved
// issues, including the auto-close transition once the verification count
// reaches the configured threshold.
type VerificationService struct {
	store      repository.Store
	scoring    *ScoringService
	dispatcher events.Dispatcher
	deltas     reputation.Deltas
	threshold  int
	logger     *zap.Logger
}

// VerificationDependencies bundles collaborators for the service.
type VerificationDependencies struct {
	Store      repository.Store
	Scoring    *ScoringService
	Dispatcher events.Dispatcher
	Deltas     reputation.Deltas
	Threshold  int
	Logger     *zap.Logger
}

// VerificationResult always reports the current verification count and
// whether this verification triggered the auto-close.
type VerificationResult struct {
	Verification      *domain.Verification
	VerificationCount int
	AutoClosed        bool
}

// NewVerificationService constructs the service.
func NewVerificationService(deps VerificationDependencies) *VerificationService {
	threshold := deps.Threshold
	if threshold <= 0 {
		threshold = 3
	}
	return &VerificationService{
		store:      deps.Store,
		scoring:    deps.Scoring,
		dispatcher: deps.Dispatcher,
		deltas:     deps.Deltas,
		threshold:  threshold,
		logger:     deps.Logger,
	}
}

// VerifyIssue records verifierID's confirmation that the issue is fixed.
// Citizens only; the issue must have reached RESOLVED (verifications on an
// already auto-closed issue are still recorded but never re-trigger the
// transition); verifiers cannot verify their own reports and verify each
// issue at most once.
func (s *VerificationService) VerifyIssue(ctx context.Context, verifierID, issueID string) (*VerificationResult, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	verifier, err := tx.Users().GetByID(ctx, verifierID)
	if err != nil {
		return nil, mapNoRows(err, "user")
	}
	if verifier.Role != domain.RoleCitizen {
		return nil, apperrors.NewForbidden("only citizens can verify issues")
	}

	issue, err := tx.Issues().GetByID(ctx, issueID)
	if err != nil {
		return nil, mapNoRows(err, "issue")
	}
	if issue.Status != domain.IssueStatusResolved && issue.Status != domain.IssueStatusClosed {
		return nil, apperrors.NewConflict("issue must be resolved to verify", map[string]any{"status": issue.Status})
	}
	if issue.ReporterID == verifierID {
		return nil, apperrors.NewConflict("cannot verify own issue", nil)
	}

	exists, err := tx.Verifications().ExistsByUserAndIssue(ctx, verifierID, issueID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("already verified", nil)
	}

	verification := &domain.Verification{IssueID: issueID, UserID: verifierID}
	if err := tx.Verifications().Create(ctx, verification); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("already verified", nil)
		}
		return nil, err
	}

	verifier.VerificationsDone++
	verifier.Reputation = reputation.Apply(verifier.Reputation, s.deltas.VerificationPerformed)
	verifier.Badges = reputation.MergeBadges(verifier.Badges, reputation.EligibleBadges(verifier.Stats()))
	if err := tx.Users().Update(ctx, verifier); err != nil {
		return nil, err
	}

	reporter, err := tx.Users().GetByID(ctx, issue.ReporterID)
	if err != nil {
		return nil, mapNoRows(err, "user")
	}
	reporter.Reputation = reputation.Apply(reporter.Reputation, s.deltas.IssueVerifiedResolved)

	count, err := tx.Verifications().CountByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	autoClosed := false
	if count >= s.threshold && issue.Status == domain.IssueStatusResolved {
		if err := tx.Issues().UpdateStatus(ctx, issueID, domain.IssueStatusClosed, nil); err != nil {
			return nil, err
		}
		reporter.IssuesResolved++
		autoClosed = true
	}

	reporter.Badges = reputation.MergeBadges(reporter.Badges, reputation.EligibleBadges(reporter.Stats()))
	if err := tx.Users().Update(ctx, reporter); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if autoClosed {
		if _, err := s.scoring.Recompute(ctx, issueID); err != nil {
			s.logger.Warn("score recompute after auto-close failed",
				zap.String("issue_id", issueID),
				zap.Error(err))
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventStatusChanged,
			IssueID: issueID,
			UserID:  verifierID,
			Payload: events.StatusChangedPayload{
				OldStatus: domain.IssueStatusResolved,
				NewStatus: domain.IssueStatusClosed,
				AutoClose: true,
			},
		})
	}

	return &VerificationResult{
		Verification:      verification,
		VerificationCount: count,
		AutoClosed:        autoClosed,
	}, nil
}
