package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/events"
	"github.com/civicchain/civic-service/internal/reputation"
	"github.com/civicchain/civic-service/internal/repository"
	"github.com/civicchain/civic-service/internal/scoring"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

// IssueService coordinates issue creation and authority status updates.
type IssueService struct {
	store      repository.Store
	scoring    *ScoringService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	Store      repository.Store
	Scoring    *ScoringService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// IssueCreateInput describes issue creation payload.
type IssueCreateInput struct {
	ImageURL    string
	Description string
	Category    domain.IssueCategory
	Latitude    float64
	Longitude   float64
	Region      *string
}

// IssueDetail bundles an issue with its verification count.
type IssueDetail struct {
	Issue             *domain.Issue
	VerificationCount int
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		store:      deps.Store,
		scoring:    deps.Scoring,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateIssue opens a new issue for a reporter. The issue row, the
// reporter's counter bump, and the badge merge commit atomically; the
// ledger mirror runs after commit and never affects the outcome.
func (s *IssueService) CreateIssue(ctx context.Context, reporterID string, input IssueCreateInput) (*domain.Issue, error) {
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, apperrors.NewValidationError("invalid coordinates", nil)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	reporter, err := tx.Users().GetByID(ctx, reporterID)
	if err != nil {
		return nil, mapNoRows(err, "user")
	}

	// Density at creation time: the row does not exist yet, so nothing
	// needs excluding.
	since := time.Now().Add(-scoring.NearbyWindow)
	nearby, err := tx.Issues().CountNearby(ctx, input.Latitude, input.Longitude, scoring.NearbyRadiusMeters, since, nil)
	if err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		ReporterID:  reporterID,
		ImageURL:    input.ImageURL,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Region:      input.Region,
		Status:      domain.IssueStatusOpen,
		PriorityScore: scoring.Score(scoring.Snapshot{
			Category:           string(input.Category),
			CreatedAt:          time.Now(),
			NearbyCount:        nearby,
			ReporterReputation: reporter.Reputation,
		}),
	}
	if err := tx.Issues().Create(ctx, issue); err != nil {
		return nil, err
	}

	reporter.IssuesReported++
	reporter.Badges = reputation.MergeBadges(reporter.Badges, reputation.EligibleBadges(reporter.Stats()))
	if err := tx.Users().Update(ctx, reporter); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.scoring.PublishToLeaderboard(ctx, issue, issue.PriorityScore)
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		UserID:  reporterID,
		Payload: events.IssueCreatedPayload{
			Category:      issue.Category,
			Region:        issue.Region,
			PriorityScore: issue.PriorityScore,
		},
	})
	return issue, nil
}

// UpdateStatus applies an authority-driven status change. Only the status
// value itself is validated; an authority may set any status from any
// status.
func (s *IssueService) UpdateStatus(ctx context.Context, actor *domain.User, issueID string, newStatus domain.IssueStatus, proofURL *string) (*domain.Issue, error) {
	if actor == nil || actor.Role != domain.RoleGovernment {
		return nil, apperrors.NewForbidden("government role required")
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
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
	oldStatus := issue.Status

	if err := tx.Issues().UpdateStatus(ctx, issue.ID, newStatus, proofURL); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	issue.Status = newStatus
	if proofURL != nil {
		issue.ProofURL = proofURL
	}

	if _, err := s.scoring.Recompute(ctx, issue.ID); err != nil {
		s.logger.Warn("score recompute after status change failed",
			zap.String("issue_id", issue.ID),
			zap.Error(err))
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventStatusChanged,
		IssueID: issue.ID,
		UserID:  actor.ID,
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return issue, nil
}

// GetIssue fetches one issue with its verification count.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*IssueDetail, error) {
	issue, err := s.store.Issues().GetByID(ctx, issueID)
	if err != nil {
		return nil, mapNoRows(err, "issue")
	}
	count, err := s.store.Verifications().CountByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return &IssueDetail{Issue: issue, VerificationCount: count}, nil
}

// ListIssues returns issues matching the filter, highest priority first.
func (s *IssueService) ListIssues(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	return s.store.Issues().ListWithFilter(ctx, filter)
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

// publishEvent stamps and publishes an event; shared by all workflows.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

// mapNoRows converts a missing-row error into the NotFound taxonomy kind.
func mapNoRows(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}
