package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/events"
	"github.com/civicchain/civic-service/internal/reputation"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

func newIssueService(store *memStore) *IssueService {
	logger := zap.NewNop()
	return NewIssueService(IssueDependencies{
		Store:      store,
		Scoring:    NewScoringService(store, nil, logger),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
	})
}

func TestCreateIssue(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)

	svc := newIssueService(store)
	issue, err := svc.CreateIssue(context.Background(), reporter.ID, IssueCreateInput{
		Description: "burst water main flooding the intersection",
		Category:    domain.CategoryWater,
		Latitude:    40.0,
		Longitude:   -74.0,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.IssueStatusOpen, issue.Status)
	// Fresh issue, no neighbors, no votes: reporter 100/10*2.0 plus water
	// urgency 9*2.5.
	assert.InDelta(t, 42.5, issue.PriorityScore, 0.001)

	updatedReporter, err := store.Users().GetByID(context.Background(), reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updatedReporter.IssuesReported)
	assert.Contains(t, updatedReporter.Badges, reputation.BadgeFirstReporter)
}

func TestCreateIssueCountsNearbyReports(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	other := seedUser(t, store, "other", domain.RoleCitizen, 100)

	// Two existing reports at practically the same spot.
	for i := 0; i < 2; i++ {
		seedIssue(t, store, other.ID, domain.IssueStatusOpen)
	}

	svc := newIssueService(store)
	issue, err := svc.CreateIssue(context.Background(), reporter.ID, IssueCreateInput{
		Description: "another streetlight report",
		Category:    domain.CategoryStreetlight,
		Latitude:    40.0,
		Longitude:   -74.0,
	})
	require.NoError(t, err)

	// density 2*2.5 + reporter 10*2.0 + urgency 4*2.5.
	assert.InDelta(t, 35.0, issue.PriorityScore, 0.001)
}

func TestCreateIssueInvalidCategory(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)

	svc := newIssueService(store)
	_, err := svc.CreateIssue(context.Background(), reporter.ID, IssueCreateInput{
		Description: "something",
		Category:    domain.IssueCategory("SINKHOLE"),
		Latitude:    40.0,
		Longitude:   -74.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestCreateIssueEmptyDescription(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)

	svc := newIssueService(store)
	_, err := svc.CreateIssue(context.Background(), reporter.ID, IssueCreateInput{
		Description: "   ",
		Category:    domain.CategoryPothole,
		Latitude:    40.0,
		Longitude:   -74.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestCreateIssueInvalidCoordinates(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)

	svc := newIssueService(store)
	_, err := svc.CreateIssue(context.Background(), reporter.ID, IssueCreateInput{
		Description: "pothole",
		Category:    domain.CategoryPothole,
		Latitude:    91.0,
		Longitude:   -74.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestCreateIssueUnknownReporter(t *testing.T) {
	store := newMemStore()
	svc := newIssueService(store)
	_, err := svc.CreateIssue(context.Background(), "missing", IssueCreateInput{
		Description: "pothole",
		Category:    domain.CategoryPothole,
		Latitude:    40.0,
		Longitude:   -74.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUpdateStatusRequiresGovernmentRole(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusOpen)

	svc := newIssueService(store)
	_, err := svc.UpdateStatus(context.Background(), reporter, issue.ID, domain.IssueStatusInProgress, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERMISSION_DENIED"))
}

func TestUpdateStatusInvalidStatus(t *testing.T) {
	store := newMemStore()
	official := seedUser(t, store, "official", domain.RoleGovernment, 100)

	svc := newIssueService(store)
	_, err := svc.UpdateStatus(context.Background(), official, "any", domain.IssueStatus("ARCHIVED"), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestUpdateStatusUnknownIssue(t *testing.T) {
	store := newMemStore()
	official := seedUser(t, store, "official", domain.RoleGovernment, 100)

	svc := newIssueService(store)
	_, err := svc.UpdateStatus(context.Background(), official, "missing", domain.IssueStatusResolved, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUpdateStatusAnyTransitionAllowed(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	official := seedUser(t, store, "official", domain.RoleGovernment, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusClosed)

	// Authorities may reopen a closed issue.
	svc := newIssueService(store)
	updated, err := svc.UpdateStatus(context.Background(), official, issue.ID, domain.IssueStatusOpen, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusOpen, updated.Status)

	stored, err := store.Issues().GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusOpen, stored.Status)
}

func TestUpdateStatusSetsProofURL(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	official := seedUser(t, store, "official", domain.RoleGovernment, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusInProgress)

	proof := "https://proof.example.com/repair.jpg"
	svc := newIssueService(store)
	updated, err := svc.UpdateStatus(context.Background(), official, issue.ID, domain.IssueStatusResolved, &proof)
	require.NoError(t, err)
	require.NotNil(t, updated.ProofURL)
	assert.Equal(t, proof, *updated.ProofURL)

	stored, err := store.Issues().GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ProofURL)
	assert.Equal(t, proof, *stored.ProofURL)
}

func TestGetIssueIncludesVerificationCount(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	verifier := seedUser(t, store, "verifier", domain.RoleCitizen, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusResolved)

	require.NoError(t, store.Verifications().Create(context.Background(), &domain.Verification{
		IssueID: issue.ID,
		UserID:  verifier.ID,
	}))

	svc := newIssueService(store)
	detail, err := svc.GetIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.ID, detail.Issue.ID)
	assert.Equal(t, 1, detail.VerificationCount)
}
