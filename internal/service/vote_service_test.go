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

func seedUser(t *testing.T, store *memStore, name string, role domain.UserRole, rep int) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:       name,
		Email:      name + "@example.com",
		Role:       role,
		Reputation: rep,
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedIssue(t *testing.T, store *memStore, reporterID string, status domain.IssueStatus) *domain.Issue {
	t.Helper()
	issue := &domain.Issue{
		ReporterID:  reporterID,
		Description: "streetlight out on 5th avenue",
		Category:    domain.CategoryStreetlight,
		Latitude:    40.0,
		Longitude:   -74.0,
		Status:      status,
	}
	require.NoError(t, store.Issues().Create(context.Background(), issue))
	return issue
}

func newVoteService(store *memStore) *VoteService {
	logger := zap.NewNop()
	return NewVoteService(VoteDependencies{
		Store:      store,
		Scoring:    NewScoringService(store, nil, logger),
		Dispatcher: events.NewInMemoryDispatcher(),
		Deltas:     reputation.DefaultDeltas(),
		Logger:     logger,
	})
}

func TestCastVoteUpvote(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	voter := seedUser(t, store, "voter", domain.RoleCitizen, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusOpen)

	svc := newVoteService(store)
	result, err := svc.CastVote(context.Background(), voter.ID, issue.ID, domain.VoteUp)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Upvotes)
	assert.Equal(t, 0, result.Downvotes)
	assert.Equal(t, 105, result.ReporterReputation)

	stored, err := store.Issues().GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Upvotes)

	updatedReporter, err := store.Users().GetByID(context.Background(), reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, updatedReporter.Reputation)
	assert.Equal(t, 1, updatedReporter.TotalUpvotes)
}

func TestCastVoteDownvote(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	voter := seedUser(t, store, "voter", domain.RoleCitizen, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusOpen)

	svc := newVoteService(store)
	result, err := svc.CastVote(context.Background(), voter.ID, issue.ID, domain.VoteDown)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Upvotes)
	assert.Equal(t, 1, result.Downvotes)
	assert.Equal(t, 97, result.ReporterReputation)

	updatedReporter, err := store.Users().GetByID(context.Background(), reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, 97, updatedReporter.Reputation)
	assert.Equal(t, 0, updatedReporter.TotalUpvotes)
}

func TestCastVoteReputationNeverBelowZero(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 2)
	voter := seedUser(t, store, "voter", domain.RoleCitizen, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusOpen)

	svc := newVoteService(store)
	result, err := svc.CastVote(context.Background(), voter.ID, issue.ID, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ReporterReputation)
}

func TestCastVoteDuplicateRejected(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	voter := seedUser(t, store, "voter", domain.RoleCitizen, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusOpen)

	svc := newVoteService(store)
	_, err := svc.CastVote(context.Background(), voter.ID, issue.ID, domain.VoteUp)
	require.NoError(t, err)

	_, err = svc.CastVote(context.Background(), voter.ID, issue.ID, domain.VoteDown)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	// The failed second vote must leave counters untouched.
	stored, err := store.Issues().GetByID(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Upvotes)
	assert.Equal(t, 0, stored.Downvotes)

	updatedReporter, err := store.Users().GetByID(context.Background(), reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, updatedReporter.Reputation)
}

func TestCastVoteOnOwnIssueRejected(t *testing.T) {
	store := newMemStore()
	reporter := seedUser(t, store, "reporter", domain.RoleCitizen, 100)
	issue := seedIssue(t, store, reporter.ID, domain.IssueStatusOpen)

	svc := newVoteService(store)
	_, err := svc.CastVote(context.Background(), reporter.ID, issue.ID, domain.VoteUp)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestCastVoteUnknownIssue(t *testing.T) {
	store := newMemStore()
	voter := seedUser(t, store, "voter", domain.RoleCitizen, 100)

	svc := newVoteService(store)
	_, err := svc.CastVote(context.Background(), voter.ID, "missing", domain.VoteUp)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCastVoteInvalidType(t *testing.T) {
	store := newMemStore()
	svc := newVoteService(store)
	_, err := svc.CastVote(context.Background(), "u", "i", domain.VoteType("SIDEWAYS"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}
