package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/civicchain/civic-service/internal/domain"
	"github.com/civicchain/civic-service/internal/repository"
	apperrors "github.com/civicchain/civic-service/pkg/util"
)

// memStore is an in-memory repository.Store used by workflow tests.
// Begin snapshots the state; Commit swaps the snapshot back in, so a
// rolled-back transaction leaves the store untouched.
type memStore struct {
	mu    sync.Mutex
	state *memState
	seq   int
}

type memState struct {
	users         map[string]*domain.User
	issues        map[string]*domain.Issue
	votes         map[string]*domain.Vote         // key issueID|userID
	verifications map[string]*domain.Verification // key issueID|userID
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		users:         map[string]*domain.User{},
		issues:        map[string]*domain.Issue{},
		votes:         map[string]*domain.Vote{},
		verifications: map[string]*domain.Verification{},
	}}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func pairKey(issueID, userID string) string {
	return issueID + "|" + userID
}

func (st *memState) clone() *memState {
	next := &memState{
		users:         make(map[string]*domain.User, len(st.users)),
		issues:        make(map[string]*domain.Issue, len(st.issues)),
		votes:         make(map[string]*domain.Vote, len(st.votes)),
		verifications: make(map[string]*domain.Verification, len(st.verifications)),
	}
	for id, u := range st.users {
		cp := *u
		cp.Badges = append([]string(nil), u.Badges...)
		next.users[id] = &cp
	}
	for id, i := range st.issues {
		cp := *i
		next.issues[id] = &cp
	}
	for k, v := range st.votes {
		cp := *v
		next.votes[k] = &cp
	}
	for k, v := range st.verifications {
		cp := *v
		next.verifications[k] = &cp
	}
	return next
}

func (s *memStore) Begin(_ context.Context) (repository.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memTx{store: s, state: s.state.clone()}, nil
}

func (s *memStore) Users() repository.UserRepository { return &memUserRepo{store: s} }
func (s *memStore) Issues() repository.IssueRepository {
	return &memIssueRepo{store: s}
}
func (s *memStore) Votes() repository.VoteRepository { return &memVoteRepo{store: s} }
func (s *memStore) Verifications() repository.VerificationRepository {
	return &memVerificationRepo{store: s}
}

type memTx struct {
	store *memStore
	state *memState
	done  bool
}

func (t *memTx) Users() repository.UserRepository   { return &memUserRepo{store: t.store, tx: t} }
func (t *memTx) Issues() repository.IssueRepository { return &memIssueRepo{store: t.store, tx: t} }
func (t *memTx) Votes() repository.VoteRepository   { return &memVoteRepo{store: t.store, tx: t} }
func (t *memTx) Verifications() repository.VerificationRepository {
	return &memVerificationRepo{store: t.store, tx: t}
}

func (t *memTx) Commit(_ context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.state = t.state
	t.done = true
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	t.done = true
	return nil
}

// stateFor returns the live state for pool-backed repos or the snapshot
// for tx-backed ones.
func stateFor(store *memStore, tx *memTx) *memState {
	if tx != nil {
		return tx.state
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state
}

type memUserRepo struct {
	store *memStore
	tx    *memTx
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	st := stateFor(r.store, r.tx)
	for _, existing := range st.users {
		if existing.Email == user.Email {
			return apperrors.NewConflict("email already registered", nil)
		}
	}
	user.ID = r.store.nextID("user")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	st.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	st := stateFor(r.store, r.tx)
	if _, ok := st.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *user
	cp.Badges = append([]string(nil), user.Badges...)
	cp.UpdatedAt = time.Now()
	st.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	st := stateFor(r.store, r.tx)
	user, ok := st.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	cp.Badges = append([]string(nil), user.Badges...)
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	st := stateFor(r.store, r.tx)
	for _, user := range st.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) SetWalletRef(_ context.Context, id, walletRef string) error {
	st := stateFor(r.store, r.tx)
	user, ok := st.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.WalletRef = &walletRef
	return nil
}

type memIssueRepo struct {
	store *memStore
	tx    *memTx
}

func (r *memIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	st := stateFor(r.store, r.tx)
	issue.ID = r.store.nextID("issue")
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	cp := *issue
	st.issues[issue.ID] = &cp
	return nil
}

func (r *memIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	st := stateFor(r.store, r.tx)
	issue, ok := st.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *issue
	return &cp, nil
}

func (r *memIssueRepo) UpdateStatus(_ context.Context, id string, status domain.IssueStatus, proofURL *string) error {
	st := stateFor(r.store, r.tx)
	issue, ok := st.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.Status = status
	if proofURL != nil {
		issue.ProofURL = proofURL
	}
	issue.UpdatedAt = time.Now()
	return nil
}

func (r *memIssueRepo) UpdateScore(_ context.Context, id string, score float64) error {
	st := stateFor(r.store, r.tx)
	issue, ok := st.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.PriorityScore = score
	issue.UpdatedAt = time.Now()
	return nil
}

func (r *memIssueRepo) SetLedgerRef(_ context.Context, id, ledgerRef string) error {
	st := stateFor(r.store, r.tx)
	issue, ok := st.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	issue.LedgerRef = &ledgerRef
	return nil
}

func (r *memIssueRepo) IncrementVotes(_ context.Context, id string, voteType domain.VoteType) error {
	st := stateFor(r.store, r.tx)
	issue, ok := st.issues[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if voteType == domain.VoteDown {
		issue.Downvotes++
	} else {
		issue.Upvotes++
	}
	issue.UpdatedAt = time.Now()
	return nil
}

func (r *memIssueRepo) ListWithFilter(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	st := stateFor(r.store, r.tx)
	var result []domain.Issue
	for _, issue := range st.issues {
		if filter.ReporterID != nil && issue.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.Region != nil && (issue.Region == nil || *issue.Region != *filter.Region) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, issue.Status) {
			continue
		}
		result = append(result, *issue)
	}
	return result, nil
}

func containsStatus(statuses []domain.IssueStatus, status domain.IssueStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (r *memIssueRepo) CountNearby(_ context.Context, lat, lng float64, radiusMeters float64, since time.Time, excludeID *string) (int, error) {
	st := stateFor(r.store, r.tx)
	count := 0
	for _, issue := range st.issues {
		if excludeID != nil && issue.ID == *excludeID {
			continue
		}
		if issue.CreatedAt.Before(since) {
			continue
		}
		if haversineMeters(lat, lng, issue.Latitude, issue.Longitude) <= radiusMeters {
			count++
		}
	}
	return count, nil
}

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Pow(math.Sin(dLng/2), 2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

type memVoteRepo struct {
	store *memStore
	tx    *memTx
}

func (r *memVoteRepo) Create(_ context.Context, vote *domain.Vote) error {
	st := stateFor(r.store, r.tx)
	key := pairKey(vote.IssueID, vote.UserID)
	if _, ok := st.votes[key]; ok {
		return apperrors.NewConflict("already voted", nil)
	}
	vote.ID = r.store.nextID("vote")
	vote.CreatedAt = time.Now()
	cp := *vote
	st.votes[key] = &cp
	return nil
}

func (r *memVoteRepo) ExistsByUserAndIssue(_ context.Context, userID, issueID string) (bool, error) {
	st := stateFor(r.store, r.tx)
	_, ok := st.votes[pairKey(issueID, userID)]
	return ok, nil
}

func (r *memVoteRepo) ListByIssue(_ context.Context, issueID string) ([]domain.Vote, error) {
	st := stateFor(r.store, r.tx)
	var result []domain.Vote
	for _, vote := range st.votes {
		if vote.IssueID == issueID {
			result = append(result, *vote)
		}
	}
	return result, nil
}

func (r *memVoteRepo) SumUpvoterReputation(_ context.Context, issueID string) (int, error) {
	st := stateFor(r.store, r.tx)
	sum := 0
	for _, vote := range st.votes {
		if vote.IssueID != issueID || vote.Type != domain.VoteUp {
			continue
		}
		if user, ok := st.users[vote.UserID]; ok {
			sum += user.Reputation
		}
	}
	return sum, nil
}

type memVerificationRepo struct {
	store *memStore
	tx    *memTx
}

func (r *memVerificationRepo) Create(_ context.Context, verification *domain.Verification) error {
	st := stateFor(r.store, r.tx)
	key := pairKey(verification.IssueID, verification.UserID)
	if _, ok := st.verifications[key]; ok {
		return apperrors.NewConflict("already verified", nil)
	}
	verification.ID = r.store.nextID("verification")
	verification.CreatedAt = time.Now()
	cp := *verification
	st.verifications[key] = &cp
	return nil
}

func (r *memVerificationRepo) ExistsByUserAndIssue(_ context.Context, userID, issueID string) (bool, error) {
	st := stateFor(r.store, r.tx)
	_, ok := st.verifications[pairKey(issueID, userID)]
	return ok, nil
}

func (r *memVerificationRepo) CountByIssue(_ context.Context, issueID string) (int, error) {
	st := stateFor(r.store, r.tx)
	count := 0
	for _, verification := range st.verifications {
		if verification.IssueID == issueID {
			count++
		}
	}
	return count, nil
}
