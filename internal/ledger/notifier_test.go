package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/config"
	"github.com/civicchain/civic-service/internal/events"
	"github.com/civicchain/civic-service/internal/repository"
)

type stubClient struct {
	mu       sync.Mutex
	failures int
	calls    int
	ref      string
	done     chan struct{}
}

func (c *stubClient) Mirror(_ context.Context, _ Notification) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failures {
		return "", errors.New("ledger unavailable")
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	return c.ref, nil
}

type stubIssueRepo struct {
	repository.IssueRepository

	mu   sync.Mutex
	refs map[string]string
}

func (r *stubIssueRepo) SetLedgerRef(_ context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs == nil {
		r.refs = map[string]string{}
	}
	r.refs[id] = ref
	return nil
}

func TestNotifierDeliversAndPersistsRef(t *testing.T) {
	client := &stubClient{ref: "tx-abc", done: make(chan struct{})}
	issues := &stubIssueRepo{}
	notifier := NewNotifier(client, issues, zap.NewNop(), nil, config.LedgerConfig{
		QueueSize:      4,
		MaxRetries:     0,
		RetryBackoffMS: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Run(ctx)

	notifier.Enqueue(Notification{ID: "n1", Kind: events.EventIssueCreated, IssueID: "issue-1"})

	select {
	case <-client.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}

	// SetLedgerRef happens after Mirror returns; give the worker a beat.
	require.Eventually(t, func() bool {
		issues.mu.Lock()
		defer issues.mu.Unlock()
		return issues.refs["issue-1"] == "tx-abc"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotifierRetriesUntilSuccess(t *testing.T) {
	client := &stubClient{ref: "tx-retry", failures: 2, done: make(chan struct{})}
	notifier := NewNotifier(client, nil, zap.NewNop(), nil, config.LedgerConfig{
		QueueSize:      4,
		MaxRetries:     3,
		RetryBackoffMS: 1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Run(ctx)

	notifier.Enqueue(Notification{ID: "n1", Kind: events.EventVoteCast})

	select {
	case <-client.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 3, client.calls)
}

func TestNotifierNilClientDropsSilently(t *testing.T) {
	notifier := NewNotifier(nil, nil, zap.NewNop(), nil, config.LedgerConfig{QueueSize: 1})
	// Must not block or panic even with a full queue semantics.
	notifier.Enqueue(Notification{ID: "n1"})
	notifier.Enqueue(Notification{ID: "n2"})
}
