package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/civicchain/civic-service/internal/config"
	"github.com/civicchain/civic-service/internal/observability"
	"github.com/civicchain/civic-service/internal/repository"
)

// Notifier drains a bounded queue of notifications toward the ledger
// client with retry and backoff, isolated from the request path. Enqueue
// never blocks; when the queue is full the notification is dropped and
// logged.
type Notifier struct {
	client  Client
	issues  repository.IssueRepository
	logger  *zap.Logger
	metrics *observability.Metrics

	queue      chan Notification
	maxRetries int
	backoff    time.Duration
}

// NewNotifier builds the notifier. A nil client disables mirroring; every
// enqueued notification is then dropped silently.
func NewNotifier(client Client, issues repository.IssueRepository, logger *zap.Logger, metrics *observability.Metrics, cfg config.LedgerConfig) *Notifier {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := time.Duration(cfg.RetryBackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Notifier{
		client:     client,
		issues:     issues,
		logger:     logger,
		metrics:    metrics,
		queue:      make(chan Notification, queueSize),
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Enqueue offers a notification without blocking the caller.
func (n *Notifier) Enqueue(notification Notification) {
	if n.client == nil {
		return
	}
	select {
	case n.queue <- notification:
	default:
		n.logger.Warn("ledger queue full, dropping notification",
			zap.String("kind", string(notification.Kind)),
			zap.String("id", notification.ID))
	}
}

// Run processes the queue until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-n.queue:
			n.deliver(ctx, notification)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, notification Notification) {
	var ref string
	var err error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.backoff * time.Duration(attempt)):
			}
		}
		ref, err = n.client.Mirror(ctx, notification)
		if err == nil {
			break
		}
	}

	if n.metrics != nil {
		n.metrics.RecordLedgerOutcome(string(notification.Kind), err == nil)
	}
	if err != nil {
		n.logger.Warn("ledger mirror failed",
			zap.String("kind", string(notification.Kind)),
			zap.String("id", notification.ID),
			zap.Error(err))
		return
	}

	n.logger.Debug("ledger mirror delivered",
		zap.String("kind", string(notification.Kind)),
		zap.String("ref", ref))

	if ref != "" && notification.IssueID != "" && n.issues != nil {
		if err := n.issues.SetLedgerRef(ctx, notification.IssueID, ref); err != nil {
			n.logger.Warn("persist ledger ref failed",
				zap.String("issue_id", notification.IssueID),
				zap.Error(err))
		}
	}
}
