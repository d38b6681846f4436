package worker

import (
	"context"

	"github.com/civicchain/civic-service/internal/events"
	"github.com/civicchain/civic-service/internal/ledger"
)

// StartLedgerWorker subscribes the ledger notifier to every mirrored
// event type and starts its queue loop. The response path only ever
// touches the non-blocking Enqueue.
func StartLedgerWorker(ctx context.Context, dispatcher events.Dispatcher, notifier *ledger.Notifier) {
	if dispatcher == nil || notifier == nil {
		return
	}

	handler := func(_ context.Context, event events.Event) error {
		notifier.Enqueue(ledger.Notification{
			ID:      event.ID,
			Kind:    event.Type,
			IssueID: event.IssueID,
			UserID:  event.UserID,
			Payload: event.Payload,
		})
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventUserCreated,
		events.EventIssueCreated,
		events.EventVoteCast,
		events.EventReputationChanged,
		events.EventStatusChanged,
	} {
		dispatcher.Subscribe(eventType, handler)
	}

	go notifier.Run(ctx)
}
