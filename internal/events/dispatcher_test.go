package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var received []Event
	d.Subscribe(EventVoteCast, func(_ context.Context, e Event) error {
		received = append(received, e)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventVoteCast, IssueID: "i1"}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueCreated, IssueID: "i2"}))

	require.Len(t, received, 1)
	assert.Equal(t, "i1", received[0].IssueID)
}

func TestDispatcherSwallowsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	d.Subscribe(EventStatusChanged, func(context.Context, Event) error {
		calls++
		return errors.New("mirror down")
	})
	d.Subscribe(EventStatusChanged, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventStatusChanged})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
