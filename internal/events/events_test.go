package events

import (
	"testing"
	"time"

	"portal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestEventBus_PublishLocal(t *testing.T) {
	bus := New(nil, config.Config{})
	t.Cleanup(func() { _ = bus.Close() })

	ch, unsubscribe := bus.Subscribe(CUSTOMER_CHANNEL)
	defer unsubscribe()

	other, unsubscribeOther := bus.Subscribe("other")
	defer unsubscribeOther()

	require.NoError(t, bus.Publish(CUSTOMER_CHANNEL, Event{
		Type:       TypeCustomerChanged,
		Action:     ActionCreated,
		CustomerID: "c-1",
	}))

	event := receive(t, ch)
	assert.Equal(t, CUSTOMER_CHANNEL, event.Channel)
	assert.Equal(t, ActionCreated, event.Action)
	assert.Equal(t, "c-1", event.CustomerID)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	select {
	case <-other:
		t.Fatal("event leaked to another channel")
	default:
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := New(nil, config.Config{})
	t.Cleanup(func() { _ = bus.Close() })

	ch, unsubscribe := bus.Subscribe(CUSTOMER_CHANNEL)
	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)

	assert.NoError(t, bus.Publish(CUSTOMER_CHANNEL, Event{Action: ActionDeleted}))
}

func TestEventBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := New(nil, config.Config{})
	t.Cleanup(func() { _ = bus.Close() })

	ch, unsubscribe := bus.Subscribe(CUSTOMER_CHANNEL)
	defer unsubscribe()

	for i := 0; i < SUBSCRIBER_BUFFER+10; i++ {
		require.NoError(t, bus.Publish(CUSTOMER_CHANNEL, Event{Action: ActionUpdated}))
	}
	assert.Len(t, ch, SUBSCRIBER_BUFFER)
}

func TestEventBus_Close(t *testing.T) {
	bus := New(nil, config.Config{})

	ch, unsubscribe := bus.Subscribe(CUSTOMER_CHANNEL)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)
	unsubscribe()

	late, _ := bus.Subscribe(CUSTOMER_CHANNEL)
	_, ok = <-late
	assert.False(t, ok)
}
