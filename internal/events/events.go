package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"portal/config"
	"portal/internal/database"
	"portal/internal/logger"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const (
	CUSTOMER_CHANNEL   = "customers"
	CHANNEL_PREFIX     = "portal:events:"
	SUBSCRIBER_BUFFER  = 64
	RECONNECT_INTERVAL = time.Second
)

const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionResetEdited   = "reset_edited"
	ActionPublicLink    = "public_link"
	ActionPublicSubmit  = "public_submit"
	TypeCustomerChanged = "customer_changed"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Channel    string         `json:"channel"`
	Action     string         `json:"action"`
	CustomerID string         `json:"customerId,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// EventBus fans events out to in-process subscribers. With a cache client
// events travel through valkey pub/sub so every server instance sees them.
type EventBus struct {
	client      database.CacheClient
	mu          sync.RWMutex
	subscribers map[string]map[int]chan Event
	nextID      int
	closed      bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	log         logger.Logger
}

func New(client database.CacheClient, config config.Config) *EventBus {
	log := logger.New("events")
	ctx, cancel := context.WithCancel(context.Background())

	bus := &EventBus{
		client:      client,
		subscribers: make(map[string]map[int]chan Event),
		cancel:      cancel,
		log:         log,
	}

	if client != nil {
		bus.wg.Add(1)
		go bus.listen(ctx)
	}

	log.Function("New").Info("Event bus started", "distributed", client != nil, "environment", config.Environment)
	return bus
}

func (b *EventBus) Publish(channel string, event Event) error {
	log := b.log.Function("Publish")

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Channel = channel

	if b.client == nil {
		b.dispatch(event)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "channel", channel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := b.client.B().Publish().Channel(CHANNEL_PREFIX + channel).Message(string(payload)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		// Local subscribers still get the event.
		b.dispatch(event)
		return log.Err("failed to publish event", err, "channel", channel)
	}

	return nil
}

// Subscribe returns a buffered channel of events and a function that removes
// the subscription. Slow subscribers lose events rather than block publishers.
func (b *EventBus) Subscribe(channel string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, SUBSCRIBER_BUFFER)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	b.subscribers[channel][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(channel, id) })
	}
}

func (b *EventBus) unsubscribe(channel string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[channel][id]; ok {
		delete(b.subscribers[channel], id)
		close(ch)
	}
}

func (b *EventBus) dispatch(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.Channel] {
		select {
		case ch <- event:
		default:
			b.log.Function("dispatch").Warn("Dropping event for slow subscriber",
				"channel", event.Channel, "eventID", event.ID)
		}
	}
}

func (b *EventBus) listen(ctx context.Context) {
	defer b.wg.Done()
	log := b.log.Function("listen")

	for {
		cmd := b.client.B().Psubscribe().Pattern(CHANNEL_PREFIX + "*").Build()
		err := b.client.Receive(ctx, cmd, func(msg valkey.PubSubMessage) {
			var event Event
			if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
				log.Er("failed to decode event", err, "channel", msg.Channel)
				return
			}
			event.Channel = strings.TrimPrefix(msg.Channel, CHANNEL_PREFIX)
			b.dispatch(event)
		})

		if ctx.Err() != nil {
			return
		}
		log.Warn("Event subscription ended, reconnecting", "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(RECONNECT_INTERVAL):
		}
	}
}

func (b *EventBus) Close() error {
	b.cancel()
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subs := range b.subscribers {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subscribers, channel)
	}

	return nil
}
