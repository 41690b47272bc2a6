package websockets

import (
	"sync"

	"portal/config"
	"portal/internal/events"
	"portal/internal/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	MESSAGE_TYPE_CUSTOMER = "customer"
	MESSAGE_TYPE_HELLO    = "hello"
)

type Message struct {
	Type  string        `json:"type"`
	Event *events.Event `json:"event,omitempty"`
}

// Client is the part of a websocket connection the manager writes to.
type Client interface {
	WriteJSON(v any) error
	Close() error
}

// Manager pushes customer change events to every open websocket. All writes
// happen on the broadcast goroutine, connections are only read by their handler.
type Manager struct {
	mu          sync.Mutex
	clients     map[Client]struct{}
	unsubscribe func()
	done        chan struct{}
	log         logger.Logger
}

func New(eventBus *events.EventBus, config config.Config) (*Manager, error) {
	log := logger.New("websockets")
	if eventBus == nil {
		return nil, log.Function("New").ErrMsg("event bus is nil")
	}

	ch, unsubscribe := eventBus.Subscribe(events.CUSTOMER_CHANNEL)
	m := &Manager{
		clients:     make(map[Client]struct{}),
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
		log:         log,
	}

	go m.broadcastLoop(ch)

	log.Function("New").Info("Websocket manager started", "environment", config.Environment)
	return m, nil
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	if err := c.WriteJSON(Message{Type: MESSAGE_TYPE_HELLO}); err != nil {
		log.Er("failed to greet client", err)
		return
	}

	m.register(c)
	defer m.unregister(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			log.Debug("Websocket closed", "error", err)
			return
		}
	}
}

func (m *Manager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func (m *Manager) register(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c] = struct{}{}
}

func (m *Manager) unregister(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, c)
}

func (m *Manager) broadcastLoop(ch <-chan events.Event) {
	defer close(m.done)
	for event := range ch {
		m.broadcast(event)
	}
}

func (m *Manager) broadcast(event events.Event) {
	log := m.log.Function("broadcast")

	m.mu.Lock()
	defer m.mu.Unlock()

	message := Message{Type: MESSAGE_TYPE_CUSTOMER, Event: &event}
	for client := range m.clients {
		if err := client.WriteJSON(message); err != nil {
			log.Warn("Dropping websocket client after failed write", "error", err)
			_ = client.Close()
			delete(m.clients, client)
		}
	}
}

// Close stops the broadcast loop and disconnects all clients.
func (m *Manager) Close() {
	m.unsubscribe()
	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()
	for client := range m.clients {
		_ = client.Close()
		delete(m.clients, client)
	}
}
