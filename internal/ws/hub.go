package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
	"go.uber.org/zap"
)

// client is one connected event-stream consumer. Writes are serialized
// per connection; gorilla connections do not allow concurrent writers.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks connected clients and broadcasts view events to all of
// them. It implements the lifecycle service's Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.Named("ws"),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("Stream client connected", zap.Int("clients", n))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("Stream client disconnected", zap.Int("clients", n))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts a view event to every client. Send failures drop
// the client; its reader will notice the closed connection.
func (h *Hub) Publish(event types.ViewEvent) {
	h.Broadcast(map[string]interface{}{
		"type":  "view_event",
		"event": event,
	})
}

// Broadcast sends an arbitrary payload to every client.
func (h *Hub) Broadcast(payload interface{}) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(payload); err != nil {
			h.log.Debug("Broadcast send failed, dropping client", zap.Error(err))
			c.conn.Close()
			h.unregister(c)
		}
	}
}
