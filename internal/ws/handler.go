package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/monitoring"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
	"github.com/hearthdesk/hearth/backend/internal/state"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The shell serves the UI from its own origin or file://.
		return true
	},
}

// Handler upgrades event-stream connections and serves the shared
// state protocol over them.
type Handler struct {
	hub     *Hub
	store   *state.Store
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates the stream handler. metrics may be nil.
func NewHandler(hub *Hub, store *state.Store, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	h := &Handler{
		hub:     hub,
		store:   store,
		log:     log.Named("stream"),
		metrics: metrics,
	}
	// State mutations from any source reach every connected client.
	store.Observe(func(c state.Change) {
		hub.Broadcast(map[string]interface{}{
			"type":   "state_change",
			"change": c,
		})
	})
	return h
}

// HandleConnection upgrades the request and serves it until the client
// disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}
	h.hub.register(cl)
	defer h.hub.unregister(cl)
	if h.metrics != nil {
		h.metrics.WSConnected()
		defer h.metrics.WSDisconnected()
	}

	cl.send(map[string]interface{}{
		"type":    "system",
		"message": "Connected to Hearth backend",
	})

	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Stream read ended", zap.Error(err))
			}
			return
		}
		h.dispatch(cl, msg)
	}
}

func (h *Handler) dispatch(cl *client, msg types.WSMessage) {
	switch msg.Type {
	case "ping":
		cl.send(map[string]interface{}{"type": "pong", "timestamp": time.Now().UnixMilli()})
	case "subscribe":
		// Every connection receives all broadcasts; subscribe is an ack.
		cl.send(map[string]interface{}{"type": "subscribed"})
	case "state.set":
		if msg.Key == "" {
			h.sendError(cl, "state.set requires a key")
			return
		}
		h.store.Set(msg.Key, msg.Value)
		cl.send(map[string]interface{}{"type": "state.ok", "key": msg.Key})
	case "state.get":
		value, ok := h.store.Get(msg.Key)
		cl.send(map[string]interface{}{
			"type":  "state.value",
			"key":   msg.Key,
			"value": value,
			"found": ok,
		})
	case "state.remove":
		existed := h.store.Remove(msg.Key)
		cl.send(map[string]interface{}{"type": "state.ok", "key": msg.Key, "removed": existed})
	case "state.keys":
		cl.send(map[string]interface{}{"type": "state.keys", "keys": h.store.Keys()})
	case "state.clear":
		h.store.Clear()
		cl.send(map[string]interface{}{"type": "state.ok"})
	default:
		h.sendError(cl, "unknown message type: "+msg.Type)
	}
}

func (h *Handler) sendError(cl *client, msg string) {
	cl.send(map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().UnixMilli(),
	})
}
