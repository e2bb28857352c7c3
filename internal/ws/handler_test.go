package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hearthdesk/hearth/backend/internal/infrastructure/logging"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
	"github.com/hearthdesk/hearth/backend/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T) (*Hub, *state.Store, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logging.NewNop())
	store := state.NewStore()
	handler := NewHandler(hub, store, logging.NewNop(), nil)

	router := gin.New()
	router.GET("/stream", handler.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Drain the welcome message.
	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "system", welcome["type"])

	return hub, store, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestPingPong(t *testing.T) {
	_, _, conn := newStreamServer(t)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "pong", msg["type"])
}

func TestStateProtocol(t *testing.T) {
	_, store, conn := newStreamServer(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "state.set", "key": "active_app", "value": "claude",
	}))
	// state.set triggers both the ok reply and the broadcast; order of
	// the two is not fixed, so collect until the ok arrives.
	sawOK := false
	for i := 0; i < 2 && !sawOK; i++ {
		msg := readMessage(t, conn)
		if msg["type"] == "state.ok" {
			sawOK = true
		}
	}
	assert.True(t, sawOK, "state.set should be acknowledged")

	v, ok := store.Get("active_app")
	require.True(t, ok)
	assert.Equal(t, "claude", v)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type": "state.get", "key": "active_app",
	}))
	for {
		msg := readMessage(t, conn)
		if msg["type"] == "state.value" {
			assert.Equal(t, "claude", msg["value"])
			assert.Equal(t, true, msg["found"])
			break
		}
	}
}

func TestStateSetRequiresKey(t *testing.T) {
	_, _, conn := newStreamServer(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "state.set"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg["type"])
}

func TestSubscribeAcknowledged(t *testing.T) {
	_, _, conn := newStreamServer(t)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "subscribed", msg["type"])
}

func TestUnknownMessageType(t *testing.T) {
	_, _, conn := newStreamServer(t)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg["type"])
}

func TestPublishBroadcastsViewEvents(t *testing.T) {
	hub, _, conn := newStreamServer(t)

	// The dial is registered once the welcome arrived.
	require.Equal(t, 1, hub.ClientCount())

	hub.Publish(types.ViewEvent{
		Type:      types.EventLoadFinished,
		ViewID:    "claude",
		URL:       "https://claude.ai",
		Timestamp: time.Now().UnixMilli(),
	})

	msg := readMessage(t, conn)
	assert.Equal(t, "view_event", msg["type"])
	event := msg["event"].(map[string]interface{})
	assert.Equal(t, "load_finished", event["type"])
	assert.Equal(t, "claude", event["view_id"])
}

func TestStateChangeBroadcast(t *testing.T) {
	_, store, conn := newStreamServer(t)

	// A mutation from outside the stream still reaches the client.
	store.Set("theme", "dark")

	msg := readMessage(t, conn)
	assert.Equal(t, "state_change", msg["type"])
	change := msg["change"].(map[string]interface{})
	assert.Equal(t, "set", change["kind"])
	assert.Equal(t, "theme", change["key"])
}

func TestHubDropsDeadClients(t *testing.T) {
	hub, _, conn := newStreamServer(t)
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()
	// Writes to the closed connection eventually evict the client.
	deadline := time.After(10 * time.Second)
	for hub.ClientCount() > 0 {
		hub.Broadcast(map[string]string{"type": "noop"})
		select {
		case <-deadline:
			t.Fatal("Dead client never evicted")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
