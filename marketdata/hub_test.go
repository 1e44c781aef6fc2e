package marketdata

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockexchange/engine"
)

func newTestServer(t *testing.T) (*Server, *Hub, *engine.MatchingEngine, *httptest.Server) {
	t.Helper()
	eng := engine.NewMatchingEngine(engine.Config{Symbols: []string{"AAPL"}, MaxDepthLevels: 10}, nil)
	hub := NewHub(nil)
	srv := NewServer(eng, hub, nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return srv, hub, eng, ts
}

func dialStream(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/marketdata"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	_, hub, _, ts := newTestServer(t)

	first := dialStream(t, ts)
	second := dialStream(t, ts)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte(`{"type":"QUOTE"}`))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"QUOTE"}`, string(payload))
	}
}

func TestSubscriberDetachedOnDisconnect(t *testing.T) {
	_, hub, _, ts := newTestServer(t)

	conn := dialStream(t, ts)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Broadcasting to an empty hub is a no-op.
	hub.Broadcast([]byte(`{}`))
}

func TestBroadcastSkipsSaturatedSubscriber(t *testing.T) {
	hub := NewHub(nil)
	sub := &subscriber{id: "slow", send: make(chan []byte, 1)}
	hub.subs[sub.id] = sub

	hub.Broadcast([]byte("first"))
	hub.Broadcast([]byte("second"))

	require.Len(t, sub.send, 1)
	assert.Equal(t, "first", string(<-sub.send))
}
