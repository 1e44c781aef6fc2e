package marketdata

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 64

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans market data frames out to websocket subscribers. Slow
// consumers miss frames rather than stall the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
	log  *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subs: make(map[string]*subscriber),
		log:  log,
	}
}

// Attach registers a connection and starts its write pump. The returned
// id identifies the subscriber until it disconnects.
func (h *Hub) Attach(conn *websocket.Conn) string {
	sub := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	go sub.writePump(h)

	h.log.Info("market data subscriber connected",
		zap.String("subscriberId", sub.id),
		zap.String("remoteAddr", conn.RemoteAddr().String()))
	return sub.id
}

// Detach removes a subscriber and closes its connection. Safe to call
// more than once for the same id.
func (h *Hub) Detach(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(sub.send)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
		h.log.Info("market data subscriber disconnected", zap.String("subscriberId", id))
	}
}

// Broadcast queues a frame for every subscriber, skipping those whose
// send buffers are full.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.send <- payload:
		default:
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		close(sub.send)
		sub.conn.Close()
	}
}

func (s *subscriber) writePump(h *Hub) {
	for payload := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.Detach(s.id)
			return
		}
	}
}
