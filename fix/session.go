package fix

import (
	"bufio"
	"net"
	"sync"

	"go.uber.org/zap"
)

type orderRef struct {
	symbol  string
	orderID int64
}

// Session is one authenticated FIX connection on the acceptor side.
// Reads happen on the connection goroutine; writes are serialized by
// the session mutex so exec reports and heartbeats interleave safely.
type Session struct {
	conn   net.Conn
	reader *bufio.Reader
	sender string
	target string
	log    *zap.Logger

	mu     sync.Mutex
	outSeq int
	orders map[string]orderRef
	closed bool
}

func newSession(conn net.Conn, sender, target string, log *zap.Logger) *Session {
	return &Session{
		conn:   conn,
		reader: bufio.NewReader(conn),
		sender: sender,
		target: target,
		log:    log,
		orders: make(map[string]orderRef),
	}
}

func (s *Session) read() (*Message, error) {
	frame, err := ReadFrame(s.reader)
	if err != nil {
		return nil, err
	}
	return Parse(frame)
}

func (s *Session) send(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return net.ErrClosed
	}
	s.outSeq++
	_, err := s.conn.Write(msg.Encode(s.sender, s.target, s.outSeq))
	return err
}

func (s *Session) trackOrder(clOrdID, symbol string, orderID int64) {
	s.mu.Lock()
	s.orders[clOrdID] = orderRef{symbol: symbol, orderID: orderID}
	s.mu.Unlock()
}

func (s *Session) lookupOrder(clOrdID string) (orderRef, bool) {
	s.mu.Lock()
	ref, ok := s.orders[clOrdID]
	s.mu.Unlock()
	return ref, ok
}

func (s *Session) close() {
	s.mu.Lock()
	closed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !closed {
		s.conn.Close()
	}
}
