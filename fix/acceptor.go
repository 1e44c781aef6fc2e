package fix

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"mockexchange/engine"
)

// TradePublisher receives every execution produced by inbound order
// flow.
type TradePublisher interface {
	PublishTrade(trade engine.Trade)
}

// Config holds the acceptor settings.
type Config struct {
	Port              int
	SenderCompID      string
	TargetCompID      string
	HeartbeatInterval time.Duration
	WorkerPoolSize    int
}

// Acceptor listens for FIX clients and routes their order flow into
// the matching engine. Each connection gets its own goroutine; a
// semaphore caps concurrent engine submissions.
type Acceptor struct {
	cfg Config
	eng *engine.MatchingEngine
	pub TradePublisher
	log *zap.Logger

	sem      chan struct{}
	listener net.Listener

	mu       sync.Mutex
	closed   bool
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

func NewAcceptor(cfg Config, eng *engine.MatchingEngine, pub TradePublisher, log *zap.Logger) *Acceptor {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	return &Acceptor{
		cfg:      cfg,
		eng:      eng,
		pub:      pub,
		log:      log,
		sem:      make(chan struct{}, cfg.WorkerPoolSize),
		sessions: make(map[*Session]struct{}),
	}
}

// Listen binds the acceptor port. Serve must be called afterwards.
func (a *Acceptor) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Port))
	if err != nil {
		return fmt.Errorf("fix listen: %w", err)
	}
	a.listener = ln
	a.log.Info("fix acceptor listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr reports the bound address. Only valid after Listen.
func (a *Acceptor) Addr() string {
	return a.listener.Addr().String()
}

// Serve accepts connections until Close is called.
func (a *Acceptor) Serve() error {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		a.wg.Add(1)
		go a.handleConn(conn)
	}
}

func (a *Acceptor) ListenAndServe() error {
	if err := a.Listen(); err != nil {
		return err
	}
	return a.Serve()
}

// Close stops accepting and disconnects every session.
func (a *Acceptor) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	if a.listener != nil {
		a.listener.Close()
	}

	a.mu.Lock()
	for sess := range a.sessions {
		sess.close()
	}
	a.mu.Unlock()

	a.wg.Wait()
}

func (a *Acceptor) handleConn(conn net.Conn) {
	defer a.wg.Done()

	sess := newSession(conn, a.cfg.SenderCompID, a.cfg.TargetCompID, a.log)
	a.mu.Lock()
	a.sessions[sess] = struct{}{}
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.sessions, sess)
		a.mu.Unlock()
		sess.close()
	}()

	remote := conn.RemoteAddr().String()

	logon, err := sess.read()
	if err != nil {
		a.log.Warn("fix handshake failed", zap.String("remoteAddr", remote), zap.Error(err))
		return
	}
	if logon.Type != MsgTypeLogon {
		a.log.Warn("first message was not a logon",
			zap.String("remoteAddr", remote),
			zap.String("msgType", logon.Type))
		return
	}

	heartbeatSecs := int(a.cfg.HeartbeatInterval / time.Second)
	if v, err := logon.GetInt(TagHeartBtInt); err == nil && v > 0 {
		heartbeatSecs = int(v)
	}

	reply := NewMessage(MsgTypeLogon).SetInt(TagHeartBtInt, int64(heartbeatSecs))
	if err := sess.send(reply); err != nil {
		return
	}
	a.log.Info("fix session established",
		zap.String("remoteAddr", remote),
		zap.Int("heartbeatSeconds", heartbeatSecs))

	stopHeartbeat := make(chan struct{})
	defer close(stopHeartbeat)
	go a.heartbeatLoop(sess, time.Duration(heartbeatSecs)*time.Second, stopHeartbeat)

	for {
		msg, err := sess.read()
		if err != nil {
			a.log.Info("fix session closed", zap.String("remoteAddr", remote))
			return
		}

		switch msg.Type {
		case MsgTypeHeartbeat:
			// Client keepalive, nothing to do.
		case MsgTypeTestRequest:
			hb := NewMessage(MsgTypeHeartbeat)
			if reqID, ok := msg.Get(TagTestReqID); ok {
				hb.Set(TagTestReqID, reqID)
			}
			if err := sess.send(hb); err != nil {
				return
			}
		case MsgTypeLogout:
			sess.send(NewMessage(MsgTypeLogout))
			a.log.Info("fix client logged out", zap.String("remoteAddr", remote))
			return
		case MsgTypeNewOrderSingle:
			a.withWorker(func() { a.handleNewOrder(sess, msg) })
		case MsgTypeOrderCancelRequest:
			a.withWorker(func() { a.handleCancel(sess, msg) })
		default:
			a.log.Warn("unsupported message type",
				zap.String("remoteAddr", remote),
				zap.String("msgType", msg.Type))
		}
	}
}

func (a *Acceptor) withWorker(fn func()) {
	a.sem <- struct{}{}
	defer func() { <-a.sem }()
	fn()
}

func (a *Acceptor) heartbeatLoop(sess *Session, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := sess.send(NewMessage(MsgTypeHeartbeat)); err != nil {
				return
			}
		}
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
