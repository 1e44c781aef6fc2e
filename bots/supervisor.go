package bots

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mockexchange/engine"
)

// Supervisor orchestrates a swarm of bots over one FIX session and
// tracks PnL from the exchange trade stream.
type Supervisor struct {
	bots      []Bot
	client    *FixClient
	pnl       *pnlTracker
	streamURL string
	log       *zap.Logger
}

// NewSupervisor builds the default swarm. streamURL is the market
// data websocket, e.g. ws://localhost:5002/marketdata.
func NewSupervisor(client *FixClient, streamURL string, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{
		bots: []Bot{
			NewRandomBidBot(),
			NewRandomAskBot(),
			NewRandomBidBot(),
			NewRandomAskBot(),
			NewSpreadCaptureBot(),
		},
		client:    client,
		pnl:       &pnlTracker{},
		streamURL: streamURL,
		log:       log,
	}
}

// Start launches all bots and PnL monitoring until the context is
// cancelled.
func (s *Supervisor) Start(ctx context.Context) {
	logTicker := time.NewTicker(2 * time.Second)
	defer logTicker.Stop()

	for _, bot := range s.bots {
		b := bot
		go b.Start(ctx, s.client)
	}

	go s.consumeTrades(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-logTicker.C:
			position, cash := s.pnl.Snapshot()
			s.log.Info("pnl",
				zap.Int64("position", position),
				zap.String("cash", cash.String()))
		}
	}
}

// PnL reports the current position and cash.
func (s *Supervisor) PnL() (int64, decimal.Decimal) {
	return s.pnl.Snapshot()
}

func (s *Supervisor) consumeTrades(ctx context.Context) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		s.log.Warn("trade stream unavailable", zap.Error(err))
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	type envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil || env.Type != "TRADE" {
			continue
		}
		var trade engine.Trade
		if err := json.Unmarshal(env.Data, &trade); err != nil {
			continue
		}
		s.pnl.Record(trade, s.client)
	}
}

type pnlTracker struct {
	mu       sync.Mutex
	position int64
	cash     decimal.Decimal
}

func (p *pnlTracker) Record(trade engine.Trade, client OrderClient) {
	notional := trade.Price.Mul(decimal.NewFromInt(trade.Quantity))
	p.mu.Lock()
	defer p.mu.Unlock()
	if client.OwnsOrder(trade.BuyOrderID) {
		p.position += trade.Quantity
		p.cash = p.cash.Sub(notional)
	}
	if client.OwnsOrder(trade.SellOrderID) {
		p.position -= trade.Quantity
		p.cash = p.cash.Add(notional)
	}
}

func (p *pnlTracker) Snapshot() (int64, decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, p.cash
}
