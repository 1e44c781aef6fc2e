package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"mockexchange/engine"
)

// Message types carried in the websocket envelope.
const (
	TypeOrderBook = "ORDER_BOOK"
	TypeQuote     = "QUOTE"
	TypeTrade     = "TRADE"
)

// Envelope wraps every outbound market data frame.
type Envelope struct {
	Type      string      `json:"type"`
	Symbol    string      `json:"symbol"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Publisher periodically snapshots every order book and broadcasts
// depth and quote frames. Trades are pushed as they happen.
type Publisher struct {
	eng      *engine.MatchingEngine
	hub      *Hub
	feed     *TradeFeed
	interval time.Duration
	log      *zap.Logger
}

func NewPublisher(eng *engine.MatchingEngine, hub *Hub, feed *TradeFeed, interval time.Duration, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Publisher{
		eng:      eng,
		hub:      hub,
		feed:     feed,
		interval: interval,
		log:      log,
	}
}

// Run drives the periodic publication loop until the context is
// cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("market data publisher started", zap.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.log.Info("market data publisher stopped")
			return
		case <-ticker.C:
			p.PublishAll()
		}
	}
}

// PublishAll broadcasts one depth snapshot and one quote per symbol.
func (p *Publisher) PublishAll() {
	for _, symbol := range p.eng.Symbols() {
		if snapshot := p.eng.Snapshot(symbol); snapshot != nil {
			p.broadcast(Envelope{
				Type:      TypeOrderBook,
				Symbol:    symbol,
				Timestamp: snapshot.Timestamp,
				Data:      snapshot,
			})
		}
		if quote := p.eng.Quote(symbol); quote != nil {
			p.broadcast(Envelope{
				Type:      TypeQuote,
				Symbol:    symbol,
				Timestamp: time.Now(),
				Data:      quote,
			})
		}
	}
}

// PublishTrade pushes an execution to websocket subscribers and, when
// configured, the Kafka trade feed.
func (p *Publisher) PublishTrade(trade engine.Trade) {
	p.broadcast(Envelope{
		Type:      TypeTrade,
		Symbol:    trade.Symbol,
		Timestamp: trade.Timestamp,
		Data:      trade,
	})
	if p.feed != nil {
		p.feed.Publish(context.Background(), trade)
	}
}

func (p *Publisher) broadcast(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		p.log.Error("marshal market data frame", zap.String("type", env.Type), zap.Error(err))
		return
	}
	p.hub.Broadcast(payload)
}
