package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config controls the symbol universe and book parameters.
type Config struct {
	Symbols         []string
	MaxDepthLevels  int
	VerboseMatching bool
}

// MatchingEngine routes orders to per-symbol books. The book map is
// populated at construction and read-only afterwards, so lookups need
// no locking; each book serializes its own operations.
type MatchingEngine struct {
	cfg   Config
	log   *zap.Logger
	books map[string]*OrderBook

	totalOrders atomic.Int64
	totalTrades atomic.Int64
}

// NewMatchingEngine eagerly creates one book per configured symbol.
func NewMatchingEngine(cfg Config, log *zap.Logger) *MatchingEngine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxDepthLevels <= 0 {
		cfg.MaxDepthLevels = 10
	}

	books := make(map[string]*OrderBook, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		books[symbol] = NewOrderBook(symbol)
		log.Info("initialized order book", zap.String("symbol", symbol))
	}

	return &MatchingEngine{cfg: cfg, log: log, books: books}
}

// Submit validates and executes one order. Validation failures are not
// errors in the Go sense: the returned result carries a REJECTED order
// and a human-readable reason, and no book state changes.
func (e *MatchingEngine) Submit(order Order) Result {
	book, ok := e.books[order.Symbol]
	if !ok {
		e.log.Warn("rejected order for unknown symbol", zap.String("symbol", order.Symbol))
		return Result{Order: order.WithReject(), Err: "Unknown symbol"}
	}

	if reason := validate(order); reason != "" {
		e.log.Warn("rejected order", zap.String("reason", reason))
		return Result{Order: order.WithReject(), Err: reason}
	}

	trades := book.Add(order)

	updated, ok := book.Order(order.OrderID)
	if !ok {
		updated = order
	}

	e.totalOrders.Add(1)
	e.totalTrades.Add(int64(len(trades)))

	if e.cfg.VerboseMatching {
		e.log.Info("processed order",
			zap.Int64("orderId", updated.OrderID),
			zap.String("status", updated.Status.String()),
			zap.Int("trades", len(trades)))
		for _, trade := range trades {
			e.log.Info("trade executed",
				zap.Int64("tradeId", trade.TradeID),
				zap.String("symbol", trade.Symbol),
				zap.String("price", trade.Price.String()),
				zap.Int64("quantity", trade.Quantity))
		}
	}

	return Result{Order: updated, Trades: trades}
}

// Cancel removes an active order from its book. False means unknown
// symbol, unknown order, or an order no longer active.
func (e *MatchingEngine) Cancel(symbol string, orderID int64) bool {
	book, ok := e.books[symbol]
	if !ok {
		e.log.Warn("cannot cancel order for unknown symbol", zap.String("symbol", symbol))
		return false
	}
	_, cancelled := book.Cancel(orderID)
	if cancelled && e.cfg.VerboseMatching {
		e.log.Info("cancelled order", zap.String("symbol", symbol), zap.Int64("orderId", orderID))
	}
	return cancelled
}

// Snapshot returns the depth snapshot for a symbol, or nil for an
// unknown symbol.
func (e *MatchingEngine) Snapshot(symbol string) *Snapshot {
	book, ok := e.books[symbol]
	if !ok {
		return nil
	}
	snapshot := book.Snapshot(e.cfg.MaxDepthLevels)
	return &snapshot
}

// Quote returns the top of book for a symbol, or nil for an unknown
// symbol. Sides with no orders have nil prices; the spread is zero
// unless both sides are present.
func (e *MatchingEngine) Quote(symbol string) *Quote {
	book, ok := e.books[symbol]
	if !ok {
		return nil
	}

	quote := Quote{Symbol: symbol}
	if bid, ok := book.BestBid(); ok {
		price := bid.Price
		quote.BidPrice = &price
		quote.BidQuantity = bid.Quantity
	}
	if ask, ok := book.BestAsk(); ok {
		price := ask.Price
		quote.AskPrice = &price
		quote.AskQuantity = ask.Quantity
	}
	if quote.BidPrice != nil && quote.AskPrice != nil {
		quote.Spread = quote.AskPrice.Sub(*quote.BidPrice)
	}
	return &quote
}

// Stats aggregates engine counters and per-book resting totals.
func (e *MatchingEngine) Stats() Stats {
	var buys, sells int64
	for _, book := range e.books {
		buys += book.TotalBuyOrders()
		sells += book.TotalSellOrders()
	}
	return Stats{
		TotalOrders:     e.totalOrders.Load(),
		TotalTrades:     e.totalTrades.Load(),
		TotalBuyOrders:  buys,
		TotalSellOrders: sells,
		ActiveSymbols:   len(e.books),
	}
}

// Symbols lists the configured symbol universe.
func (e *MatchingEngine) Symbols() []string {
	return e.cfg.Symbols
}

// Book exposes the order book for a symbol, or nil when unknown.
func (e *MatchingEngine) Book(symbol string) *OrderBook {
	return e.books[symbol]
}

func validate(order Order) string {
	if order.Quantity <= 0 {
		return fmt.Sprintf("Invalid quantity: %d", order.Quantity)
	}
	if order.Type == Limit && order.Price.Cmp(decimal.Zero) <= 0 {
		return fmt.Sprintf("Invalid price for limit order: %s", order.Price)
	}
	if order.ClientOrderID == "" {
		return "Missing client order ID"
	}
	if order.ClientID == "" {
		return "Missing client ID"
	}
	return ""
}
