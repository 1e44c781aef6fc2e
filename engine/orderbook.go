package engine

import (
	"sync"
	"time"

	"github.com/samber/lo"
)

// OrderBook maintains bids and asks for a single symbol with
// price-time priority. All operations are serialized under a per-book
// mutex; the book is the unit of contention.
type OrderBook struct {
	symbol string

	mu   sync.Mutex
	bids *sideBook
	asks *sideBook

	// byID holds the current value of every order this book has
	// accepted, resting or not, for cancellation and post-trade lookup.
	byID map[int64]Order

	totalBuyOrders  int64
	totalSellOrders int64
}

// NewOrderBook builds an empty book for the symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol: symbol,
		bids:   newSideBook(Buy),
		asks:   newSideBook(Sell),
		byID:   make(map[int64]Order),
	}
}

func (ob *OrderBook) Symbol() string { return ob.symbol }

// Add matches the order against the opposite side and rests any limit
// residual. It returns the trades produced by this call, in execution
// order. Market residuals are discarded; the order's final state is
// recorded in the lookup map either way.
func (ob *OrderBook) Add(order Order) []Trade {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if order.Quantity <= 0 {
		return nil
	}

	// Stop orders are accepted but dormant until a trigger component
	// activates them. They never match or rest.
	if order.Type == Stop || order.Type == StopLimit {
		ob.byID[order.OrderID] = order
		return nil
	}

	trades := ob.match(order)

	totalFilled := lo.SumBy(trades, func(t Trade) int64 { return t.Quantity })
	updated := order
	if totalFilled > 0 {
		updated = order.WithFill(totalFilled)
	}

	if updated.Remaining > 0 && updated.Type == Limit {
		ob.sideOf(updated.Side).insert(updated)
		ob.bumpCounter(updated.Side, 1)
	}
	ob.byID[updated.OrderID] = updated

	return trades
}

// match walks the opposing ladder in priority order, trading against
// queue heads until the taker is exhausted or the price bound stops
// the cross. Trade price is always the resting order's price.
func (ob *OrderBook) match(taker Order) []Trade {
	var trades []Trade
	remaining := taker.Remaining
	opposite := ob.sideOf(oppositeSide(taker.Side))

	for remaining > 0 {
		level := opposite.best()
		if level == nil {
			break
		}
		if taker.Type == Limit {
			if taker.Side == Buy && level.price.GreaterThan(taker.Price) {
				break
			}
			if taker.Side == Sell && level.price.LessThan(taker.Price) {
				break
			}
		}

		maker := level.head()
		qty := min(remaining, maker.Remaining)

		var trade Trade
		if taker.Side == Buy {
			trade = newTrade(taker.OrderID, maker.OrderID, ob.symbol, level.price, qty, taker.ClientID, maker.ClientID)
		} else {
			trade = newTrade(maker.OrderID, taker.OrderID, ob.symbol, level.price, qty, maker.ClientID, taker.ClientID)
		}
		trades = append(trades, trade)
		remaining -= qty

		updatedMaker := maker.WithFill(qty)
		ob.byID[updatedMaker.OrderID] = updatedMaker
		if updatedMaker.Remaining == 0 {
			level.popHead()
			ob.bumpCounter(updatedMaker.Side, -1)
		} else {
			level.setHead(updatedMaker)
		}
		if level.empty() {
			opposite.removeLevel(level.price)
		}
	}

	return trades
}

// Cancel removes an active resting order and returns its state at
// removal, so callers see any fills that landed before the cancel.
// ok is false when the order is unknown, already terminal, or not
// resting in a ladder.
func (ob *OrderBook) Cancel(orderID int64) (Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.byID[orderID]
	if !ok || !order.Active() {
		return Order{}, false
	}
	if !ob.sideOf(order.Side).remove(order) {
		return Order{}, false
	}
	ob.bumpCounter(order.Side, -1)
	delete(ob.byID, orderID)
	return order, true
}

// Order returns the current value of an order this book has seen.
func (ob *OrderBook) Order(orderID int64) (Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	order, ok := ob.byID[orderID]
	return order, ok
}

// BestBid returns the top aggregated bid level.
func (ob *OrderBook) BestBid() (PriceLevel, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return aggregateBest(ob.bids)
}

// BestAsk returns the top aggregated ask level.
func (ob *OrderBook) BestAsk() (PriceLevel, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return aggregateBest(ob.asks)
}

// Snapshot captures the top maxLevels aggregated levels per side under
// the book lock, so no partial update can be observed.
func (ob *OrderBook) Snapshot(maxLevels int) Snapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return Snapshot{
		Symbol:    ob.symbol,
		Bids:      topLevels(ob.bids, maxLevels),
		Asks:      topLevels(ob.asks, maxLevels),
		Timestamp: time.Now(),
	}
}

// TotalBuyOrders reports the number of active resting buy orders.
func (ob *OrderBook) TotalBuyOrders() int64 {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.totalBuyOrders
}

// TotalSellOrders reports the number of active resting sell orders.
func (ob *OrderBook) TotalSellOrders() int64 {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.totalSellOrders
}

func (ob *OrderBook) sideOf(side Side) *sideBook {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) bumpCounter(side Side, delta int64) {
	if side == Buy {
		ob.totalBuyOrders += delta
	} else {
		ob.totalSellOrders += delta
	}
}

func oppositeSide(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}

func aggregateBest(book *sideBook) (PriceLevel, bool) {
	level := book.best()
	if level == nil {
		return PriceLevel{}, false
	}
	return PriceLevel{Price: level.price, Quantity: level.totalQuantity()}, true
}

func topLevels(book *sideBook, maxLevels int) []PriceLevel {
	levels := make([]PriceLevel, 0, maxLevels)
	book.walk(func(level *priceLevel) bool {
		if len(levels) >= maxLevels {
			return false
		}
		levels = append(levels, PriceLevel{Price: level.price, Quantity: level.totalQuantity()})
		return true
	})
	return levels
}
