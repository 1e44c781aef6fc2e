package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order.
type Side int

const (
	// Buy indicates a bid order.
	Buy Side = iota
	// Sell indicates an ask order.
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// OrderType represents the execution style for an order.
type OrderType int

const (
	// Market orders consume available liquidity immediately.
	Market OrderType = iota
	// Limit orders rest on the book until filled or cancelled.
	Limit
	// Stop and StopLimit are accepted but never activated by this engine.
	Stop
	StopLimit
)

func (t OrderType) String() string {
	switch t {
	case Market:
		return "MARKET"
	case Limit:
		return "LIMIT"
	case Stop:
		return "STOP"
	default:
		return "STOP_LIMIT"
	}
}

// OrderStatus tracks the lifecycle of an order.
type OrderStatus int

const (
	StatusNew OrderStatus = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusRejected
	StatusPendingCancel
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusRejected:
		return "REJECTED"
	default:
		return "PENDING_CANCEL"
	}
}

var (
	orderIDSeq atomic.Int64
	tradeIDSeq atomic.Int64
)

// Order is an immutable trading order. Lifecycle transitions return a
// new value; identity is carried by OrderID, assigned from a
// process-wide atomic sequence at creation.
type Order struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	Remaining     int64           `json:"remainingQuantity"`
	ClientID      string          `json:"clientId"`
	Timestamp     time.Time       `json:"timestamp"`
	Status        OrderStatus     `json:"status"`
}

// NewOrder builds a NEW order with the next engine order ID.
func NewOrder(clientOrderID, symbol string, side Side, typ OrderType, price decimal.Decimal, quantity int64, clientID string) Order {
	return Order{
		OrderID:       orderIDSeq.Add(1),
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		Type:          typ,
		Price:         price,
		Quantity:      quantity,
		Remaining:     quantity,
		ClientID:      clientID,
		Timestamp:     time.Now(),
		Status:        StatusNew,
	}
}

// WithFill returns a copy with qty removed from the remaining
// quantity. Remaining never goes below zero.
func (o Order) WithFill(qty int64) Order {
	remaining := o.Remaining - qty
	if remaining < 0 {
		remaining = 0
	}
	o.Remaining = remaining
	if remaining == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	return o
}

// WithCancel returns a CANCELLED copy; remaining quantity is untouched.
func (o Order) WithCancel() Order {
	o.Status = StatusCancelled
	return o
}

// WithReject returns a REJECTED copy; remaining quantity is untouched.
func (o Order) WithReject() Order {
	o.Status = StatusRejected
	return o
}

// FilledQuantity is the cumulative executed quantity.
func (o Order) FilledQuantity() int64 {
	return o.Quantity - o.Remaining
}

// Active reports whether the order may still rest or match.
func (o Order) Active() bool {
	return o.Status == StatusNew || o.Status == StatusPartiallyFilled
}

func (o Order) IsFilled() bool { return o.Status == StatusFilled }

func (o Order) String() string {
	return fmt.Sprintf("Order{id=%d clOrdID=%s %s %s %s %s qty=%d rem=%d status=%s}",
		o.OrderID, o.ClientOrderID, o.Symbol, o.Side, o.Type, o.Price, o.Quantity, o.Remaining, o.Status)
}

// ResetSequencesForTesting rewinds the order and trade ID counters so
// tests can assert on absolute IDs.
func ResetSequencesForTesting() {
	orderIDSeq.Store(0)
	tradeIDSeq.Store(0)
}
