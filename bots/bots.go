package bots

import (
	"context"

	"github.com/shopspring/decimal"

	"mockexchange/engine"
)

// Bot represents a trading agent that can be run under a supervisor.
type Bot interface {
	Start(ctx context.Context, client OrderClient)
}

// OrderClient abstracts the minimal surface bots need from the
// exchange: order entry plus a view of the current quote.
type OrderClient interface {
	SubmitOrder(ctx context.Context, clOrdID string, side engine.Side, ordType engine.OrderType, price decimal.Decimal, quantity int64) error
	CancelOrder(ctx context.Context, origClOrdID string) error
	Quote(ctx context.Context) (*engine.Quote, error)
	Symbol() string
	Tick() decimal.Decimal
	NextID(prefix string) string
	OwnsOrder(orderID int64) bool
}
