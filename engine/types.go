package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel aggregates remaining quantity across all orders resting
// at one price.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// Snapshot is a point-in-time depth view of one symbol's book. Bids
// are ordered highest price first, asks lowest first, both capped at
// the configured number of levels.
type Snapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// Quote is the top of book for one symbol. A nil price means that side
// of the book is empty.
type Quote struct {
	Symbol      string           `json:"symbol"`
	BidPrice    *decimal.Decimal `json:"bidPrice"`
	BidQuantity int64            `json:"bidQuantity"`
	AskPrice    *decimal.Decimal `json:"askPrice"`
	AskQuantity int64            `json:"askQuantity"`
	Spread      decimal.Decimal  `json:"spread"`
}

// Result is the outcome of submitting one order: the post-match order
// state, the trades produced by the call, and a rejection reason when
// validation failed.
type Result struct {
	Order  Order
	Trades []Trade
	Err    string
}

// Rejected reports whether the submission was refused.
func (r Result) Rejected() bool {
	return r.Err != ""
}

// Stats summarizes engine-wide activity.
type Stats struct {
	TotalOrders     int64 `json:"totalOrders"`
	TotalTrades     int64 `json:"totalTrades"`
	TotalBuyOrders  int64 `json:"totalBuyOrders"`
	TotalSellOrders int64 `json:"totalSellOrders"`
	ActiveSymbols   int   `json:"activeSymbols"`
}
