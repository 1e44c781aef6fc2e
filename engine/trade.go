package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable execution between a buy and a sell order. The
// price is always the resting (maker) order's price.
type Trade struct {
	TradeID      int64           `json:"tradeId"`
	BuyOrderID   int64           `json:"buyOrderId"`
	SellOrderID  int64           `json:"sellOrderId"`
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int64           `json:"quantity"`
	Timestamp    time.Time       `json:"timestamp"`
	BuyClientID  string          `json:"-"`
	SellClientID string          `json:"-"`
}

func newTrade(buyOrderID, sellOrderID int64, symbol string, price decimal.Decimal, quantity int64, buyClientID, sellClientID string) Trade {
	return Trade{
		TradeID:      tradeIDSeq.Add(1),
		BuyOrderID:   buyOrderID,
		SellOrderID:  sellOrderID,
		Symbol:       symbol,
		Price:        price,
		Quantity:     quantity,
		Timestamp:    time.Now(),
		BuyClientID:  buyClientID,
		SellClientID: sellClientID,
	}
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade{id=%d %s %s x%d buy=%d sell=%d}",
		t.TradeID, t.Symbol, t.Price, t.Quantity, t.BuyOrderID, t.SellOrderID)
}
