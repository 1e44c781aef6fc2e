package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, symbols ...string) *MatchingEngine {
	t.Helper()
	if len(symbols) == 0 {
		symbols = []string{"AAPL", "MSFT"}
	}
	return NewMatchingEngine(Config{Symbols: symbols, MaxDepthLevels: 10}, nil)
}

func TestSubmitUnknownSymbol(t *testing.T) {
	eng := newTestEngine(t)

	order := NewOrder("CL001", "NFLX", Buy, Limit, dec("100.00"), 10, "CLIENT1")
	result := eng.Submit(order)

	assert.True(t, result.Rejected())
	assert.Equal(t, "Unknown symbol", result.Err)
	assert.Equal(t, StatusRejected, result.Order.Status)
	assert.Empty(t, result.Trades)
}

func TestSubmitValidationReasons(t *testing.T) {
	eng := newTestEngine(t)

	cases := []struct {
		name   string
		order  Order
		reason string
	}{
		{
			name:   "non-positive quantity",
			order:  NewOrder("CL001", "AAPL", Buy, Limit, dec("100.00"), 0, "CLIENT1"),
			reason: "Invalid quantity: 0",
		},
		{
			name:   "non-positive limit price",
			order:  NewOrder("CL002", "AAPL", Buy, Limit, dec("0"), 10, "CLIENT1"),
			reason: "Invalid price for limit order: 0",
		},
		{
			name:   "missing client order id",
			order:  NewOrder("", "AAPL", Buy, Limit, dec("100.00"), 10, "CLIENT1"),
			reason: "Missing client order ID",
		},
		{
			name:   "missing client id",
			order:  NewOrder("CL004", "AAPL", Buy, Limit, dec("100.00"), 10, ""),
			reason: "Missing client ID",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := eng.Submit(tc.order)
			assert.True(t, result.Rejected())
			assert.Equal(t, tc.reason, result.Err)
			assert.Equal(t, StatusRejected, result.Order.Status)
		})
	}

	// Rejections mutate nothing and count nothing.
	assert.Equal(t, int64(0), eng.Stats().TotalOrders)
	assert.Empty(t, eng.Snapshot("AAPL").Bids)
}

func TestMarketOrderSkipsPriceValidation(t *testing.T) {
	eng := newTestEngine(t)

	order := NewOrder("CL001", "AAPL", Buy, Market, dec("0"), 10, "CLIENT1")
	result := eng.Submit(order)

	assert.False(t, result.Rejected())
}

func TestCompleteTradingScenario(t *testing.T) {
	eng := newTestEngine(t)

	sell := NewOrder("SELL001", "AAPL", Sell, Limit, dec("150.00"), 100, "CLIENT1")
	sellResult := eng.Submit(sell)
	require.False(t, sellResult.Rejected())
	assert.Empty(t, sellResult.Trades)
	assert.Equal(t, StatusNew, sellResult.Order.Status)

	buy := NewOrder("BUY001", "AAPL", Buy, Limit, dec("150.00"), 100, "CLIENT2")
	buyResult := eng.Submit(buy)
	require.False(t, buyResult.Rejected())
	require.Len(t, buyResult.Trades, 1)

	trade := buyResult.Trades[0]
	assert.True(t, trade.Price.Equal(dec("150.00")))
	assert.Equal(t, int64(100), trade.Quantity)
	assert.Equal(t, "AAPL", trade.Symbol)
	assert.Equal(t, buy.OrderID, trade.BuyOrderID)
	assert.Equal(t, sell.OrderID, trade.SellOrderID)
	assert.Equal(t, "CLIENT2", trade.BuyClientID)
	assert.Equal(t, "CLIENT1", trade.SellClientID)

	assert.True(t, buyResult.Order.IsFilled())
	updatedSell, ok := eng.Book("AAPL").Order(sell.OrderID)
	require.True(t, ok)
	assert.True(t, updatedSell.IsFilled())

	snapshot := eng.Snapshot("AAPL")
	require.NotNil(t, snapshot)
	assert.Empty(t, snapshot.Bids)
	assert.Empty(t, snapshot.Asks)

	msft := NewOrder("MSFT001", "MSFT", Buy, Limit, dec("200.00"), 50, "CLIENT3")
	msftResult := eng.Submit(msft)
	require.False(t, msftResult.Rejected())
	assert.Empty(t, msftResult.Trades)

	stats := eng.Stats()
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.TotalTrades)
	assert.Equal(t, int64(1), stats.TotalBuyOrders)
	assert.Equal(t, int64(0), stats.TotalSellOrders)
	assert.Equal(t, 2, stats.ActiveSymbols)
}

func TestCancelThroughEngine(t *testing.T) {
	eng := newTestEngine(t)

	order := NewOrder("ORDER001", "AAPL", Buy, Limit, dec("150.00"), 100, "CLIENT1")
	eng.Submit(order)
	require.Len(t, eng.Snapshot("AAPL").Bids, 1)

	assert.True(t, eng.Cancel("AAPL", order.OrderID))
	assert.Empty(t, eng.Snapshot("AAPL").Bids)
	assert.False(t, eng.Cancel("AAPL", order.OrderID))
	assert.False(t, eng.Cancel("NFLX", order.OrderID))
}

func TestQuoteGeneration(t *testing.T) {
	eng := newTestEngine(t)

	eng.Submit(NewOrder("BUY001", "AAPL", Buy, Limit, dec("149.00"), 100, "CLIENT1"))
	eng.Submit(NewOrder("SELL001", "AAPL", Sell, Limit, dec("151.00"), 100, "CLIENT2"))

	quote := eng.Quote("AAPL")
	require.NotNil(t, quote)
	assert.Equal(t, "AAPL", quote.Symbol)
	require.NotNil(t, quote.BidPrice)
	require.NotNil(t, quote.AskPrice)
	assert.True(t, quote.BidPrice.Equal(dec("149.00")))
	assert.True(t, quote.AskPrice.Equal(dec("151.00")))
	assert.Equal(t, int64(100), quote.BidQuantity)
	assert.Equal(t, int64(100), quote.AskQuantity)
	assert.True(t, quote.Spread.Equal(dec("2.00")))
}

func TestQuoteWithEmptySides(t *testing.T) {
	eng := newTestEngine(t)

	quote := eng.Quote("AAPL")
	require.NotNil(t, quote)
	assert.Nil(t, quote.BidPrice)
	assert.Nil(t, quote.AskPrice)
	assert.True(t, quote.Spread.IsZero())

	eng.Submit(NewOrder("BUY001", "AAPL", Buy, Limit, dec("149.00"), 100, "CLIENT1"))
	quote = eng.Quote("AAPL")
	require.NotNil(t, quote.BidPrice)
	assert.Nil(t, quote.AskPrice)
	assert.True(t, quote.Spread.IsZero())

	assert.Nil(t, eng.Quote("NFLX"))
	assert.Nil(t, eng.Snapshot("NFLX"))
}

func TestConcurrentSubmissionsAcrossSymbols(t *testing.T) {
	eng := newTestEngine(t, "AAPL", "MSFT", "GOOGL", "TSLA")
	symbols := eng.Symbols()

	const perSymbol = 200
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		symbol := symbol
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSymbol; i++ {
				side := Buy
				if i%2 == 0 {
					side = Sell
				}
				order := NewOrder(fmt.Sprintf("%s-%d", symbol, i), symbol, side, Limit, dec("100.00"), 10, "CLIENT1")
				result := eng.Submit(order)
				if result.Rejected() {
					t.Errorf("unexpected rejection: %s", result.Err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stats := eng.Stats()
	assert.Equal(t, int64(len(symbols)*perSymbol), stats.TotalOrders)

	// Each symbol alternates sell/buy at a single price, so every buy
	// consumes the sell before it and the books drain completely.
	for _, symbol := range symbols {
		snapshot := eng.Snapshot(symbol)
		assert.Empty(t, snapshot.Bids, symbol)
		assert.Empty(t, snapshot.Asks, symbol)
	}
	assert.Equal(t, int64(len(symbols)*perSymbol/2), stats.TotalTrades)
}
