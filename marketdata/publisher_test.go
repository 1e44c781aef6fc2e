package marketdata

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockexchange/engine"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type frame struct {
	Type      string          `json:"type"`
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn interface {
	SetReadDeadline(time.Time) error
	ReadMessage() (int, []byte, error)
}) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(payload, &f))
	return f
}

func TestPublishAllEmitsBookAndQuote(t *testing.T) {
	_, hub, eng, ts := newTestServer(t)

	eng.Submit(engine.NewOrder("BUY001", "AAPL", engine.Buy, engine.Limit, dec("149.00"), 100, "CLIENT1"))
	eng.Submit(engine.NewOrder("SELL001", "AAPL", engine.Sell, engine.Limit, dec("151.00"), 50, "CLIENT2"))

	conn := dialStream(t, ts)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	pub := NewPublisher(eng, hub, nil, 100*time.Millisecond, nil)
	pub.PublishAll()

	frames := map[string]frame{}
	for i := 0; i < 2; i++ {
		f := readFrame(t, conn)
		frames[f.Type] = f
	}

	book, ok := frames[TypeOrderBook]
	require.True(t, ok)
	assert.Equal(t, "AAPL", book.Symbol)

	var snapshot engine.Snapshot
	require.NoError(t, json.Unmarshal(book.Data, &snapshot))
	require.Len(t, snapshot.Bids, 1)
	require.Len(t, snapshot.Asks, 1)
	assert.True(t, snapshot.Bids[0].Price.Equal(dec("149.00")))
	assert.Equal(t, int64(50), snapshot.Asks[0].Quantity)

	quoteFrame, ok := frames[TypeQuote]
	require.True(t, ok)

	var quote engine.Quote
	require.NoError(t, json.Unmarshal(quoteFrame.Data, &quote))
	require.NotNil(t, quote.BidPrice)
	require.NotNil(t, quote.AskPrice)
	assert.True(t, quote.Spread.Equal(dec("2.00")))
}

func TestPublishTrade(t *testing.T) {
	_, hub, eng, ts := newTestServer(t)

	eng.Submit(engine.NewOrder("SELL001", "AAPL", engine.Sell, engine.Limit, dec("150.00"), 100, "CLIENT1"))
	result := eng.Submit(engine.NewOrder("BUY001", "AAPL", engine.Buy, engine.Limit, dec("150.00"), 100, "CLIENT2"))
	require.Len(t, result.Trades, 1)

	conn := dialStream(t, ts)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 },
		time.Second, 10*time.Millisecond)

	pub := NewPublisher(eng, hub, nil, 100*time.Millisecond, nil)
	pub.PublishTrade(result.Trades[0])

	f := readFrame(t, conn)
	assert.Equal(t, TypeTrade, f.Type)
	assert.Equal(t, "AAPL", f.Symbol)

	var trade engine.Trade
	require.NoError(t, json.Unmarshal(f.Data, &trade))
	assert.Equal(t, result.Trades[0].TradeID, trade.TradeID)
	assert.True(t, trade.Price.Equal(dec("150.00")))
	assert.Equal(t, int64(100), trade.Quantity)
}

func TestBookEndpoint(t *testing.T) {
	_, _, eng, ts := newTestServer(t)

	eng.Submit(engine.NewOrder("BUY001", "AAPL", engine.Buy, engine.Limit, dec("149.00"), 100, "CLIENT1"))

	resp, err := http.Get(ts.URL + "/book?symbol=AAPL")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot engine.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Equal(t, "AAPL", snapshot.Symbol)
	require.Len(t, snapshot.Bids, 1)

	missing, err := http.Get(ts.URL + "/book?symbol=NFLX")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	bad, err := http.Get(ts.URL + "/book")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	_, _, eng, ts := newTestServer(t)

	eng.Submit(engine.NewOrder("SELL001", "AAPL", engine.Sell, engine.Limit, dec("150.00"), 100, "CLIENT1"))
	eng.Submit(engine.NewOrder("BUY001", "AAPL", engine.Buy, engine.Limit, dec("150.00"), 100, "CLIENT2"))

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, float64(2), stats["totalOrders"])
	assert.Equal(t, float64(1), stats["totalTrades"])
	assert.Equal(t, float64(0), stats["subscribers"])
}
