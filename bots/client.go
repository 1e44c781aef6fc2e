package bots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mockexchange/engine"
	"mockexchange/fix"
)

type trackedOrder struct {
	orderID int64
	side    engine.Side
}

// FixClient drives one FIX session plus the market data snapshot
// endpoint, with basic rate limiting and order bookkeeping. The FIX
// session is request/response, so every call is serialized.
type FixClient struct {
	session  *fix.Client
	http     *http.Client
	bookURL  string
	account  string
	symbol   string
	tick     decimal.Decimal
	throttle <-chan time.Time

	mu       sync.Mutex
	orderSeq int64
	orders   map[string]trackedOrder
	owned    map[int64]struct{}
}

// NewFixClient wraps an established FIX session. bookURL is the base
// URL of the market data server, e.g. http://localhost:5002.
func NewFixClient(session *fix.Client, bookURL, account, symbol string, tick decimal.Decimal, throttle <-chan time.Time) *FixClient {
	return &FixClient{
		session:  session,
		http:     &http.Client{Timeout: 2 * time.Second},
		bookURL:  bookURL,
		account:  account,
		symbol:   symbol,
		tick:     tick,
		throttle: throttle,
		orders:   make(map[string]trackedOrder),
		owned:    make(map[int64]struct{}),
	}
}

func (c *FixClient) waitThrottle(ctx context.Context) error {
	if c.throttle == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.throttle:
		return nil
	}
}

func (c *FixClient) SubmitOrder(ctx context.Context, clOrdID string, side engine.Side, ordType engine.OrderType, price decimal.Decimal, quantity int64) error {
	if err := c.waitThrottle(ctx); err != nil {
		return err
	}
	if price.IsPositive() && c.tick.IsPositive() {
		price = price.Div(c.tick).Floor().Mul(c.tick)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg := fix.NewOrderSingle(clOrdID, c.account, c.symbol, fix.SideValue(side), fix.OrdTypeValue(ordType), quantity, price)
	if err := c.session.Send(msg); err != nil {
		return err
	}

	report, err := c.session.RecvApp()
	if err != nil {
		return err
	}
	if status, _ := report.Get(fix.TagOrdStatus); status == "8" {
		text, _ := report.Get(fix.TagText)
		return fmt.Errorf("order rejected: %s", text)
	}

	orderID, err := report.GetInt(fix.TagOrderID)
	if err != nil {
		return err
	}
	c.orders[clOrdID] = trackedOrder{orderID: orderID, side: side}
	c.owned[orderID] = struct{}{}
	return nil
}

func (c *FixClient) CancelOrder(ctx context.Context, origClOrdID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tracked, ok := c.orders[origClOrdID]
	if !ok {
		return fmt.Errorf("unknown order %s", origClOrdID)
	}

	c.orderSeq++
	cancelID := fmt.Sprintf("%s-cxl-%d", c.account, c.orderSeq)
	msg := fix.OrderCancelRequest(cancelID, origClOrdID, c.symbol, fix.SideValue(tracked.side))
	if err := c.session.Send(msg); err != nil {
		return err
	}

	reply, err := c.session.RecvApp()
	if err != nil {
		return err
	}
	if reply.Type == fix.MsgTypeOrderCancelReject {
		text, _ := reply.Get(fix.TagText)
		return fmt.Errorf("cancel rejected: %s", text)
	}
	return nil
}

// Quote fetches the current depth snapshot and reduces it to a top of
// book quote.
func (c *FixClient) Quote(ctx context.Context) (*engine.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bookURL+"/book?symbol="+c.symbol, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("book snapshot: status %d", resp.StatusCode)
	}

	var snapshot engine.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, err
	}

	quote := &engine.Quote{Symbol: snapshot.Symbol}
	if len(snapshot.Bids) > 0 {
		best := snapshot.Bids[0]
		quote.BidPrice = &best.Price
		quote.BidQuantity = best.Quantity
	}
	if len(snapshot.Asks) > 0 {
		best := snapshot.Asks[0]
		quote.AskPrice = &best.Price
		quote.AskQuantity = best.Quantity
	}
	return quote, nil
}

func (c *FixClient) Symbol() string {
	return c.symbol
}

func (c *FixClient) Tick() decimal.Decimal {
	return c.tick
}

func (c *FixClient) NextID(prefix string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderSeq++
	return fmt.Sprintf("%s-%s-%d", c.account, prefix, c.orderSeq)
}

func (c *FixClient) OwnsOrder(orderID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.owned[orderID]
	return ok
}
