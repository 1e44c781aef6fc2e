package bots

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"mockexchange/engine"
)

// RandomBidBot places short-lived limit bids around the mid price.
type RandomBidBot struct {
	Interval       time.Duration
	Lifetime       time.Duration
	Quantity       int64
	RangeTicks     int64
	ReferencePrice decimal.Decimal
	rand           *rand.Rand
}

func NewRandomBidBot() *RandomBidBot {
	return &RandomBidBot{
		Interval:       200 * time.Millisecond,
		Lifetime:       2 * time.Second,
		Quantity:       1,
		RangeTicks:     5,
		ReferencePrice: decimal.NewFromInt(100),
		rand:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *RandomBidBot) Start(ctx context.Context, client OrderClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.placeBid(ctx, client)
		}
	}
}

func (b *RandomBidBot) placeBid(ctx context.Context, client OrderClient) {
	quote, err := client.Quote(ctx)
	if err != nil {
		return
	}
	mid := midPrice(quote)
	if !mid.IsPositive() {
		// Empty book: seed it near the reference price.
		mid = b.ReferencePrice
	}

	delta := decimal.NewFromInt(b.rand.Int63n(b.RangeTicks + 1)).Mul(client.Tick())
	price := mid.Sub(delta)
	if !price.IsPositive() {
		price = client.Tick()
	}

	id := client.NextID("bid")
	if err := client.SubmitOrder(ctx, id, engine.Buy, engine.Limit, price, b.Quantity); err != nil {
		return
	}

	go b.cancelAfter(ctx, client, id)
}

func (b *RandomBidBot) cancelAfter(ctx context.Context, client OrderClient, orderID string) {
	timer := time.NewTimer(b.Lifetime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		_ = client.CancelOrder(context.Background(), orderID)
	}
}
