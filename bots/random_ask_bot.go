package bots

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"mockexchange/engine"
)

// RandomAskBot places short-lived limit asks around the mid price.
type RandomAskBot struct {
	Interval       time.Duration
	Lifetime       time.Duration
	Quantity       int64
	RangeTicks     int64
	ReferencePrice decimal.Decimal
	rand           *rand.Rand
}

func NewRandomAskBot() *RandomAskBot {
	return &RandomAskBot{
		Interval:       200 * time.Millisecond,
		Lifetime:       2 * time.Second,
		Quantity:       1,
		RangeTicks:     5,
		ReferencePrice: decimal.NewFromInt(100),
		rand:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *RandomAskBot) Start(ctx context.Context, client OrderClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.placeAsk(ctx, client)
		}
	}
}

func (b *RandomAskBot) placeAsk(ctx context.Context, client OrderClient) {
	quote, err := client.Quote(ctx)
	if err != nil {
		return
	}
	mid := midPrice(quote)
	if !mid.IsPositive() {
		mid = b.ReferencePrice
	}

	delta := decimal.NewFromInt(b.rand.Int63n(b.RangeTicks + 1)).Mul(client.Tick())
	price := mid.Add(delta)

	id := client.NextID("ask")
	if err := client.SubmitOrder(ctx, id, engine.Sell, engine.Limit, price, b.Quantity); err != nil {
		return
	}

	go b.cancelAfter(ctx, client, id)
}

func (b *RandomAskBot) cancelAfter(ctx context.Context, client OrderClient, orderID string) {
	timer := time.NewTimer(b.Lifetime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		_ = client.CancelOrder(context.Background(), orderID)
	}
}
