package bots

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"mockexchange/engine"
)

// SpreadCaptureBot maintains paired bids/asks and re-prices when the
// mid moves.
type SpreadCaptureBot struct {
	Interval       time.Duration
	Lifetime       time.Duration
	ThresholdTicks int64
	Quantity       int64
}

type pairedOrders struct {
	buyID     string
	sellID    string
	anchorMid decimal.Decimal
	placedAt  time.Time
}

func NewSpreadCaptureBot() *SpreadCaptureBot {
	return &SpreadCaptureBot{
		Interval:       300 * time.Millisecond,
		Lifetime:       3 * time.Second,
		ThresholdTicks: 3,
		Quantity:       1,
	}
}

func (b *SpreadCaptureBot) Start(ctx context.Context, client OrderClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	var pair *pairedOrders
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			quote, err := client.Quote(ctx)
			if err != nil {
				continue
			}
			pair = b.refreshPair(ctx, client, quote, pair)
		}
	}
}

func (b *SpreadCaptureBot) refreshPair(ctx context.Context, client OrderClient, quote *engine.Quote, pair *pairedOrders) *pairedOrders {
	if quote == nil || quote.BidPrice == nil || quote.AskPrice == nil {
		return b.cancelPair(ctx, client, pair)
	}
	mid := quote.BidPrice.Add(*quote.AskPrice).Div(two)
	threshold := decimal.NewFromInt(b.ThresholdTicks).Mul(client.Tick())

	if pair != nil {
		if time.Since(pair.placedAt) > b.Lifetime {
			return b.cancelPair(ctx, client, pair)
		}
		if mid.Sub(pair.anchorMid).Abs().GreaterThanOrEqual(threshold) {
			pair = b.cancelPair(ctx, client, pair)
		}
	}

	if pair != nil {
		return pair
	}

	buyPrice := *quote.BidPrice
	if inside := mid.Sub(client.Tick()); inside.IsPositive() {
		buyPrice = inside
	}
	sellPrice := *quote.AskPrice
	if sellPrice.LessThanOrEqual(buyPrice) {
		sellPrice = buyPrice.Add(client.Tick())
	}

	buyID := client.NextID("spread-bid")
	sellID := client.NextID("spread-ask")

	if err := client.SubmitOrder(ctx, buyID, engine.Buy, engine.Limit, buyPrice, b.Quantity); err != nil {
		return pair
	}
	if err := client.SubmitOrder(ctx, sellID, engine.Sell, engine.Limit, sellPrice, b.Quantity); err != nil {
		_ = client.CancelOrder(ctx, buyID)
		return pair
	}

	return &pairedOrders{buyID: buyID, sellID: sellID, anchorMid: mid, placedAt: time.Now()}
}

func (b *SpreadCaptureBot) cancelPair(ctx context.Context, client OrderClient, pair *pairedOrders) *pairedOrders {
	if pair == nil {
		return nil
	}
	_ = client.CancelOrder(ctx, pair.buyID)
	_ = client.CancelOrder(ctx, pair.sellID)
	return nil
}
