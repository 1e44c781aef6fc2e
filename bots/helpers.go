package bots

import (
	"github.com/shopspring/decimal"

	"mockexchange/engine"
)

var two = decimal.NewFromInt(2)

func midPrice(quote *engine.Quote) decimal.Decimal {
	switch {
	case quote == nil:
		return decimal.Zero
	case quote.BidPrice != nil && quote.AskPrice != nil:
		return quote.BidPrice.Add(*quote.AskPrice).Div(two)
	case quote.BidPrice != nil:
		return *quote.BidPrice
	case quote.AskPrice != nil:
		return *quote.AskPrice
	default:
		return decimal.Zero
	}
}
