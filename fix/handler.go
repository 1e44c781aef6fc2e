package fix

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mockexchange/engine"
)

var validate = validator.New()

// newOrderFields covers the format checks the engine does not make:
// side and order type must be legal FIX enumerations.
type newOrderFields struct {
	Side    string `validate:"required,oneof=1 2"`
	OrdType string `validate:"required,oneof=1 2 3 4"`
}

func (a *Acceptor) handleNewOrder(sess *Session, msg *Message) {
	clOrdID, _ := msg.Get(TagClOrdID)
	symbol, _ := msg.Get(TagSymbol)
	account, _ := msg.Get(TagAccount)
	sideValue, _ := msg.Get(TagSide)
	typeValue, _ := msg.Get(TagOrdType)

	fields := newOrderFields{Side: sideValue, OrdType: typeValue}
	if err := validate.Struct(fields); err != nil {
		a.sendOrderReject(sess, clOrdID, symbol, sideValue, "Malformed order fields")
		return
	}

	quantity, err := msg.GetInt(TagOrderQty)
	if err != nil {
		a.sendOrderReject(sess, clOrdID, symbol, sideValue, "Malformed OrderQty")
		return
	}

	price := decimal.Zero
	if raw, ok := msg.Get(TagPrice); ok {
		price, err = decimal.NewFromString(raw)
		if err != nil {
			a.sendOrderReject(sess, clOrdID, symbol, sideValue, "Malformed Price")
			return
		}
	}

	order := engine.NewOrder(clOrdID, symbol, parseSide(sideValue), parseOrdType(typeValue), price, quantity, account)
	result := a.eng.Submit(order)

	if result.Rejected() {
		a.log.Info("order rejected",
			zap.String("clientOrderId", clOrdID),
			zap.String("reason", result.Err))
		a.sendReport(sess, executionReport(result.Order, nil, result.Err))
		return
	}

	sess.trackOrder(clOrdID, symbol, result.Order.OrderID)
	a.sendReport(sess, executionReport(result.Order, result.Trades, ""))

	if a.pub != nil {
		for _, trade := range result.Trades {
			a.pub.PublishTrade(trade)
		}
	}
}

func (a *Acceptor) handleCancel(sess *Session, msg *Message) {
	clOrdID, _ := msg.Get(TagClOrdID)
	origClOrdID, _ := msg.Get(TagOrigClOrdID)

	ref, ok := sess.lookupOrder(origClOrdID)
	if !ok {
		a.sendCancelReject(sess, clOrdID, origClOrdID, "Unknown original client order ID")
		return
	}

	removed, ok := a.eng.Book(ref.symbol).Cancel(ref.orderID)
	if !ok {
		a.sendCancelReject(sess, clOrdID, origClOrdID, "Order is not active")
		return
	}

	cancelled := removed.WithCancel()
	cancelled.ClientOrderID = clOrdID
	a.sendReport(sess, executionReport(cancelled, nil, ""))
	a.log.Info("order cancelled",
		zap.String("clientOrderId", clOrdID),
		zap.Int64("orderId", ref.orderID))
}

func (a *Acceptor) sendReport(sess *Session, report *Message) {
	if err := sess.send(report); err != nil {
		a.log.Warn("send execution report failed", zap.Error(err))
	}
}

func (a *Acceptor) sendOrderReject(sess *Session, clOrdID, symbol, side, text string) {
	report := NewMessage(MsgTypeExecutionReport).
		Set(TagOrderID, "0").
		Set(TagClOrdID, clOrdID).
		Set(TagExecID, uuid.NewString()).
		Set(TagExecType, statusChar(engine.StatusRejected)).
		Set(TagOrdStatus, statusChar(engine.StatusRejected)).
		Set(TagSymbol, symbol).
		Set(TagSide, side).
		Set(TagText, text)
	a.sendReport(sess, report)
}

func (a *Acceptor) sendCancelReject(sess *Session, clOrdID, origClOrdID, text string) {
	reject := NewMessage(MsgTypeOrderCancelReject).
		Set(TagOrderID, "0").
		Set(TagClOrdID, clOrdID).
		Set(TagOrigClOrdID, origClOrdID).
		Set(TagOrdStatus, statusChar(engine.StatusRejected)).
		Set(TagCxlRejResponseTo, "1").
		Set(TagText, text)
	if err := sess.send(reject); err != nil {
		a.log.Warn("send cancel reject failed", zap.Error(err))
	}
}

func executionReport(order engine.Order, trades []engine.Trade, text string) *Message {
	report := NewMessage(MsgTypeExecutionReport).
		Set(TagOrderID, itoa(order.OrderID)).
		Set(TagClOrdID, order.ClientOrderID).
		Set(TagExecID, uuid.NewString()).
		Set(TagExecType, statusChar(order.Status)).
		Set(TagOrdStatus, statusChar(order.Status)).
		Set(TagSymbol, order.Symbol).
		Set(TagSide, sideChar(order.Side)).
		SetInt(TagOrderQty, order.Quantity).
		SetInt(TagLeavesQty, order.Remaining).
		SetInt(TagCumQty, order.FilledQuantity()).
		Set(TagAvgPx, avgPx(trades).String())

	if len(trades) > 0 {
		last := trades[len(trades)-1]
		report.Set(TagLastPx, last.Price.String()).SetInt(TagLastQty, last.Quantity)
	}
	if text != "" {
		report.Set(TagText, text)
	}
	return report
}

// avgPx is the quantity-weighted average execution price, zero when
// nothing traded.
func avgPx(trades []engine.Trade) decimal.Decimal {
	filled := lo.SumBy(trades, func(t engine.Trade) int64 { return t.Quantity })
	if filled == 0 {
		return decimal.Zero
	}
	notional := lo.Reduce(trades, func(acc decimal.Decimal, t engine.Trade, _ int) decimal.Decimal {
		return acc.Add(t.Price.Mul(decimal.NewFromInt(t.Quantity)))
	}, decimal.Zero)
	return notional.Div(decimal.NewFromInt(filled))
}

// SideValue returns the FIX Side(54) encoding.
func SideValue(side engine.Side) string {
	return sideChar(side)
}

// OrdTypeValue returns the FIX OrdType(40) encoding.
func OrdTypeValue(t engine.OrderType) string {
	switch t {
	case engine.Market:
		return "1"
	case engine.Stop:
		return "3"
	case engine.StopLimit:
		return "4"
	default:
		return "2"
	}
}

func statusChar(status engine.OrderStatus) string {
	switch status {
	case engine.StatusNew:
		return "0"
	case engine.StatusPartiallyFilled:
		return "1"
	case engine.StatusFilled:
		return "2"
	case engine.StatusCancelled:
		return "4"
	case engine.StatusPendingCancel:
		return "6"
	case engine.StatusRejected:
		return "8"
	default:
		return "0"
	}
}

func sideChar(side engine.Side) string {
	if side == engine.Buy {
		return "1"
	}
	return "2"
}

func parseSide(value string) engine.Side {
	if value == "1" {
		return engine.Buy
	}
	return engine.Sell
}

func parseOrdType(value string) engine.OrderType {
	switch value {
	case "1":
		return engine.Market
	case "3":
		return engine.Stop
	case "4":
		return engine.StopLimit
	default:
		return engine.Limit
	}
}
