package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"mockexchange/engine"
)

// TradeFeed mirrors executions to a Kafka topic for downstream
// consumers. Publication is best effort: a broker outage never blocks
// or fails order flow.
type TradeFeed struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewTradeFeed(brokers []string, topic string, log *zap.Logger) *TradeFeed {
	if len(brokers) == 0 {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           2 * time.Second,
	}
	log.Info("kafka trade feed enabled", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return &TradeFeed{writer: writer, log: log}
}

func (f *TradeFeed) Publish(ctx context.Context, trade engine.Trade) {
	payload, err := json.Marshal(trade)
	if err != nil {
		f.log.Error("marshal trade for feed", zap.Int64("tradeId", trade.TradeID), zap.Error(err))
		return
	}
	err = f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(trade.Symbol),
		Value: payload,
	})
	if err != nil {
		f.log.Warn("kafka trade publish failed",
			zap.Int64("tradeId", trade.TradeID),
			zap.Error(err))
	}
}

func (f *TradeFeed) Close() error {
	return f.writer.Close()
}
