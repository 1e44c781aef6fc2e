package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.FIXPort)
	assert.Equal(t, 5002, cfg.MarketDataPort)
	assert.Equal(t, "EXCHANGE", cfg.SenderCompID)
	assert.Equal(t, "CLIENT", cfg.TargetCompID)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL", "TSLA"}, cfg.SymbolList())
	assert.Equal(t, 10, cfg.MaxDepthLevels)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.False(t, cfg.VerboseMatching)
	assert.Equal(t, 100*time.Millisecond, cfg.PublishInterval())
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval())
	assert.Nil(t, cfg.BrokerList())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("EXCHANGE_FIX_PORT", "6001")
	t.Setenv("EXCHANGE_TRADING_SYMBOLS", "BTCUSD, ETHUSD")
	t.Setenv("EXCHANGE_TRADING_VERBOSE_MATCHING", "true")
	t.Setenv("EXCHANGE_KAFKA_BROKERS", "localhost:9092,localhost:9093")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6001, cfg.FIXPort)
	assert.Equal(t, []string{"BTCUSD", "ETHUSD"}, cfg.SymbolList())
	assert.True(t, cfg.VerboseMatching)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.BrokerList())
}
