package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the exchange configuration surface, loaded once at startup
// and read-only afterwards.
type Config struct {
	// Order entry (FIX)
	FIXPort             int    `mapstructure:"fix_port"`
	SenderCompID        string `mapstructure:"fix_sender_comp_id"`
	TargetCompID        string `mapstructure:"fix_target_comp_id"`
	HeartbeatIntervalMs int    `mapstructure:"fix_heartbeat_interval_ms"`

	// Market data
	MarketDataPort    int    `mapstructure:"marketdata_port"`
	PublishIntervalMs int    `mapstructure:"marketdata_interval_ms"`
	KafkaBrokers      string `mapstructure:"kafka_brokers"`
	KafkaTopic        string `mapstructure:"kafka_topic"`

	// Trading
	Symbols         string `mapstructure:"trading_symbols"`
	MaxDepthLevels  int    `mapstructure:"trading_max_depth_levels"`
	VerboseMatching bool   `mapstructure:"trading_verbose_matching"`

	// Performance
	WorkerPoolSize int `mapstructure:"worker_pool_size"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads configuration from exchange.yaml (working directory or
// ./config) and the EXCHANGE_* environment, falling back to defaults.
func Load() (*Config, error) {
	return LoadWithPath("")
}

func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("fix_port", 5001)
	v.SetDefault("fix_sender_comp_id", "EXCHANGE")
	v.SetDefault("fix_target_comp_id", "CLIENT")
	v.SetDefault("fix_heartbeat_interval_ms", 30000)
	v.SetDefault("marketdata_port", 5002)
	v.SetDefault("marketdata_interval_ms", 100)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "exchange.trades")
	v.SetDefault("trading_symbols", "AAPL,MSFT,GOOGL,TSLA")
	v.SetDefault("trading_max_depth_levels", 10)
	v.SetDefault("trading_verbose_matching", false)
	v.SetDefault("worker_pool_size", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetEnvPrefix("EXCHANGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("exchange")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// SymbolList splits the comma-separated symbol universe.
func (c *Config) SymbolList() []string {
	parts := strings.Split(c.Symbols, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// BrokerList splits the comma-separated Kafka broker addresses. Empty
// means the trade feed is disabled.
func (c *Config) BrokerList() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) PublishInterval() time.Duration {
	return time.Duration(c.PublishIntervalMs) * time.Millisecond
}

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMs) * time.Millisecond
}
