package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mockexchange/config"
	"mockexchange/engine"
	"mockexchange/fix"
	"mockexchange/logging"
	"mockexchange/marketdata"
)

func main() {
	// A missing .env is fine; the environment and defaults still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting exchange",
		zap.Strings("symbols", cfg.SymbolList()),
		zap.Int("fixPort", cfg.FIXPort),
		zap.Int("marketDataPort", cfg.MarketDataPort))

	eng := engine.NewMatchingEngine(engine.Config{
		Symbols:         cfg.SymbolList(),
		MaxDepthLevels:  cfg.MaxDepthLevels,
		VerboseMatching: cfg.VerboseMatching,
	}, logger.Named("engine"))

	hub := marketdata.NewHub(logger.Named("hub"))
	feed := marketdata.NewTradeFeed(cfg.BrokerList(), cfg.KafkaTopic, logger.Named("feed"))
	publisher := marketdata.NewPublisher(eng, hub, feed, cfg.PublishInterval(), logger.Named("publisher"))
	mdServer := marketdata.NewServer(eng, hub, logger.Named("marketdata"))

	acceptor := fix.NewAcceptor(fix.Config{
		Port:              cfg.FIXPort,
		SenderCompID:      cfg.SenderCompID,
		TargetCompID:      cfg.TargetCompID,
		HeartbeatInterval: cfg.HeartbeatInterval(),
		WorkerPoolSize:    cfg.WorkerPoolSize,
	}, eng, publisher, logger.Named("fix"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go publisher.Run(ctx)

	go func() {
		if err := mdServer.ListenAndServe(cfg.MarketDataPort); err != nil {
			logger.Fatal("market data server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := acceptor.ListenAndServe(); err != nil {
			logger.Fatal("fix acceptor failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancel()
	acceptor.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := mdServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("market data shutdown", zap.Error(err))
	}
	if feed != nil {
		if err := feed.Close(); err != nil {
			logger.Warn("close trade feed", zap.Error(err))
		}
	}

	stats := eng.Stats()
	logger.Info("final stats",
		zap.Int64("totalOrders", stats.TotalOrders),
		zap.Int64("totalTrades", stats.TotalTrades))
}
