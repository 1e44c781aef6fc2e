package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"mockexchange/bots"
	"mockexchange/fix"
	"mockexchange/logging"
)

func main() {
	fixAddr := flag.String("fix", "localhost:5001", "FIX acceptor address")
	mdURL := flag.String("marketdata", "http://localhost:5002", "market data base URL")
	symbol := flag.String("symbol", "AAPL", "symbol to trade")
	account := flag.String("account", "BOT1", "client account id")
	tick := flag.String("tick", "0.01", "price grid for generated orders")
	interval := flag.Duration("interval", 50*time.Millisecond, "minimum delay between orders")
	duration := flag.Duration("duration", 0, "how long to run; 0 means until interrupted")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tickSize, err := decimal.NewFromString(*tick)
	if err != nil || !tickSize.IsPositive() {
		fmt.Fprintf(os.Stderr, "invalid tick %q\n", *tick)
		os.Exit(1)
	}

	session, err := fix.Dial(*fixAddr, *account, "EXCHANGE")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	if err := session.Logon(30); err != nil {
		fmt.Fprintf(os.Stderr, "logon: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	throttle := time.NewTicker(*interval)
	defer throttle.Stop()

	client := bots.NewFixClient(session, *mdURL, *account, *symbol, tickSize, throttle.C)
	streamURL := "ws" + strings.TrimPrefix(*mdURL, "http") + "/marketdata"
	supervisor := bots.NewSupervisor(client, streamURL, logger)

	supervisor.Start(ctx)

	position, cash := supervisor.PnL()
	fmt.Printf("final PNL position=%d cash=%s\n", position, cash.String())
}
