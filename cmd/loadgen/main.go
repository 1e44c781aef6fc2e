package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"mockexchange/engine"
)

func main() {
	totalOrders := flag.Int("orders", 500000, "number of orders to submit")
	priceLevels := flag.Int64("price-levels", 200, "unique price levels around the mid")
	basePrice := flag.Int64("base-price", 10000, "mid price used for randomization")
	symbol := flag.String("symbol", "SIM", "symbol to trade")
	cancelEvery := flag.Int("cancel-every", 0, "cancel a random earlier order every N submissions")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for deterministic random streams")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile := flag.String("memprofile", "", "write heap profile to file")
	marketRatio := flag.Int("market-ratio", 5, "1 in N orders will be market instead of limit")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	eng := engine.NewMatchingEngine(engine.Config{Symbols: []string{*symbol}}, nil)

	orderIDs := make([]int64, 0, *totalOrders)

	start := time.Now()
	for i := 0; i < *totalOrders; i++ {
		order := nextRandomOrder(rng, i, *symbol, *basePrice, *priceLevels, *marketRatio)
		result := eng.Submit(order)
		if result.Rejected() {
			fmt.Fprintf(os.Stderr, "submit failed: %s\n", result.Err)
			continue
		}
		orderIDs = append(orderIDs, result.Order.OrderID)

		if *cancelEvery > 0 && i > 0 && i%*cancelEvery == 0 {
			target := orderIDs[rng.Intn(len(orderIDs))]
			_ = eng.Cancel(*symbol, target)
		}
	}
	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err == nil {
			defer f.Close()
			_ = pprof.WriteHeapProfile(f)
		}
	}

	stats := eng.Stats()
	ordersPerSec := float64(stats.TotalOrders) / elapsed.Seconds()
	tradesPerSec := float64(stats.TotalTrades) / elapsed.Seconds()

	fmt.Printf("submitted %d orders in %s (%.0f orders/s)\n", stats.TotalOrders, elapsed.Truncate(time.Millisecond), ordersPerSec)
	fmt.Printf("matched %d trades (%.0f trades/s)\n", stats.TotalTrades, tradesPerSec)
	fmt.Printf("config: price-levels=%d market-ratio=1/%d cancel-every=%d\n", *priceLevels, *marketRatio, *cancelEvery)
}

func nextRandomOrder(rng *rand.Rand, id int, symbol string, mid int64, width int64, marketRatio int) engine.Order {
	side := engine.Side(rng.Intn(2))
	var price int64
	if side == engine.Buy {
		price = mid + rng.Int63n(width)
	} else {
		offset := rng.Int63n(width)
		if mid > offset {
			price = mid - offset
		} else {
			price = 1
		}
	}

	otype := engine.Limit
	if marketRatio > 0 && rng.Intn(marketRatio) == 0 {
		otype = engine.Market
	}

	return engine.NewOrder(
		"lg-"+strconv.Itoa(id),
		symbol,
		side,
		otype,
		decimal.NewFromInt(price),
		rng.Int63n(5)+1,
		"LOADGEN",
	)
}
