package engine

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
)

func BenchmarkMatchThroughput(b *testing.B) {
	book := NewOrderBook("SIM")
	rng := rand.New(rand.NewSource(42))

	orders := make([]Order, b.N)
	for i := 0; i < b.N; i++ {
		orders[i] = randomBenchmarkOrder(rng, i)
	}

	var matched int64

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		matched += int64(len(book.Add(orders[i])))
	}
	b.StopTimer()

	if elapsed := b.Elapsed(); elapsed > 0 {
		tradesPerSecond := float64(matched) / elapsed.Seconds()
		b.ReportMetric(tradesPerSecond, "trades/sec")
	}
}

func randomBenchmarkOrder(rng *rand.Rand, idx int) Order {
	side := Side(rng.Intn(2))
	base := int64(10_000)
	width := int64(100)

	var price int64
	if side == Buy {
		price = base + rng.Int63n(width)
	} else {
		price = base - rng.Int63n(width)
		if price <= 0 {
			price = 1
		}
	}

	otype := Limit
	if rng.Intn(5) == 0 {
		otype = Market
	}

	return NewOrder(
		"bench-"+strconv.Itoa(idx),
		"SIM",
		side,
		otype,
		decimal.NewFromInt(price),
		rng.Int63n(5)+1,
		"BENCH",
	)
}
