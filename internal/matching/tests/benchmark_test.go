package matching

import (
	"context"
	"fmt"
	"testing"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// Benchmark KPIs and Metrics:
// - Orders/second throughput
// - Memory allocations
// - Scalability with book depth

// BenchmarkPlaceRestingOrder benchmarks GTC placements that never cross
func BenchmarkPlaceRestingOrder(b *testing.B) {
	engine, _ := newEngine(b)
	ctx := context.Background()
	orders := make([]*types.Order, b.N)
	for i := 0; i < b.N; i++ {
		orders[i] = gtc(fmt.Sprintf("B%d", i), types.Buy, 10, at(i))
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := engine.PlaceOrder(ctx, orders[i]); err != nil {
			b.Fatal(err)
		}
	}

	ordersPerSec := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(ordersPerSec, "orders/sec")
}

// BenchmarkCrossing benchmarks placements that each consume one resting order
func BenchmarkCrossing(b *testing.B) {
	for _, depth := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("depth_%d", depth), func(b *testing.B) {
			engine, store := newEngine(b)
			ctx := context.Background()
			for i := 0; i < depth; i++ {
				rest(b, store, gtc(fmt.Sprintf("S%d", i), types.Sell, 1_000_000_000, at(i)))
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := engine.PlaceOrder(ctx, gtc(fmt.Sprintf("B%d", i), types.Buy, 1, at(depth+i))); err != nil {
					b.Fatal(err)
				}
			}

			matchesPerSec := float64(b.N) / b.Elapsed().Seconds()
			b.ReportMetric(matchesPerSec, "matches/sec")
		})
	}
}

// BenchmarkCancel benchmarks cancelling resting orders
func BenchmarkCancel(b *testing.B) {
	engine, store := newEngine(b)
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		rest(b, store, gtc(fmt.Sprintf("S%d", i), types.Sell, 10, at(i)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := engine.CancelOrder(ctx, fmt.Sprintf("S%d", i)); err != nil {
			b.Fatal(err)
		}
	}
}
