package matching

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/internal/matching"
	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/storage/memory"
	"github.com/PxPatel/crossing-engine/internal/types"
)

var base = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// at returns base shifted by n seconds
func at(n int) time.Time {
	return base.Add(time.Duration(n) * time.Second)
}

func order(id string, side types.SideType, orderType types.OrderType, quantity int, createdAt time.Time) *types.Order {
	return types.NewOrder(id, "AA01", orderType, side, decimal.NewFromInt(10), quantity, createdAt)
}

func gtc(id string, side types.SideType, quantity int, createdAt time.Time) *types.Order {
	return order(id, side, types.GoodTillCancelled, quantity, createdAt)
}

func ioc(id string, side types.SideType, quantity int, createdAt time.Time) *types.Order {
	return order(id, side, types.ImmediateOrCancel, quantity, createdAt)
}

func newEngine(t testing.TB, opts ...matching.Option) (*matching.Engine, *memory.InMemoryOrderStore) {
	t.Helper()
	store := memory.NewInMemoryOrderStore(0)
	return matching.NewEngine(store, opts...), store
}

// rest seeds resting orders directly into the store
func rest(t testing.TB, store storage.OrderStore, orders ...*types.Order) {
	t.Helper()
	for _, o := range orders {
		require.NoError(t, store.Insert(context.Background(), o))
	}
}

func quantities(t testing.TB, store storage.OrderStore) map[string]int {
	t.Helper()
	orders, err := store.QueryAll(context.Background())
	require.NoError(t, err)

	result := make(map[string]int, len(orders))
	for _, o := range orders {
		result[o.ID] = o.Quantity
	}
	return result
}

func totalQuantity(t testing.TB, store storage.OrderStore) int {
	t.Helper()
	total := 0
	for _, q := range quantities(t, store) {
		total += q
	}
	return total
}

// failingStore refuses every commit
type failingStore struct {
	storage.OrderStore
	err error
}

func (f *failingStore) Apply(context.Context, *storage.Batch) error {
	return f.err
}
