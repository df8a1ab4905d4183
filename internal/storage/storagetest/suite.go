// Package storagetest holds the behaviour every OrderStore must share.
// Backend packages run it against their own constructor.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// Factory returns an empty store; the suite closes it
type Factory func(t *testing.T) storage.OrderStore

var base = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// At returns a fixed UTC time n seconds after the suite's base
func At(n int) time.Time {
	return base.Add(time.Duration(n) * time.Second)
}

// NewOrder builds a GTC order on instrument with a fixed price
func NewOrder(id, instrument string, side types.SideType, quantity int, createdAt time.Time) *types.Order {
	return types.NewOrder(id, instrument, types.GoodTillCancelled, side, decimal.RequireFromString("10.25"), quantity, createdAt)
}

func ids(orders []*types.Order) []string {
	result := make([]string, 0, len(orders))
	for _, o := range orders {
		result = append(result, o.ID)
	}
	return result
}

// RunOrderStoreSuite checks the OrderStore contract against stores built by newStore
func RunOrderStoreSuite(t *testing.T, newStore Factory) {
	open := func(t *testing.T) storage.OrderStore {
		store := newStore(t)
		t.Cleanup(func() { store.Close() })
		return store
	}

	t.Run("InsertAndFind", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		order := NewOrder("o1", "AA01", types.Buy, 10, At(0))
		require.NoError(t, store.Insert(ctx, order))

		got, err := store.FindByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, "AA01", got.Instrument)
		assert.Equal(t, types.Buy, got.Side)
		assert.Equal(t, types.GoodTillCancelled, got.OrderType)
		assert.Equal(t, 10, got.Quantity)
		assert.True(t, got.Price.Equal(order.Price))
		assert.True(t, got.CreatedAt.Equal(order.CreatedAt))

		_, err = store.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, types.ErrOrderNotFound)
	})

	t.Run("ReturnedOrdersAreCopies", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("o1", "AA01", types.Buy, 10, At(0))))

		got, err := store.FindByID(ctx, "o1")
		require.NoError(t, err)
		got.Quantity = 1

		again, err := store.FindByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, 10, again.Quantity)
	})

	t.Run("DuplicateInsert", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("o1", "AA01", types.Buy, 10, At(0))))

		err := store.Insert(ctx, NewOrder("o1", "AA01", types.Sell, 5, At(1)))
		assert.ErrorIs(t, err, types.ErrDuplicateID)

		got, err := store.FindByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity)
	})

	t.Run("CandidatesNewestFirst", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		for _, o := range []*types.Order{
			NewOrder("s-old", "AA01", types.Sell, 1, At(0)),
			NewOrder("s-new", "AA01", types.Sell, 1, At(20)),
			NewOrder("s-mid", "AA01", types.Sell, 1, At(10)),
			NewOrder("b-1", "AA01", types.Buy, 1, At(30)),
			NewOrder("x-1", "AA02", types.Sell, 1, At(40)),
		} {
			require.NoError(t, store.Insert(ctx, o))
		}

		candidates, err := store.FindCandidates(ctx, "AA01", types.Sell)
		require.NoError(t, err)
		assert.Equal(t, []string{"s-new", "s-mid", "s-old"}, ids(candidates))

		candidates, err = store.FindCandidates(ctx, "AA03", types.Sell)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})

	t.Run("UpdateQuantity", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("o1", "AA01", types.Sell, 10, At(0))))

		require.NoError(t, store.UpdateQuantity(ctx, "o1", 4))
		got, err := store.FindByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, 4, got.Quantity)

		candidates, err := store.FindCandidates(ctx, "AA01", types.Sell)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, 4, candidates[0].Quantity)

		assert.ErrorIs(t, store.UpdateQuantity(ctx, "missing", 4), types.ErrOrderNotFound)
		assert.ErrorIs(t, store.UpdateQuantity(ctx, "o1", 0), types.ErrNonPositiveRemain)
	})

	t.Run("RemoveAllToleratesMissing", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("o1", "AA01", types.Sell, 1, At(0))))
		require.NoError(t, store.Insert(ctx, NewOrder("o2", "AA01", types.Sell, 1, At(1))))
		require.NoError(t, store.Insert(ctx, NewOrder("o3", "AA01", types.Sell, 1, At(2))))

		require.NoError(t, store.RemoveAll(ctx, []string{"o1", "o3", "missing"}))
		require.NoError(t, store.RemoveAll(ctx, []string{"o1"}))

		all, err := store.QueryAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"o2"}, ids(all))

		candidates, err := store.FindCandidates(ctx, "AA01", types.Sell)
		require.NoError(t, err)
		assert.Equal(t, []string{"o2"}, ids(candidates))
	})

	t.Run("RemoveOne", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("o1", "AA01", types.Sell, 1, At(0))))

		removed, err := store.RemoveOne(ctx, "o1")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.RemoveOne(ctx, "o1")
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = store.FindByID(ctx, "o1")
		assert.ErrorIs(t, err, types.ErrOrderNotFound)
	})

	t.Run("QueryByCreatedRangeIsHalfOpen", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		for i, id := range []string{"a", "b", "c", "d"} {
			require.NoError(t, store.Insert(ctx, NewOrder(id, "AA01", types.Buy, 1, At(i*10))))
		}

		orders, err := store.QueryByCreatedRange(ctx, At(10), At(30))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, ids(orders))

		orders, err = store.QueryByCreatedRange(ctx, At(10), At(10))
		require.NoError(t, err)
		assert.Empty(t, orders)

		orders, err = store.QueryByCreatedRange(ctx, At(-100), At(100))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(orders))
	})

	t.Run("SubMillisecondTimestamps", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		first := At(0).Add(1 * time.Microsecond)
		second := At(0).Add(2 * time.Microsecond)
		require.NoError(t, store.Insert(ctx, NewOrder("first", "AA01", types.Sell, 1, first)))
		require.NoError(t, store.Insert(ctx, NewOrder("second", "AA01", types.Sell, 1, second)))

		candidates, err := store.FindCandidates(ctx, "AA01", types.Sell)
		require.NoError(t, err)
		assert.Equal(t, []string{"second", "first"}, ids(candidates))

		orders, err := store.QueryByCreatedRange(ctx, first, second)
		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, ids(orders))
	})

	t.Run("QueryAllChronological", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("late", "AA02", types.Sell, 1, At(5))))
		require.NoError(t, store.Insert(ctx, NewOrder("early", "AA01", types.Buy, 1, At(1))))

		all, err := store.QueryAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"early", "late"}, ids(all))
	})

	t.Run("ApplyCommitsEverything", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("full", "AA01", types.Sell, 5, At(0))))
		require.NoError(t, store.Insert(ctx, NewOrder("partial", "AA01", types.Sell, 10, At(1))))

		batch := storage.NewBatch().
			Insert(NewOrder("rest", "AA01", types.Buy, 3, At(2))).
			Remove("full").
			Update("partial", 7)
		require.NoError(t, store.Apply(ctx, batch))

		all, err := store.QueryAll(ctx)
		require.NoError(t, err)
		got := map[string]int{}
		for _, o := range all {
			got[o.ID] = o.Quantity
		}
		assert.Equal(t, map[string]int{"partial": 7, "rest": 3}, got)
	})

	t.Run("ApplyIsAllOrNothing", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		require.NoError(t, store.Insert(ctx, NewOrder("keep", "AA01", types.Sell, 5, At(0))))
		require.NoError(t, store.Insert(ctx, NewOrder("other", "AA01", types.Sell, 5, At(1))))

		// update of an absent id fails the whole batch
		batch := storage.NewBatch().
			Insert(NewOrder("new", "AA01", types.Buy, 3, At(2))).
			Remove("keep").
			Update("missing", 2)
		assert.ErrorIs(t, store.Apply(ctx, batch), types.ErrOrderNotFound)

		// duplicate insert fails the whole batch
		batch = storage.NewBatch().
			Remove("keep").
			Insert(NewOrder("other", "AA01", types.Buy, 3, At(2)))
		assert.ErrorIs(t, store.Apply(ctx, batch), types.ErrDuplicateID)

		all, err := store.QueryAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"keep", "other"}, ids(all))
	})

	t.Run("ConcurrentDisjointWriters", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 5; j++ {
					o := NewOrder(fmt.Sprintf("w%d-%d", i, j), fmt.Sprintf("AA0%d", i+1), types.Buy, 1, At(i*10+j))
					assert.NoError(t, store.Insert(ctx, o))
				}
			}(i)
		}
		wg.Wait()

		all, err := store.QueryAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 40)
	})

	t.Run("ReadsNeverSeeHalfBatch", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		const rounds = 200
		require.NoError(t, store.Insert(ctx, NewOrder("o0", "AA01", types.Sell, 1, At(0))))

		// every committed state holds exactly one live order
		done := make(chan struct{})
		var reads, torn atomic.Int64
		var group errgroup.Group

		group.Go(func() error {
			defer close(done)
			for i := 1; i <= rounds; i++ {
				batch := storage.NewBatch().
					Remove(fmt.Sprintf("o%d", i-1)).
					Insert(NewOrder(fmt.Sprintf("o%d", i), "AA01", types.Sell, 1, At(i)))
				if err := store.Apply(ctx, batch); err != nil {
					return fmt.Errorf("round %d: %w", i, err)
				}
			}
			return nil
		})

		observe := func(orders []*types.Order, err error) error {
			if err != nil {
				return err
			}
			reads.Add(1)
			if len(orders) != 1 {
				torn.Add(1)
			}
			return nil
		}
		for r := 0; r < 4; r++ {
			group.Go(func() error {
				for {
					if err := observe(store.QueryAll(ctx)); err != nil {
						return err
					}
					if err := observe(store.QueryByCreatedRange(ctx, At(0), At(rounds+1))); err != nil {
						return err
					}
					if err := observe(store.FindCandidates(ctx, "AA01", types.Sell)); err != nil {
						return err
					}
					select {
					case <-done:
						return nil
					default:
					}
				}
			})
		}

		require.NoError(t, group.Wait())
		assert.Zero(t, torn.Load(), "%d of %d reads saw a partial batch", torn.Load(), reads.Load())

		all, err := store.QueryAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{fmt.Sprintf("o%d", rounds)}, ids(all))
	})
}
