package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/internal/matching"
	"github.com/PxPatel/crossing-engine/internal/storage/memory"
	"github.com/PxPatel/crossing-engine/internal/types"
)

func TestExactMatchLeavesNoResidue(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 100, at(0)))

	result, err := engine.PlaceOrder(ctx, gtc("N1", types.Buy, 100, at(1)))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Order has been submitted. 1 orders were completed", result.Message)
	assert.Empty(t, quantities(t, store))
}

func TestGTCRestsRemainder(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 100, at(0)))

	result, err := engine.PlaceOrder(ctx, gtc("N1", types.Buy, 101, at(1)))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, map[string]int{"N1": 1}, quantities(t, store))

	resting, err := store.FindByID(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, types.Buy, resting.Side)
	assert.True(t, resting.CreatedAt.Equal(at(1)))
}

func TestIOCWithoutOppositeSideMutatesNothing(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Buy, 100, at(0)))

	result, err := engine.PlaceOrder(ctx, ioc("N1", types.Buy, 100, at(1)))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, types.MessageNoFill, result.Message)
	assert.True(t, errors.Is(result.Err, types.ErrNoFill))
	assert.Equal(t, map[string]int{"E1": 100}, quantities(t, store))
}

func TestIOCPartialOnlyIsDiscarded(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 100, at(0)))

	result, err := engine.PlaceOrder(ctx, ioc("N1", types.Buy, 40, at(1)))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, types.MessageNoFill, result.Message)
	assert.Equal(t, map[string]int{"E1": 100}, quantities(t, store))
}

func TestIOCWithFillRestsRemainder(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 30, at(0)))

	result, err := engine.PlaceOrder(ctx, ioc("N1", types.Buy, 50, at(1)))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, map[string]int{"N1": 20}, quantities(t, store))
}

func TestIOCDecrementsRemainingOnEveryFill(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store,
		gtc("E1", types.Sell, 10, at(0)),
		gtc("E2", types.Sell, 10, at(1)),
		gtc("E3", types.Sell, 10, at(2)),
	)

	result, err := engine.PlaceOrder(ctx, ioc("N1", types.Buy, 15, at(3)))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Order has been submitted. 1 orders were completed", result.Message)
	// E3 is newest and fully consumed, E2 gives up the last 5
	assert.Equal(t, map[string]int{"E1": 10, "E2": 5}, quantities(t, store))
}

func TestNoCandidatesGTCRestsWholeOrder(t *testing.T) {
	engine, store := newEngine(t)

	result, err := engine.PlaceOrder(context.Background(), gtc("N1", types.Buy, 25, at(0)))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Order has been submitted. 0 orders were completed", result.Message)
	assert.Equal(t, map[string]int{"N1": 25}, quantities(t, store))
}

func TestCandidatesConsumedNewestFirst(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store,
		gtc("OLD", types.Sell, 10, at(0)),
		gtc("MID", types.Sell, 10, at(1)),
		gtc("NEW", types.Sell, 10, at(2)),
	)

	_, err := engine.PlaceOrder(ctx, gtc("N1", types.Buy, 10, at(3)))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"OLD": 10, "MID": 10}, quantities(t, store))

	_, err = engine.PlaceOrder(ctx, gtc("N2", types.Buy, 15, at(4)))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"OLD": 5}, quantities(t, store))
}

func TestPartialStopsScan(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store,
		gtc("E1", types.Sell, 5, at(0)),
		gtc("E2", types.Sell, 50, at(1)),
		gtc("E3", types.Sell, 5, at(2)),
	)

	result, err := engine.PlaceOrder(ctx, gtc("N1", types.Buy, 20, at(3)))
	require.NoError(t, err)

	assert.Equal(t, "Order has been submitted. 1 orders were completed", result.Message)
	// E1 is older than the partially consumed E2 and must stay untouched
	assert.Equal(t, map[string]int{"E1": 5, "E2": 35}, quantities(t, store))
}

func TestOtherInstrumentsAndSameSideIgnored(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	other := types.NewOrder("X1", "AA02", types.GoodTillCancelled, types.Sell, decimal.NewFromInt(10), 10, at(0))
	rest(t, store, other, gtc("B1", types.Buy, 10, at(1)))

	result, err := engine.PlaceOrder(ctx, ioc("N1", types.Buy, 10, at(2)))
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, map[string]int{"X1": 10, "B1": 10}, quantities(t, store))
}

func TestPriceDoesNotGateCrossing(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	expensive := gtc("E1", types.Sell, 10, at(0))
	expensive.Price = decimal.NewFromInt(1000)
	rest(t, store, expensive)

	incoming := gtc("N1", types.Buy, 10, at(1))
	incoming.Price = decimal.NewFromInt(1)
	result, err := engine.PlaceOrder(ctx, incoming)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, quantities(t, store))
}

func TestQuantityConservation(t *testing.T) {
	cases := []struct {
		name     string
		resting  []int
		incoming int
	}{
		{"smaller than book", []int{10, 20, 30}, 25},
		{"equal to book", []int{10, 20, 30}, 60},
		{"larger than book", []int{10, 20, 30}, 75},
		{"exact first", []int{7, 8}, 8},
		{"empty book", nil, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, store := newEngine(t)
			ctx := context.Background()

			book := 0
			for i, q := range tc.resting {
				rest(t, store, gtc(fmt.Sprintf("E%d", i), types.Sell, q, at(i)))
				book += q
			}

			result, err := engine.PlaceOrder(ctx, gtc("N1", types.Buy, tc.incoming, at(100)))
			require.NoError(t, err)
			require.True(t, result.Success)

			after := quantities(t, store)
			resting := after["N1"]
			delete(after, "N1")

			consumed := book
			for _, q := range after {
				consumed -= q
			}
			assert.Equal(t, min(tc.incoming, book), consumed)
			assert.Equal(t, tc.incoming-consumed, resting)
		})
	}
}

func TestStoreFailureIsReturnedAndNothingChanges(t *testing.T) {
	store := memory.NewInMemoryOrderStore(0)
	rest(t, store, gtc("E1", types.Sell, 10, at(0)))
	engine := matching.NewEngine(&failingStore{OrderStore: store, err: types.ErrStoreUnavailable})

	_, err := engine.PlaceOrder(context.Background(), gtc("N1", types.Buy, 5, at(1)))

	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.Equal(t, map[string]int{"E1": 10}, quantities(t, store))
}

func TestDuplicateIDIsHardError(t *testing.T) {
	engine, store := newEngine(t)
	rest(t, store, gtc("N1", types.Buy, 10, at(0)))

	_, err := engine.PlaceOrder(context.Background(), gtc("N1", types.Buy, 10, at(1)))

	assert.ErrorIs(t, err, types.ErrDuplicateID)
	assert.Equal(t, map[string]int{"N1": 10}, quantities(t, store))
}

func TestPlaceOrderRequiresIdentity(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.PlaceOrder(context.Background(), gtc("", types.Buy, 10, at(0)))
	assert.ErrorIs(t, err, types.ErrInvalidOrder)

	_, err = engine.PlaceOrder(context.Background(), gtc("N1", types.Buy, 10, time.Time{}))
	assert.ErrorIs(t, err, types.ErrInvalidOrder)

	_, err = engine.PlaceOrder(context.Background(), gtc("N1", types.Buy, 0, at(0)))
	assert.ErrorIs(t, err, types.ErrNonPositiveRemain)
}

func TestExecutionsRecorded(t *testing.T) {
	executions := memory.NewInMemoryExecutionStore(100)
	engine, store := newEngine(t, matching.WithExecutionStore(executions))
	ctx := context.Background()

	e1 := gtc("E1", types.Sell, 10, at(0))
	e1.Price = decimal.RequireFromString("10.25")
	e2 := gtc("E2", types.Sell, 30, at(1))
	e2.Price = decimal.RequireFromString("10.50")
	rest(t, store, e1, e2)

	_, err := engine.PlaceOrder(ctx, gtc("N1", types.Buy, 35, at(2)))
	require.NoError(t, err)

	recent, err := engine.RecentExecutions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	byResting := map[string]*types.Execution{}
	for _, e := range recent {
		assert.Equal(t, "N1", e.IncomingOrderID)
		assert.Equal(t, "AA01", e.Instrument)
		assert.Equal(t, types.Buy, e.IncomingSide)
		assert.NotEmpty(t, e.ID)
		byResting[e.RestingOrderID] = e
	}
	assert.Equal(t, 30, byResting["E2"].Quantity)
	assert.True(t, byResting["E2"].Price.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, 5, byResting["E1"].Quantity)
	assert.True(t, byResting["E1"].Price.Equal(decimal.RequireFromString("10.25")))
}

func TestNoExecutionsForDiscardedIOC(t *testing.T) {
	executions := memory.NewInMemoryExecutionStore(100)
	engine, _ := newEngine(t, matching.WithExecutionStore(executions))
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, ioc("N1", types.Buy, 10, at(0)))
	require.NoError(t, err)

	recent, err := engine.RecentExecutions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
