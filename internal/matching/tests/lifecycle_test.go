package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/internal/types"
)

func TestCancelRemovesOrder(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 10, at(0)), gtc("E2", types.Sell, 10, at(1)))

	result, err := engine.CancelOrder(ctx, "E1")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NoError(t, result.Err)
	assert.Equal(t, map[string]int{"E2": 10}, quantities(t, store))
}

func TestCancelUnknownID(t *testing.T) {
	engine, store := newEngine(t)
	rest(t, store, gtc("E1", types.Sell, 10, at(0)))

	result, err := engine.CancelOrder(context.Background(), "missing")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "Id does not exist", result.Message)
	assert.ErrorIs(t, result.Err, types.ErrOrderNotFound)
	assert.Equal(t, map[string]int{"E1": 10}, quantities(t, store))
}

func TestDoubleCancel(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 10, at(0)))

	first, err := engine.CancelOrder(ctx, "E1")
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := engine.CancelOrder(ctx, "E1")
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.ErrorIs(t, second.Err, types.ErrOrderNotFound)
}

func TestCancelAfterFillIsNotFound(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 10, at(0)))

	_, err := engine.PlaceOrder(ctx, gtc("N1", types.Buy, 10, at(1)))
	require.NoError(t, err)

	result, err := engine.CancelOrder(ctx, "E1")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestCancelledOrderIsNotCrossed(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	rest(t, store, gtc("E1", types.Sell, 10, at(0)))

	_, err := engine.CancelOrder(ctx, "E1")
	require.NoError(t, err)

	result, err := engine.PlaceOrder(ctx, ioc("N1", types.Buy, 10, at(1)))
	require.NoError(t, err)
	assert.False(t, result.Success)
}
