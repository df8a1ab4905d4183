package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	pebbledb "github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/config"
	"github.com/PxPatel/crossing-engine/internal/storage/pebble"
	"github.com/PxPatel/crossing-engine/internal/types"
)

func warmStartConfig(path string) *config.Config {
	return &config.Config{
		Memory: config.MemoryConfig{Enabled: true},
		Pebble: config.PebbleConfig{Enabled: true, Path: path},
		Engine: config.EngineConfig{WarmStart: true},
	}
}

func TestWarmStartLoadsMemoryLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders")
	ctx := context.Background()

	durable, err := pebble.NewPebbleOrderStore(path)
	require.NoError(t, err)
	order := types.NewOrder("o1", "AA01", types.GoodTillCancelled, types.Sell, decimal.NewFromInt(10), 7, time.Now().UTC())
	require.NoError(t, durable.Insert(ctx, order))
	require.NoError(t, durable.Close())

	orderStore, executionStore, err := buildStorageLayers(warmStartConfig(path))
	require.NoError(t, err)
	defer executionStore.Close()
	defer orderStore.Close()

	got, err := orderStore.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
}

func TestWarmStartFailureReleasesLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders")

	// a timeline entry pointing at an undecodable record
	db, err := pebbledb.Open(path, &pebbledb.Options{})
	require.NoError(t, err)
	require.NoError(t, db.Set([]byte("ord:broken"), []byte("{not json"), pebbledb.Sync))
	require.NoError(t, db.Set([]byte(fmt.Sprintf("ts:%020d:broken", uint64(1)<<63)), nil, pebbledb.Sync))
	require.NoError(t, db.Close())

	orderStore, executionStore, err := buildStorageLayers(warmStartConfig(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Nil(t, orderStore)
	assert.Nil(t, executionStore)

	// the directory lock was released
	db, err = pebbledb.Open(path, &pebbledb.Options{})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
