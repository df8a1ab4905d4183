package pebble

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/storage/storagetest"
	"github.com/PxPatel/crossing-engine/internal/types"
)

func TestPebbleOrderStoreContract(t *testing.T) {
	storagetest.RunOrderStoreSuite(t, func(t *testing.T) storage.OrderStore {
		store, err := NewPebbleOrderStore(t.TempDir())
		require.NoError(t, err)
		return store
	})
}

func TestOrdersSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders")
	ctx := context.Background()

	store, err := NewPebbleOrderStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, storagetest.NewOrder("o1", "AA01", types.Sell, 10, storagetest.At(0))))
	require.NoError(t, store.Insert(ctx, storagetest.NewOrder("o2", "AA01", types.Sell, 10, storagetest.At(1))))
	require.NoError(t, store.Apply(ctx, storage.NewBatch().Remove("o1").Update("o2", 3)))
	require.NoError(t, store.Close())

	reopened, err := NewPebbleOrderStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	candidates, err := reopened.FindCandidates(ctx, "AA01", types.Sell)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "o2", candidates[0].ID)
	assert.Equal(t, 3, candidates[0].Quantity)
}

func TestSortableNanosPreservesOrder(t *testing.T) {
	times := []time.Time{
		time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Unix(0, 0),
		time.Unix(0, 1),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 1000, time.UTC),
	}
	for i := 1; i < len(times); i++ {
		assert.Less(t, sortableNanos(times[i-1]), sortableNanos(times[i]))
	}
	assert.Equal(t, uint64(0), sortableNanos(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestIDFromIndexKey(t *testing.T) {
	order := storagetest.NewOrder("abc-123", "AA01", types.Buy, 1, storagetest.At(0))

	assert.Equal(t, "abc-123", idFromIndexKey(timelineKey(order), len(prefixTimeline)))
	assert.Equal(t, "abc-123", idFromIndexKey(bookKey(order), len(bookPrefix("AA01", types.Buy))))
	assert.Equal(t, "", idFromIndexKey([]byte("ts:short"), len(prefixTimeline)))
}
