package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/storage/memory"
	"github.com/PxPatel/crossing-engine/internal/storage/storagetest"
	"github.com/PxPatel/crossing-engine/internal/types"
)

type brokenSink struct {
	storage.ExecutionStore
}

func (s *brokenSink) SaveBatch(context.Context, []*types.Execution) error {
	return errors.New("sink offline")
}

func executions(ids ...string) []*types.Execution {
	result := make([]*types.Execution, len(ids))
	for i, id := range ids {
		result[i] = &types.Execution{ID: id, Instrument: "AA01", IncomingSide: types.Buy, Quantity: 1, ExecutedAt: storagetest.At(i)}
	}
	return result
}

func TestCompositeExecutionStoreWritesEveryStore(t *testing.T) {
	ctx := context.Background()
	first, second := memory.NewInMemoryExecutionStore(0), memory.NewInMemoryExecutionStore(0)
	composite := storage.NewCompositeExecutionStore(&brokenSink{ExecutionStore: memory.NewInMemoryExecutionStore(0)}, first, second)

	err := composite.SaveBatch(ctx, executions("e1", "e2"))
	assert.ErrorContains(t, err, "sink offline")

	for _, store := range []storage.ExecutionStore{first, second} {
		recent, err := store.GetRecent(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, recent, 2)
	}
}

func TestCompositeExecutionStoreReadsFirstNonEmpty(t *testing.T) {
	ctx := context.Background()
	empty, populated := memory.NewInMemoryExecutionStore(0), memory.NewInMemoryExecutionStore(0)
	require.NoError(t, populated.SaveBatch(ctx, executions("e1")))

	recent, err := storage.NewCompositeExecutionStore(empty, populated).GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "e1", recent[0].ID)

	recent, err = storage.NewCompositeExecutionStore().GetRecent(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, recent)
	assert.Empty(t, recent)
}
