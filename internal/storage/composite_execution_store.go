package storage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// CompositeExecutionStore combines multiple ExecutionStore implementations.
// Writes go to ALL stores concurrently, reads come from the FIRST store that has data.
// Example: CompositeExecutionStore([memoryStore, fileStore, kafkaPublisher]) writes to
// all, reads from memory, persists to file and publishes downstream.
type CompositeExecutionStore struct {
	stores []ExecutionStore
}

// NewCompositeExecutionStore creates a composite store from multiple stores
func NewCompositeExecutionStore(stores ...ExecutionStore) *CompositeExecutionStore {
	return &CompositeExecutionStore{
		stores: stores,
	}
}

func (c *CompositeExecutionStore) SaveBatch(ctx context.Context, executions []*types.Execution) error {
	if len(executions) == 0 {
		return nil
	}

	// Every store gets the batch even when another fails
	var group errgroup.Group
	for _, store := range c.stores {
		group.Go(func() error {
			return store.SaveBatch(ctx, executions)
		})
	}
	return group.Wait()
}

func (c *CompositeExecutionStore) GetRecent(ctx context.Context, limit int) ([]*types.Execution, error) {
	// Read from first store that returns data
	for _, store := range c.stores {
		executions, err := store.GetRecent(ctx, limit)
		if err != nil {
			continue
		}
		if len(executions) > 0 {
			return executions, nil
		}
	}
	return []*types.Execution{}, nil
}

func (c *CompositeExecutionStore) Close() error {
	// Close all stores
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
