package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PxPatel/crossing-engine/internal/api/logger"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// CompositeOrderStore combines multiple OrderStore implementations.
// The FIRST store is the read layer; later stores are durable layers.
// Example: CompositeOrderStore([memoryStore, pebbleStore, postgresStore])
// reads from memory and falls back to the next layer only when a layer is
// unavailable. Apply commits to every durable layer before the read layer,
// and compensates layers that committed when another layer fails, so a
// reader of the first layer never sees a batch that was later refused.
type CompositeOrderStore struct {
	stores []OrderStore
}

// NewCompositeOrderStore creates a composite store from multiple stores
func NewCompositeOrderStore(stores ...OrderStore) *CompositeOrderStore {
	return &CompositeOrderStore{
		stores: stores,
	}
}

func (c *CompositeOrderStore) FindCandidates(ctx context.Context, instrument string, side types.SideType) ([]*types.Order, error) {
	var orders []*types.Order
	err := c.read(func(store OrderStore) error {
		var err error
		orders, err = store.FindCandidates(ctx, instrument, side)
		return err
	})
	return orders, err
}

func (c *CompositeOrderStore) FindByID(ctx context.Context, id string) (*types.Order, error) {
	var order *types.Order
	err := c.read(func(store OrderStore) error {
		var err error
		order, err = store.FindByID(ctx, id)
		return err
	})
	return order, err
}

func (c *CompositeOrderStore) QueryByCreatedRange(ctx context.Context, from, to time.Time) ([]*types.Order, error) {
	var orders []*types.Order
	err := c.read(func(store OrderStore) error {
		var err error
		orders, err = store.QueryByCreatedRange(ctx, from, to)
		return err
	})
	return orders, err
}

func (c *CompositeOrderStore) QueryAll(ctx context.Context) ([]*types.Order, error) {
	var orders []*types.Order
	err := c.read(func(store OrderStore) error {
		var err error
		orders, err = store.QueryAll(ctx)
		return err
	})
	return orders, err
}

// read tries each layer in turn while layers report ErrStoreUnavailable
func (c *CompositeOrderStore) read(fn func(OrderStore) error) error {
	var lastErr error
	for _, store := range c.stores {
		err := fn(store)
		if err == nil || !errors.Is(err, types.ErrStoreUnavailable) {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no storage layers configured", types.ErrStoreUnavailable)
	}
	return lastErr
}

func (c *CompositeOrderStore) Insert(ctx context.Context, order *types.Order) error {
	return c.Apply(ctx, NewBatch().Insert(order))
}

func (c *CompositeOrderStore) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return c.Apply(ctx, NewBatch().Update(id, quantity))
}

func (c *CompositeOrderStore) RemoveAll(ctx context.Context, ids []string) error {
	return c.Apply(ctx, NewBatch().Remove(ids...))
}

func (c *CompositeOrderStore) RemoveOne(ctx context.Context, id string) (bool, error) {
	if _, err := c.FindByID(ctx, id); err != nil {
		if errors.Is(err, types.ErrOrderNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := c.Apply(ctx, NewBatch().Remove(id)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *CompositeOrderStore) Apply(ctx context.Context, batch *Batch) error {
	if len(c.stores) == 0 {
		return fmt.Errorf("%w: no storage layers configured", types.ErrStoreUnavailable)
	}
	if err := batch.Validate(); err != nil {
		return err
	}

	primary, durable := c.stores[0], c.stores[1:]

	undo, err := c.inverse(ctx, primary, batch)
	if err != nil {
		return err
	}

	// Durable layers commit concurrently
	committed := make([]bool, len(durable))
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	for i, store := range durable {
		group.Go(func() error {
			if err := store.Apply(groupCtx, batch); err != nil {
				return err
			}
			mu.Lock()
			committed[i] = true
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		c.compensate(ctx, durable, committed, undo)
		return err
	}

	if err := primary.Apply(ctx, batch); err != nil {
		c.compensate(ctx, durable, committed, undo)
		return err
	}
	return nil
}

// inverse builds the batch that restores the primary layer's current state
func (c *CompositeOrderStore) inverse(ctx context.Context, primary OrderStore, batch *Batch) (*Batch, error) {
	undo := NewBatch()
	for _, order := range batch.Inserts {
		// undoing a duplicate insert would delete the existing order
		_, err := primary.FindByID(ctx, order.ID)
		if err == nil {
			return nil, fmt.Errorf("insert %s: %w", order.ID, types.ErrDuplicateID)
		}
		if !errors.Is(err, types.ErrOrderNotFound) {
			return nil, err
		}
		undo.Remove(order.ID)
	}
	for _, update := range batch.Updates {
		current, err := primary.FindByID(ctx, update.ID)
		if err != nil {
			return nil, err
		}
		undo.Update(update.ID, current.Quantity)
	}
	for _, id := range batch.Removes {
		current, err := primary.FindByID(ctx, id)
		if errors.Is(err, types.ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		undo.Insert(current)
	}
	return undo, nil
}

func (c *CompositeOrderStore) compensate(ctx context.Context, stores []OrderStore, committed []bool, undo *Batch) {
	for i, store := range stores {
		if !committed[i] {
			continue
		}
		if err := store.Apply(ctx, undo); err != nil {
			logger.Error("Failed to roll back storage layer", map[string]interface{}{
				"layer": i + 1,
				"error": err.Error(),
			})
		}
	}
}

func (c *CompositeOrderStore) Close() error {
	// Close all stores
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Hydrate copies every live order of source into target. Used at startup to
// warm the in-memory read layer from a durable layer.
func Hydrate(ctx context.Context, source, target OrderStore) (int, error) {
	orders, err := source.QueryAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("hydrate: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}

	batch := NewBatch()
	for _, order := range orders {
		batch.Insert(order)
	}
	if err := target.Apply(ctx, batch); err != nil {
		return 0, fmt.Errorf("hydrate: %w", err)
	}
	return len(orders), nil
}
