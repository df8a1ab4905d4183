package pebble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// PebbleOrderStore implements OrderStore on an embedded Pebble database.
// Every Apply is one pebble.Batch committed with Sync; reads go through a
// snapshot so a scan never mixes two commits.
type PebbleOrderStore struct {
	db    *pebble.DB
	mutex sync.Mutex // serializes precondition checks with commits
}

// NewPebbleOrderStore opens (or creates) a Pebble database at path
func NewPebbleOrderStore(path string) (*PebbleOrderStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}
	return &PebbleOrderStore{db: db}, nil
}

var _ storage.OrderStore = (*PebbleOrderStore)(nil)

func (s *PebbleOrderStore) FindCandidates(_ context.Context, instrument string, side types.SideType) ([]*types.Order, error) {
	snap := s.db.NewSnapshot()
	defer snap.Close()

	prefix := bookPrefix(instrument, side)
	iter, err := snap.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, unavailable(err)
	}
	defer iter.Close()

	// Reverse scan yields newest first
	var orders []*types.Order
	for iter.Last(); iter.Valid(); iter.Prev() {
		order, err := loadOrder(snap, idFromIndexKey(iter.Key(), len(prefix)))
		if errors.Is(err, types.ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if order.IsLive() {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *PebbleOrderStore) FindByID(_ context.Context, id string) (*types.Order, error) {
	return loadOrder(s.db, id)
}

func (s *PebbleOrderStore) Insert(ctx context.Context, order *types.Order) error {
	return s.Apply(ctx, storage.NewBatch().Insert(order))
}

func (s *PebbleOrderStore) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return s.Apply(ctx, storage.NewBatch().Update(id, quantity))
}

func (s *PebbleOrderStore) RemoveAll(ctx context.Context, ids []string) error {
	return s.Apply(ctx, storage.NewBatch().Remove(ids...))
}

func (s *PebbleOrderStore) RemoveOne(ctx context.Context, id string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	order, err := loadOrder(s.db, id)
	if errors.Is(err, types.ErrOrderNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := deleteOrder(batch, order); err != nil {
		return false, unavailable(err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return false, unavailable(err)
	}
	return true, nil
}

func (s *PebbleOrderStore) QueryByCreatedRange(_ context.Context, from, to time.Time) ([]*types.Order, error) {
	if !from.Before(to) {
		return []*types.Order{}, nil
	}
	return s.scanTimeline(timelineBound(from), timelineBound(to), func(order *types.Order) bool {
		return storage.InCreatedRange(order, from, to)
	})
}

func (s *PebbleOrderStore) QueryAll(_ context.Context) ([]*types.Order, error) {
	prefix := []byte(prefixTimeline)
	return s.scanTimeline(prefix, keyUpperBound(prefix), (*types.Order).IsLive)
}

func (s *PebbleOrderStore) scanTimeline(lower, upper []byte, keep func(*types.Order) bool) ([]*types.Order, error) {
	snap := s.db.NewSnapshot()
	defer snap.Close()

	iter, err := snap.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, unavailable(err)
	}
	defer iter.Close()

	orders := []*types.Order{}
	for iter.First(); iter.Valid(); iter.Next() {
		order, err := loadOrder(snap, idFromIndexKey(iter.Key(), len(prefixTimeline)))
		if errors.Is(err, types.ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if keep(order) {
			orders = append(orders, order)
		}
	}
	storage.SortChronological(orders)
	return orders, nil
}

func (s *PebbleOrderStore) Apply(_ context.Context, batch *storage.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Check every precondition before writing
	removing := make(map[string]*types.Order, len(batch.Removes))
	for _, id := range batch.Removes {
		order, err := loadOrder(s.db, id)
		if errors.Is(err, types.ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		removing[id] = order
	}
	updating := make([]*types.Order, 0, len(batch.Updates))
	for _, update := range batch.Updates {
		order, err := loadOrder(s.db, update.ID)
		if err != nil {
			return fmt.Errorf("update %s: %w", update.ID, err)
		}
		if _, gone := removing[update.ID]; gone {
			return fmt.Errorf("update %s: %w", update.ID, types.ErrOrderNotFound)
		}
		order.Quantity = update.Quantity
		updating = append(updating, order)
	}
	for _, order := range batch.Inserts {
		_, err := loadOrder(s.db, order.ID)
		if err == nil {
			return fmt.Errorf("insert %s: %w", order.ID, types.ErrDuplicateID)
		}
		if !errors.Is(err, types.ErrOrderNotFound) {
			return err
		}
	}

	wb := s.db.NewBatch()
	defer wb.Close()

	for _, order := range removing {
		if err := deleteOrder(wb, order); err != nil {
			return unavailable(err)
		}
	}
	for _, order := range updating {
		if err := putOrder(wb, order, false); err != nil {
			return err
		}
	}
	for _, order := range batch.Inserts {
		if err := putOrder(wb, order, true); err != nil {
			return err
		}
	}

	// Commit writes the batch to Pebble atomically
	if err := wb.Commit(pebble.Sync); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *PebbleOrderStore) Close() error {
	return s.db.Close()
}

func putOrder(wb *pebble.Batch, order *types.Order, indexed bool) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := wb.Set(orderKey(order.ID), data, nil); err != nil {
		return unavailable(err)
	}
	if !indexed {
		return nil
	}
	if err := wb.Set(bookKey(order), nil, nil); err != nil {
		return unavailable(err)
	}
	if err := wb.Set(timelineKey(order), nil, nil); err != nil {
		return unavailable(err)
	}
	return nil
}

func deleteOrder(wb *pebble.Batch, order *types.Order) error {
	if err := wb.Delete(orderKey(order.ID), nil); err != nil {
		return err
	}
	if err := wb.Delete(bookKey(order), nil); err != nil {
		return err
	}
	return wb.Delete(timelineKey(order), nil)
}

func loadOrder(reader pebble.Reader, id string) (*types.Order, error) {
	data, closer, err := reader.Get(orderKey(id))
	if err == pebble.ErrNotFound {
		return nil, fmt.Errorf("order %s: %w", id, types.ErrOrderNotFound)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	defer closer.Close()

	var order types.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order %s: %w", id, err)
	}
	return &order, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: pebble: %v", types.ErrStoreUnavailable, err)
}
