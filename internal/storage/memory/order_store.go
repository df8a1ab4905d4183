package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

type bookKey struct {
	instrument string
	side       types.SideType
}

type entry struct {
	order types.Order
	seq   uint64
}

// InMemoryOrderStore implements OrderStore using an in-memory map with a
// per-instrument, per-side index. It owns every order exclusively: reads hand
// out copies and writes only happen inside Apply under the write lock, so
// readers never observe half of a batch.
// When maxSize is reached, inserts fail instead of evicting live orders.
type InMemoryOrderStore struct {
	orders  map[string]*entry
	books   map[bookKey]map[string]struct{}
	seq     uint64
	maxSize int
	mutex   sync.RWMutex
}

// NewInMemoryOrderStore creates a new in-memory order store with a size limit.
// A non-positive maxSize means unbounded.
func NewInMemoryOrderStore(maxSize int) *InMemoryOrderStore {
	return &InMemoryOrderStore{
		orders:  make(map[string]*entry),
		books:   make(map[bookKey]map[string]struct{}),
		maxSize: maxSize,
	}
}

var _ storage.OrderStore = (*InMemoryOrderStore)(nil)

func (s *InMemoryOrderStore) FindCandidates(_ context.Context, instrument string, side types.SideType) ([]*types.Order, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.books[bookKey{instrument: instrument, side: side}]
	entries := make([]*entry, 0, len(ids))
	for id := range ids {
		entries = append(entries, s.orders[id])
	}

	// Newest insertion first so equal timestamps stay last-in-first-out
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	orders := make([]*types.Order, 0, len(entries))
	for _, e := range entries {
		if e.order.IsLive() {
			orders = append(orders, e.order.Clone())
		}
	}
	storage.SortCandidates(orders)
	return orders, nil
}

func (s *InMemoryOrderStore) FindByID(_ context.Context, id string) (*types.Order, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.orders[id]
	if !exists {
		return nil, fmt.Errorf("order %s: %w", id, types.ErrOrderNotFound)
	}
	return e.order.Clone(), nil
}

func (s *InMemoryOrderStore) Insert(ctx context.Context, order *types.Order) error {
	return s.Apply(ctx, storage.NewBatch().Insert(order))
}

func (s *InMemoryOrderStore) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return s.Apply(ctx, storage.NewBatch().Update(id, quantity))
}

func (s *InMemoryOrderStore) RemoveAll(ctx context.Context, ids []string) error {
	return s.Apply(ctx, storage.NewBatch().Remove(ids...))
}

func (s *InMemoryOrderStore) RemoveOne(_ context.Context, id string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.orders[id]; !exists {
		return false, nil
	}
	s.remove(id)
	return true, nil
}

func (s *InMemoryOrderStore) QueryByCreatedRange(_ context.Context, from, to time.Time) ([]*types.Order, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var orders []*types.Order
	for _, e := range s.orders {
		if storage.InCreatedRange(&e.order, from, to) {
			orders = append(orders, e.order.Clone())
		}
	}
	storage.SortChronological(orders)
	return orders, nil
}

func (s *InMemoryOrderStore) QueryAll(_ context.Context) ([]*types.Order, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	orders := make([]*types.Order, 0, len(s.orders))
	for _, e := range s.orders {
		if e.order.IsLive() {
			orders = append(orders, e.order.Clone())
		}
	}
	storage.SortChronological(orders)
	return orders, nil
}

func (s *InMemoryOrderStore) Apply(_ context.Context, batch *storage.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	// Check every precondition before touching state
	removing := make(map[string]struct{}, len(batch.Removes))
	for _, id := range batch.Removes {
		if _, exists := s.orders[id]; exists {
			removing[id] = struct{}{}
		}
	}
	for _, update := range batch.Updates {
		if _, exists := s.orders[update.ID]; !exists {
			return fmt.Errorf("update %s: %w", update.ID, types.ErrOrderNotFound)
		}
		if _, gone := removing[update.ID]; gone {
			return fmt.Errorf("update %s: %w", update.ID, types.ErrOrderNotFound)
		}
	}
	for _, order := range batch.Inserts {
		if _, exists := s.orders[order.ID]; exists {
			return fmt.Errorf("insert %s: %w", order.ID, types.ErrDuplicateID)
		}
	}
	if s.maxSize > 0 && len(s.orders)-len(removing)+len(batch.Inserts) > s.maxSize {
		return fmt.Errorf("%w: memory store limit of %d orders reached", types.ErrStoreUnavailable, s.maxSize)
	}

	for id := range removing {
		s.remove(id)
	}
	for _, update := range batch.Updates {
		s.orders[update.ID].order.Quantity = update.Quantity
	}
	for _, order := range batch.Inserts {
		s.insert(order)
	}
	return nil
}

func (s *InMemoryOrderStore) insert(order *types.Order) {
	s.seq++
	s.orders[order.ID] = &entry{order: *order, seq: s.seq}

	key := bookKey{instrument: order.Instrument, side: order.Side}
	book, ok := s.books[key]
	if !ok {
		book = make(map[string]struct{})
		s.books[key] = book
	}
	book[order.ID] = struct{}{}
}

func (s *InMemoryOrderStore) remove(id string) {
	e := s.orders[id]
	delete(s.orders, id)

	key := bookKey{instrument: e.order.Instrument, side: e.order.Side}
	if book, ok := s.books[key]; ok {
		delete(book, id)
		// Clean up empty book side
		if len(book) == 0 {
			delete(s.books, key)
		}
	}
}

// Len returns the number of stored orders
func (s *InMemoryOrderStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.orders)
}

func (s *InMemoryOrderStore) Close() error {
	// No cleanup needed for in-memory store
	return nil
}
