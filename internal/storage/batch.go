package storage

import (
	"fmt"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// QuantityUpdate sets a resting order's quantity in place
type QuantityUpdate struct {
	ID       string
	Quantity int
}

// Batch is the set of order mutations one placement or cancellation commits.
// Stores check every precondition before applying anything: an update of an
// absent id fails with types.ErrOrderNotFound, an insert of a present id with
// types.ErrDuplicateID. Removals of absent ids are ignored.
type Batch struct {
	Inserts []*types.Order
	Updates []QuantityUpdate
	Removes []string
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Insert(order *types.Order) *Batch {
	b.Inserts = append(b.Inserts, order.Clone())
	return b
}

func (b *Batch) Update(id string, quantity int) *Batch {
	b.Updates = append(b.Updates, QuantityUpdate{ID: id, Quantity: quantity})
	return b
}

func (b *Batch) Remove(ids ...string) *Batch {
	b.Removes = append(b.Removes, ids...)
	return b
}

func (b *Batch) IsEmpty() bool {
	return len(b.Inserts) == 0 && len(b.Updates) == 0 && len(b.Removes) == 0
}

// Validate rejects batches that would leave a non-live order in a store
func (b *Batch) Validate() error {
	seen := make(map[string]struct{}, len(b.Inserts))
	for _, order := range b.Inserts {
		if !order.IsLive() {
			return fmt.Errorf("insert %s: %w", order.ID, types.ErrNonPositiveRemain)
		}
		if _, dup := seen[order.ID]; dup {
			return fmt.Errorf("insert %s: %w", order.ID, types.ErrDuplicateID)
		}
		seen[order.ID] = struct{}{}
	}
	for _, update := range b.Updates {
		if update.Quantity <= 0 {
			return fmt.Errorf("update %s: %w", update.ID, types.ErrNonPositiveRemain)
		}
	}
	return nil
}
