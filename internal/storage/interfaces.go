package storage

import (
	"context"
	"time"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// OrderStore owns every live order. Returned orders are copies; callers
// change stored state only through Apply or the single-purpose mutators.
// Implementations can be in-memory (map), Pebble, Redis, PostgreSQL, etc.
type OrderStore interface {
	// FindCandidates returns live orders for the instrument on the given
	// side, most recently created first
	FindCandidates(ctx context.Context, instrument string, side types.SideType) ([]*types.Order, error)

	// FindByID returns types.ErrOrderNotFound when the id is absent
	FindByID(ctx context.Context, id string) (*types.Order, error)

	// Insert adds a new live order, failing with types.ErrDuplicateID on collision
	Insert(ctx context.Context, order *types.Order) error

	// UpdateQuantity rewrites a resting order's quantity
	UpdateQuantity(ctx context.Context, id string, quantity int) error

	// RemoveAll deletes a batch of orders, ignoring ids that are already gone
	RemoveAll(ctx context.Context, ids []string) error

	// RemoveOne deletes a single order and reports whether it existed
	RemoveOne(ctx context.Context, id string) (bool, error)

	// QueryByCreatedRange returns live orders with createdAt in [from, to)
	QueryByCreatedRange(ctx context.Context, from, to time.Time) ([]*types.Order, error)

	// QueryAll returns every live order
	QueryAll(ctx context.Context) ([]*types.Order, error)

	// Apply commits the whole batch or nothing
	Apply(ctx context.Context, batch *Batch) error

	// Close releases any resources held by the store
	Close() error
}

// ExecutionStore records fills produced by committed placements.
// Implementations can be in-memory buffer, file log, Redis, PostgreSQL, Kafka, etc.
type ExecutionStore interface {
	// SaveBatch persists the executions of one placement
	SaveBatch(ctx context.Context, executions []*types.Execution) error

	// GetRecent retrieves the N most recent executions, newest first
	GetRecent(ctx context.Context, limit int) ([]*types.Execution, error)

	// Close releases any resources held by the store
	Close() error
}
