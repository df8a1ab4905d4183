package matching

import (
	"context"
	"time"

	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// OpenOrders returns live orders created in [from, to), oldest first
func (e *Engine) OpenOrders(ctx context.Context, from, to time.Time) ([]*types.Order, error) {
	if !from.Before(to) {
		return []*types.Order{}, nil
	}
	orders, err := e.store.QueryByCreatedRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return sorted(orders), nil
}

// AllOpenOrders returns every live order, oldest first
func (e *Engine) AllOpenOrders(ctx context.Context) ([]*types.Order, error) {
	orders, err := e.store.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	return sorted(orders), nil
}

// GetOrder returns types.ErrOrderNotFound for unknown ids
func (e *Engine) GetOrder(ctx context.Context, id string) (*types.Order, error) {
	return e.store.FindByID(ctx, id)
}

// RecentExecutions returns up to limit executions, newest first
func (e *Engine) RecentExecutions(ctx context.Context, limit int) ([]*types.Execution, error) {
	if e.executions == nil {
		return []*types.Execution{}, nil
	}
	executions, err := e.executions.GetRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if executions == nil {
		executions = []*types.Execution{}
	}
	return executions, nil
}

func sorted(orders []*types.Order) []*types.Order {
	orders = storage.LiveOnly(orders)
	storage.SortChronological(orders)
	if orders == nil {
		return []*types.Order{}
	}
	return orders
}
