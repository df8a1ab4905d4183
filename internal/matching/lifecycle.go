package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/PxPatel/crossing-engine/internal/api/logger"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// CancelOrder removes a resting order by id. An unknown id is a routine
// outcome reported in the Result, not an error.
func (e *Engine) CancelOrder(ctx context.Context, id string) (types.Result, error) {
	order, err := e.store.FindByID(ctx, id)
	if errors.Is(err, types.ErrOrderNotFound) {
		return notFound(), nil
	}
	if err != nil {
		return types.Result{}, fmt.Errorf("cancel %s: %w", id, err)
	}

	unlock := e.locks.lock(order.Instrument)
	defer unlock()

	removed, err := e.store.RemoveOne(ctx, id)
	if err != nil {
		return types.Result{}, fmt.Errorf("cancel %s: %w", id, err)
	}
	// filled by a placement between the lookup and the lock
	if !removed {
		return notFound(), nil
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id":   id,
		"instrument": order.Instrument,
	})

	return types.Result{Success: true}, nil
}

func notFound() types.Result {
	return types.Result{
		Success: false,
		Message: types.MessageIDNotFound,
		Err:     types.ErrOrderNotFound,
	}
}
