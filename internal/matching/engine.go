package matching

import (
	"context"
	"fmt"

	"github.com/PxPatel/crossing-engine/internal/api/logger"
	"github.com/PxPatel/crossing-engine/internal/identity"
	"github.com/PxPatel/crossing-engine/internal/storage"
	"github.com/PxPatel/crossing-engine/internal/types"
)

// Engine crosses incoming orders against resting orders held in an OrderStore.
// Candidates are taken newest first, so the most recently rested order on the
// opposite side is consumed before older ones.
type Engine struct {
	store      storage.OrderStore
	executions storage.ExecutionStore
	ids        *identity.Provider
	locks      *instrumentLocks
}

// Option configures an Engine
type Option func(*Engine)

// WithExecutionStore records fills of every committed placement
func WithExecutionStore(executions storage.ExecutionStore) Option {
	return func(e *Engine) {
		e.executions = executions
	}
}

// WithIdentity sets the provider used to stamp execution ids and times
func WithIdentity(ids *identity.Provider) Option {
	return func(e *Engine) {
		e.ids = ids
	}
}

func NewEngine(store storage.OrderStore, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		ids:   identity.NewProvider(identity.RealClock{}),
		locks: newInstrumentLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// fill is quantity taken from one resting order
type fill struct {
	resting  *types.Order
	quantity int
}

// crossing is the outcome of scanning the candidates for one incoming order
type crossing struct {
	remaining int
	filled    []*types.Order
	partial   *types.Order
	fills     []fill
}

// cross walks candidates newest first. Fully consumed candidates are
// collected in filled; the first candidate larger than what is left is
// decremented in place and ends the scan.
func cross(quantity int, candidates []*types.Order) crossing {
	result := crossing{remaining: quantity}

	for _, candidate := range candidates {
		if result.remaining <= 0 {
			break
		}
		if candidate.Quantity <= result.remaining {
			result.fills = append(result.fills, fill{resting: candidate, quantity: candidate.Quantity})
			result.filled = append(result.filled, candidate)
			result.remaining -= candidate.Quantity
			continue
		}
		result.fills = append(result.fills, fill{resting: candidate, quantity: result.remaining})
		candidate.Quantity -= result.remaining
		result.partial = candidate
		result.remaining = 0
	}

	return result
}

// PlaceOrder matches order against the opposite side of its instrument and
// commits the resulting mutations as one batch. The order must already carry
// an id and creation time. A returned error means nothing was committed.
func (e *Engine) PlaceOrder(ctx context.Context, order *types.Order) (types.MatchResult, error) {
	if order.ID == "" || order.CreatedAt.IsZero() {
		return types.MatchResult{}, fmt.Errorf("%w: order needs an id and creation time", types.ErrInvalidOrder)
	}
	if !order.IsLive() {
		return types.MatchResult{}, fmt.Errorf("place %s: %w", order.ID, types.ErrNonPositiveRemain)
	}

	unlock := e.locks.lock(order.Instrument)
	defer unlock()

	logger.Debug("Placing order", map[string]interface{}{
		"order_id":   order.ID,
		"instrument": order.Instrument,
		"side":       order.Side.String(),
		"order_type": order.OrderType.String(),
		"quantity":   order.Quantity,
	})

	candidates, err := e.store.FindCandidates(ctx, order.Instrument, order.Side.Opposite())
	if err != nil {
		return types.MatchResult{}, fmt.Errorf("find candidates for %s: %w", order.ID, err)
	}

	result := cross(order.Quantity, candidates)

	if order.OrderType == types.ImmediateOrCancel && len(result.filled) == 0 {
		return types.MatchResult{
			Success: false,
			Message: types.MessageNoFill,
			Err:     types.ErrNoFill,
		}, nil
	}

	batch := storage.NewBatch()
	if result.remaining > 0 {
		resting := order.Clone()
		resting.Quantity = result.remaining
		batch.Insert(resting)
	}
	for _, filled := range result.filled {
		batch.Remove(filled.ID)
	}
	if result.partial != nil {
		batch.Update(result.partial.ID, result.partial.Quantity)
	}

	if err := e.store.Apply(ctx, batch); err != nil {
		logger.Error("Failed to commit placement", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return types.MatchResult{}, fmt.Errorf("commit %s: %w", order.ID, err)
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id":   order.ID,
		"instrument": order.Instrument,
		"completed":  len(result.filled),
		"resting":    result.remaining,
	})

	e.record(ctx, order, result.fills)

	return types.MatchResult{
		Success: true,
		Message: types.FilledMessage(len(result.filled)),
	}, nil
}

// record saves the executions of a committed placement. Failures are logged
// and never undo the match.
func (e *Engine) record(ctx context.Context, order *types.Order, fills []fill) {
	if e.executions == nil || len(fills) == 0 {
		return
	}

	executedAt := e.ids.Now()
	executions := make([]*types.Execution, 0, len(fills))
	for _, f := range fills {
		executions = append(executions, &types.Execution{
			ID:              e.ids.NewExecutionID(),
			IncomingOrderID: order.ID,
			RestingOrderID:  f.resting.ID,
			Instrument:      order.Instrument,
			IncomingSide:    order.Side,
			Quantity:        f.quantity,
			Price:           f.resting.Price,
			ExecutedAt:      executedAt,
		})
	}

	if err := e.executions.SaveBatch(ctx, executions); err != nil {
		logger.Warn("Failed to record executions", map[string]interface{}{
			"order_id": order.ID,
			"count":    len(executions),
			"error":    err.Error(),
		})
	}
}
