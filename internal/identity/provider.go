package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/PxPatel/crossing-engine/internal/types"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Provider stamps new orders with an id and creation time before they reach
// the engine. Timestamps are UTC and truncated to microseconds, the finest
// resolution every storage backend keeps.
type Provider struct {
	clock Clock
	newID func() string
}

func NewProvider(clock Clock) *Provider {
	return &Provider{
		clock: clock,
		newID: func() string { return uuid.NewString() },
	}
}

// Assign sets ID and CreatedAt on order and returns it
func (p *Provider) Assign(order *types.Order) *types.Order {
	order.ID = p.newID()
	order.CreatedAt = p.Now()
	return order
}

// NewExecutionID returns a fresh identifier for an execution record
func (p *Provider) NewExecutionID() string {
	return p.newID()
}

func (p *Provider) Now() time.Time {
	return p.clock.Now().UTC().Truncate(time.Microsecond)
}
