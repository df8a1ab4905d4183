package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MessageNoFill     = "No orders has been submitted."
	MessageIDNotFound = "Id does not exist"
)

// MatchResult is the outcome of a placement attempt
type MatchResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// FilledMessage reports how many resting orders a placement completed
func FilledMessage(completed int) string {
	return fmt.Sprintf("Order has been submitted. %d orders were completed", completed)
}

// Result is the outcome of a cancellation
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Execution records quantity crossed between an incoming and a resting order.
// Price is the resting order's price.
type Execution struct {
	ID              string          `json:"id"`
	IncomingOrderID string          `json:"incoming_order_id"`
	RestingOrderID  string          `json:"resting_order_id"`
	Instrument      string          `json:"instrument"`
	IncomingSide    SideType        `json:"incoming_side"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	ExecutedAt      time.Time       `json:"executed_at"`
}
