package models

import (
	"github.com/shopspring/decimal"

	"github.com/PxPatel/crossing-engine/internal/types"
	"github.com/PxPatel/crossing-engine/internal/validation"
)

// SubmitOrderRequest represents a single order submission
type SubmitOrderRequest struct {
	Instrument string          `json:"instrument"`
	Side       string          `json:"side"`       // "buy" | "sell"
	OrderType  string          `json:"order_type"` // "ioc" | "gtc"
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// Fields returns the request in the shape the validator checks
func (r *SubmitOrderRequest) Fields() validation.OrderFields {
	return validation.OrderFields{
		Instrument: r.Instrument,
		Side:       r.Side,
		OrderType:  r.OrderType,
		Quantity:   r.Quantity,
		Price:      r.Price,
	}
}

// ToOrder converts a validated request to an order without id or creation time
func (r *SubmitOrderRequest) ToOrder() (*types.Order, error) {
	side, err := types.ParseSide(r.Side)
	if err != nil {
		return nil, err
	}
	orderType, err := types.ParseOrderType(r.OrderType)
	if err != nil {
		return nil, err
	}
	return &types.Order{
		Instrument: r.Instrument,
		Side:       side,
		OrderType:  orderType,
		Quantity:   r.Quantity,
		Price:      r.Price,
	}, nil
}
