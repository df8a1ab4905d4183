package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PxPatel/crossing-engine/internal/types"
)

// BaseResponse is the base structure for all API responses
type BaseResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Error     *APIError `json:"error,omitempty"`
}

// SubmitOrderResponse represents the response for order submission
type SubmitOrderResponse struct {
	BaseResponse
	OrderID string `json:"order_id,omitempty"`
}

// CancelOrderResponse represents the response for order cancellation
type CancelOrderResponse struct {
	BaseResponse
	OrderID string `json:"order_id,omitempty"`
}

// OrderDTO represents an order in API responses
type OrderDTO struct {
	OrderID    string          `json:"order_id"`
	Instrument string          `json:"instrument"`
	Side       string          `json:"side"`
	OrderType  string          `json:"order_type"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewOrderDTO(order *types.Order) OrderDTO {
	return OrderDTO{
		OrderID:    order.ID,
		Instrument: order.Instrument,
		Side:       order.Side.String(),
		OrderType:  order.OrderType.String(),
		Quantity:   order.Quantity,
		Price:      order.Price,
		CreatedAt:  order.CreatedAt,
	}
}

// GetOrderResponse represents the response for getting a single order
type GetOrderResponse struct {
	BaseResponse
	Order *OrderDTO `json:"order,omitempty"`
}

// GetOrdersResponse represents the response for getting multiple orders
type GetOrdersResponse struct {
	BaseResponse
	Orders []OrderDTO `json:"orders"`
	Count  int        `json:"count"`
}

// ExecutionDTO represents a fill in API responses
type ExecutionDTO struct {
	ExecutionID     string          `json:"execution_id"`
	IncomingOrderID string          `json:"incoming_order_id"`
	RestingOrderID  string          `json:"resting_order_id"`
	Instrument      string          `json:"instrument"`
	IncomingSide    string          `json:"incoming_side"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	ExecutedAt      time.Time       `json:"executed_at"`
}

func NewExecutionDTO(execution *types.Execution) ExecutionDTO {
	return ExecutionDTO{
		ExecutionID:     execution.ID,
		IncomingOrderID: execution.IncomingOrderID,
		RestingOrderID:  execution.RestingOrderID,
		Instrument:      execution.Instrument,
		IncomingSide:    execution.IncomingSide.String(),
		Quantity:        execution.Quantity,
		Price:           execution.Price,
		ExecutedAt:      execution.ExecutedAt,
	}
}

// GetExecutionsResponse represents the response for getting executions
type GetExecutionsResponse struct {
	BaseResponse
	Executions []ExecutionDTO `json:"executions"`
	Count      int            `json:"count"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Version       string    `json:"version"`
}
