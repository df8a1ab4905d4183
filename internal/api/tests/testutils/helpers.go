package testutils

import (
	"github.com/shopspring/decimal"

	"github.com/PxPatel/crossing-engine/internal/api/models"
)

// OrderRequest builders for common test cases

// NewGTCBuyOrder creates a good-till-cancelled buy order request
func NewGTCBuyOrder(instrument string, price float64, quantity int) models.SubmitOrderRequest {
	return newOrder(instrument, "buy", "gtc", price, quantity)
}

// NewGTCSellOrder creates a good-till-cancelled sell order request
func NewGTCSellOrder(instrument string, price float64, quantity int) models.SubmitOrderRequest {
	return newOrder(instrument, "sell", "gtc", price, quantity)
}

// NewIOCBuyOrder creates an immediate-or-cancel buy order request
func NewIOCBuyOrder(instrument string, price float64, quantity int) models.SubmitOrderRequest {
	return newOrder(instrument, "buy", "ioc", price, quantity)
}

// NewIOCSellOrder creates an immediate-or-cancel sell order request
func NewIOCSellOrder(instrument string, price float64, quantity int) models.SubmitOrderRequest {
	return newOrder(instrument, "sell", "ioc", price, quantity)
}

func newOrder(instrument, side, orderType string, price float64, quantity int) models.SubmitOrderRequest {
	return models.SubmitOrderRequest{
		Instrument: instrument,
		Side:       side,
		OrderType:  orderType,
		Quantity:   quantity,
		Price:      decimal.NewFromFloat(price),
	}
}
