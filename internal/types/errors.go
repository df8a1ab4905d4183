package types

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateID       = errors.New("duplicate order id")
	ErrStoreUnavailable  = errors.New("order store unavailable")
	ErrNoFill            = errors.New("immediate-or-cancel order matched nothing")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrNonPositiveRemain = errors.New("resting quantity must be positive")
)
