package models

import (
	"errors"
	"net/http"

	"github.com/PxPatel/crossing-engine/internal/types"
	"github.com/PxPatel/crossing-engine/internal/validation"
)

// ErrorCode represents standard error codes
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrInvalidDateRange ErrorCode = "INVALID_DATE_RANGE"
	ErrOrderNotFound    ErrorCode = "ORDER_NOT_FOUND"
	ErrNoFill           ErrorCode = "NO_FILL"
	ErrDuplicateOrder   ErrorCode = "DUPLICATE_ORDER"
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
	ErrRouteNotFound    ErrorCode = "NOT_FOUND"
	ErrMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
)

// APIError represents a structured error response
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HTTPError wraps an APIError with an HTTP status code
type HTTPError struct {
	StatusCode int
	Error      APIError
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, code ErrorCode, message string, details map[string]interface{}) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Error: APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// Common error constructors

func ErrBadRequest(message string, details map[string]interface{}) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidRequest, message, details)
}

func ErrValidation(fieldErrors []validation.FieldError) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrValidationFailed,
		fieldErrors[0].Reason,
		map[string]interface{}{"errors": fieldErrors})
}

func ErrInvalidDateRangeError(message string, details map[string]interface{}) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidDateRange, message, details)
}

func ErrNoFillError(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrNoFill, message, nil)
}

func ErrOrderNotFoundError(orderID string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, ErrOrderNotFound,
		types.MessageIDNotFound,
		map[string]interface{}{"order_id": orderID})
}

func ErrInternal(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, ErrInternalError, message, nil)
}

// FromError maps engine and store errors to an HTTP error
func FromError(err error) *HTTPError {
	switch {
	case errors.Is(err, types.ErrOrderNotFound):
		return NewHTTPError(http.StatusNotFound, ErrOrderNotFound, types.MessageIDNotFound, nil)
	case errors.Is(err, types.ErrNoFill):
		return ErrNoFillError(types.MessageNoFill)
	case errors.Is(err, types.ErrDuplicateID):
		return NewHTTPError(http.StatusConflict, ErrDuplicateOrder, "Order id already exists", nil)
	case errors.Is(err, types.ErrStoreUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, ErrStoreUnavailable, "Order store unavailable", nil)
	case errors.Is(err, types.ErrInvalidOrder), errors.Is(err, types.ErrNonPositiveRemain):
		return ErrBadRequest(err.Error(), nil)
	default:
		return ErrInternal("An unexpected error occurred")
	}
}
