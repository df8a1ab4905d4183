package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultUniverse is the instrument pattern accepted when none is configured
const DefaultUniverse = `AA(10|0[1-9])`

// FieldError is one failed rule
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// OrderFields is the unvalidated shape of a placement request
type OrderFields struct {
	Instrument string
	Side       string
	OrderType  string
	Quantity   int
	Price      decimal.Decimal
}

// Validator checks field formats and ranges before an order reaches the engine
type Validator struct {
	universe *regexp.Regexp
}

// NewValidator compiles the instrument universe pattern. The pattern is
// anchored and case-insensitive.
func NewValidator(universe string) (*Validator, error) {
	if strings.TrimSpace(universe) == "" {
		universe = DefaultUniverse
	}
	re, err := regexp.Compile(`(?i)^(?:` + universe + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid instrument universe %q: %w", universe, err)
	}
	return &Validator{universe: re}, nil
}

// Validate returns every failed rule; an empty result means the order is acceptable
func (v *Validator) Validate(fields OrderFields) []FieldError {
	var errs []FieldError

	if !v.universe.MatchString(strings.TrimSpace(fields.Instrument)) {
		errs = append(errs, FieldError{Field: "instrument", Reason: "Not within the trading universe!"})
	}

	switch strings.ToUpper(strings.TrimSpace(fields.Side)) {
	case "BUY", "SELL":
	default:
		errs = append(errs, FieldError{Field: "side", Reason: "Only buy or sell is allowed"})
	}

	switch strings.ToUpper(strings.TrimSpace(fields.OrderType)) {
	case "IOC", "GTC":
	default:
		errs = append(errs, FieldError{Field: "order_type", Reason: "Only IOC and GTC is allowed"})
	}

	if fields.Quantity <= 0 {
		errs = append(errs, FieldError{Field: "quantity", Reason: "Quantity has to be greater than 0"})
	}

	if !fields.Price.IsPositive() {
		errs = append(errs, FieldError{Field: "price", Reason: "Price has to be greater than 0"})
	}

	return errs
}
