package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SideType int

const (
	NoActionSide SideType = iota
	Buy
	Sell
)

func (s SideType) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side an order of this side crosses against
func (s SideType) Opposite() SideType {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	default:
		return NoActionSide
	}
}

// ParseSide converts "buy"/"sell" (any case) to a SideType
func ParseSide(value string) (SideType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return NoActionSide, fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, value)
	}
}

func (s SideType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SideType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSide(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type OrderType int

const (
	NoActionOrder OrderType = iota
	ImmediateOrCancel
	GoodTillCancelled
)

func (t OrderType) String() string {
	switch t {
	case ImmediateOrCancel:
		return "IOC"
	case GoodTillCancelled:
		return "GTC"
	default:
		return "UNKNOWN"
	}
}

// ParseOrderType converts "ioc"/"gtc" (any case) to an OrderType
func ParseOrderType(value string) (OrderType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "IOC":
		return ImmediateOrCancel, nil
	case "GTC":
		return GoodTillCancelled, nil
	default:
		return NoActionOrder, fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, value)
	}
}

func (t OrderType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *OrderType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseOrderType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Order is a resting or incoming order for a single instrument.
// ID and CreatedAt are assigned before the order reaches the engine.
type Order struct {
	ID         string          `json:"id"`
	Instrument string          `json:"instrument"`
	Side       SideType        `json:"side"`
	OrderType  OrderType       `json:"order_type"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewOrder(id, instrument string, orderType OrderType, side SideType, price decimal.Decimal, quantity int, createdAt time.Time) *Order {
	return &Order{
		ID:         id,
		Instrument: instrument,
		Side:       side,
		OrderType:  orderType,
		Quantity:   quantity,
		Price:      price,
		CreatedAt:  createdAt,
	}
}

// IsLive reports whether the order still has quantity to match
func (o *Order) IsLive() bool {
	return o.Quantity > 0
}

// Clone returns a copy the caller may mutate freely
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
