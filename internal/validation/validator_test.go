package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() OrderFields {
	return OrderFields{
		Instrument: "AA05",
		Side:       "BUY",
		OrderType:  "GTC",
		Quantity:   10,
		Price:      decimal.NewFromInt(10),
	}
}

func newValidator(t *testing.T) *Validator {
	v, err := NewValidator("")
	require.NoError(t, err)
	return v
}

func TestValidOrderPasses(t *testing.T) {
	assert.Empty(t, newValidator(t).Validate(validFields()))
}

func TestRulesAreCaseInsensitive(t *testing.T) {
	fields := validFields()
	fields.Instrument = "aa10"
	fields.Side = "sell"
	fields.OrderType = "ioc"

	assert.Empty(t, newValidator(t).Validate(fields))
}

func TestInstrumentUniverse(t *testing.T) {
	v := newValidator(t)

	for _, instrument := range []string{"AA01", "AA09", "AA10"} {
		fields := validFields()
		fields.Instrument = instrument
		assert.Empty(t, v.Validate(fields), instrument)
	}

	for _, instrument := range []string{"AA00", "AA11", "AAPL", "XAA01", "AA011", ""} {
		fields := validFields()
		fields.Instrument = instrument
		errs := v.Validate(fields)
		require.Len(t, errs, 1, instrument)
		assert.Equal(t, FieldError{Field: "instrument", Reason: "Not within the trading universe!"}, errs[0])
	}
}

func TestEveryFailingFieldIsReported(t *testing.T) {
	errs := newValidator(t).Validate(OrderFields{
		Instrument: "ZZZ",
		Side:       "HOLD",
		OrderType:  "FOK",
		Quantity:   0,
		Price:      decimal.NewFromInt(-1),
	})

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"instrument", "side", "order_type", "quantity", "price"}, fields)
}

func TestZeroPriceRejected(t *testing.T) {
	fields := validFields()
	fields.Price = decimal.Zero

	errs := newValidator(t).Validate(fields)
	require.Len(t, errs, 1)
	assert.Equal(t, "Price has to be greater than 0", errs[0].Reason)
}

func TestCustomUniverse(t *testing.T) {
	v, err := NewValidator(`AAPL|SNAP`)
	require.NoError(t, err)

	fields := validFields()
	fields.Instrument = "snap"
	assert.Empty(t, v.Validate(fields))

	_, err = NewValidator(`(`)
	assert.Error(t, err)
}
