package proforma

import "github.com/shopspring/decimal"

// divisionPrecision is the number of decimal places kept by every division in
// the model. A fixed precision makes divisions reproducible bit for bit.
const divisionPrecision = 20

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// div divides a by b at the model precision. b must not be zero.
func div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, divisionPrecision)
}

var hundred = decimal.NewFromInt(100)

// Multiple is a unitless ratio such as the equity multiple.
type Multiple struct {
	value decimal.Decimal
}

// X creates a Multiple.
func X[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Multiple {
	return Multiple{value: newDecimal(value)}
}

func (x Multiple) Decimal() decimal.Decimal   { return x.value }
func (x Multiple) Equal(y Multiple) bool      { return x.value.Equal(y.value) }
func (x Multiple) IsZero() bool               { return x.value.IsZero() }
func (x Multiple) Round(places int32) Multiple { return Multiple{value: x.value.Round(places)} }

// String returns the multiple with two decimals, e.g. "1.15x".
func (x Multiple) String() string { return x.value.StringFixed(2) + "x" }

func (x Multiple) MarshalJSON() ([]byte, error)     { return x.value.MarshalJSON() }
func (x *Multiple) UnmarshalJSON(data []byte) error { return x.value.UnmarshalJSON(data) }
