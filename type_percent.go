package proforma

import "github.com/shopspring/decimal"

// Percent is an exact percentage: P(8.5) is 8.5%.
type Percent struct {
	value decimal.Decimal
}

// P creates a Percent.
func P[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

func (p Percent) Decimal() decimal.Decimal       { return p.value }
func (p Percent) Equal(q Percent) bool           { return p.value.Equal(q.value) }
func (p Percent) IsZero() bool                   { return p.value.IsZero() }
func (p Percent) IsNegative() bool               { return p.value.IsNegative() }
func (p Percent) Round(places int32) Percent     { return Percent{value: p.value.Round(places)} }
func (p Percent) GreaterThan(q Percent) bool     { return p.value.GreaterThan(q.value) }
func (p Percent) MarshalJSON() ([]byte, error)     { return p.value.MarshalJSON() }
func (p *Percent) UnmarshalJSON(data []byte) error { return p.value.UnmarshalJSON(data) }

// percentOf returns part/whole as a percentage, or zero when whole is zero.
func percentOf(part, whole Money) Percent {
	if whole.IsZero() {
		return Percent{}
	}
	return Percent{value: div(part.value.Mul(hundred), whole.value)}
}

func (p Percent) String() string {
	return p.value.StringFixed(2) + "%"
}

// SignedString returns the percentage with an explicit sign.
// 0 is represented as a "-"
func (p Percent) SignedString() string {
	r := p.value.Round(2)
	if r.IsZero() {
		return "-"
	}
	if r.IsPositive() {
		return "+" + p.String()
	}
	return p.String()
}
