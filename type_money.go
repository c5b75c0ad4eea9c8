package proforma

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a pro forma does not name one.
const DefaultCurrency = "USD"

// Money represents a monetary value.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	code := m.cur
	if code == "" {
		code = DefaultCurrency
	}
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, code).Currency()
}

// ValidateCurrency returns an error if code is not a known ISO 4217 code.
func ValidateCurrency(code string) error {
	if money.GetCurrency(code) == nil {
		return &ValidationError{Field: "currency", Reason: "unknown currency " + code}
	}
	return nil
}

// String returns the money formatted in its currency, rounded to the currency fraction.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// Simple wrapper around decimal.Decimal

func (m Money) Currency() string                { return m.cur }
func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) Sign() int                       { return m.value.Sign() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Abs() Money                      { return Money{value: m.value.Abs(), cur: m.cur} }
func (m Money) MulInt(n int64) Money            { return Money{value: m.value.Mul(decimal.NewFromInt(n)), cur: m.cur} }

// MulPercent returns p percent of m.
func (m Money) MulPercent(p Percent) Money {
	return Money{value: div(m.value.Mul(p.value), hundred), cur: m.cur}
}

// DivInt divides m by n at the model precision. n must not be zero.
func (m Money) DivInt(n int64) Money {
	return Money{value: div(m.value, decimal.NewFromInt(n)), cur: m.cur}
}

// Equal reports whether m and n are the same amount in the same currency. As
// in Add, the "" currency is weak and matches any other.
func (m Money) Equal(n Money) bool {
	return m.value.Equal(n.value) && (m.cur == n.cur || m.cur == "" || n.cur == "")
}

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch " + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON writes the exact amount, never rounded.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.value.MarshalJSON()
}

// UnmarshalJSON reads an amount. The currency is carried by the pro forma, not the amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.value.UnmarshalJSON(data)
}

// NullMoney is a Money that may be not applicable, like a per unit metric of a
// project without units.
type NullMoney struct {
	Money Money
	Valid bool
}

// String returns "n/a" for an invalid value.
func (n NullMoney) String() string {
	if !n.Valid {
		return "n/a"
	}
	return n.Money.String()
}

func (n NullMoney) Equal(o NullMoney) bool {
	return n.Valid == o.Valid && (!n.Valid || n.Money.Equal(o.Money))
}

func (n NullMoney) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.Money.MarshalJSON()
}

func (n *NullMoney) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullMoney{}
		return nil
	}
	n.Valid = true
	return n.Money.UnmarshalJSON(data)
}
