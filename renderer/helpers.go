package renderer

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/bdebruin1014/proforma"
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// symbol returns the currency symbol, or the code followed by a space when
// the currency has none.
func symbol(code string) string {
	if code == "" {
		code = proforma.DefaultCurrency
	}
	if c := money.GetCurrency(code); c != nil && c.Grapheme != "" {
		return c.Grapheme
	}
	return code + " "
}

// Compact formats an amount for summaries: "$2.50M", "$125K", "$950".
func Compact(m proforma.Money) string {
	d := m.Decimal()
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	sym := symbol(m.Currency())

	var s string
	switch {
	case d.Div(thousand).Round(0).GreaterThanOrEqual(thousand):
		s = d.Div(million).StringFixed(2) + "M"
	case d.Round(0).GreaterThanOrEqual(thousand):
		s = d.Div(thousand).StringFixed(0) + "K"
	default:
		s = d.StringFixed(0)
	}
	if s == "0" {
		sign = ""
	}
	return sign + sym + s
}

// SignedCompact is like Compact with an explicit sign. Zero is "-".
func SignedCompact(m proforma.Money) string {
	s := Compact(m)
	switch {
	case strings.HasSuffix(s, symbol(m.Currency())+"0"):
		return "-"
	case m.IsPositive():
		return "+" + s
	default:
		return s
	}
}

// NullCompact formats an amount that may not apply.
func NullCompact(n proforma.NullMoney) string {
	if !n.Valid {
		return "n/a"
	}
	return Compact(n.Money)
}

// cell escapes a free text for a markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
