package proforma

import (
	"errors"
	"fmt"
)

// LineItem is a labelled amount in a category.
type LineItem struct {
	Category Category
	Label    string
	Amount   Money
}

// Item creates a LineItem.
func Item(category Category, label string, amount Money) LineItem {
	return LineItem{Category: category, Label: label, Amount: amount}
}

// Validate checks the item on its own. Uniqueness is checked by the Proforma.
func (i LineItem) Validate() error {
	var errs error
	if !i.Category.valid() {
		errs = errors.Join(errs, invalid("category", "unknown category %d", int(i.Category)))
	}
	if i.Label == "" {
		errs = errors.Join(errs, invalid(i.Category.String()+".label", "must not be empty"))
	}
	if i.Amount.IsNegative() {
		errs = errors.Join(errs, invalid(fmt.Sprintf("%s[%q].amount", i.Category, i.Label), "must not be negative, got %v", i.Amount.Decimal()))
	}
	return errs
}

// UnitMixEntry describes a group of identical units for sale.
type UnitMixEntry struct {
	UnitType           string
	Count              int
	SquareFeet         int
	PricePerSquareFoot Money
}

// Unit creates a UnitMixEntry.
func Unit(unitType string, count, squareFeet int, pricePerSquareFoot Money) UnitMixEntry {
	return UnitMixEntry{UnitType: unitType, Count: count, SquareFeet: squareFeet, PricePerSquareFoot: pricePerSquareFoot}
}

// SalePrice is the price of a single unit.
func (u UnitMixEntry) SalePrice() Money {
	return u.PricePerSquareFoot.MulInt(int64(u.SquareFeet))
}

// Revenue is the contribution of all the units of this type to the gross sales.
func (u UnitMixEntry) Revenue() Money {
	return u.SalePrice().MulInt(int64(u.Count))
}

func (u UnitMixEntry) Validate() error {
	var errs error
	field := fmt.Sprintf("unitMix[%q]", u.UnitType)
	if u.UnitType == "" {
		errs = errors.Join(errs, invalid("unitMix.unitType", "must not be empty"))
	}
	if u.Count < 0 {
		errs = errors.Join(errs, invalid(field+".count", "must not be negative, got %d", u.Count))
	}
	if u.SquareFeet <= 0 {
		errs = errors.Join(errs, invalid(field+".squareFeet", "must be positive, got %d", u.SquareFeet))
	}
	if u.PricePerSquareFoot.IsNegative() {
		errs = errors.Join(errs, invalid(field+".pricePerSquareFoot", "must not be negative, got %v", u.PricePerSquareFoot.Decimal()))
	}
	return errs
}

// FinancingTerms are the construction loan terms.
type FinancingTerms struct {
	LoanAmount                Money
	AnnualInterestRatePercent Percent
	TermMonths                int
	OriginationFeePercent     Percent
	// InterestReserve is a committed cost, not accrued interest.
	InterestReserve Money
}

// OriginationFee is the loan amount times the origination fee percent.
func (f FinancingTerms) OriginationFee() Money {
	return f.LoanAmount.MulPercent(f.OriginationFeePercent)
}

// FinancingCosts is the origination fee plus the interest reserve.
func (f FinancingTerms) FinancingCosts() Money {
	return f.OriginationFee().Add(f.InterestReserve)
}

// EstimatedInterest is the simple interest of a fully drawn loan over its term.
// It is informational and not part of the total costs.
func (f FinancingTerms) EstimatedInterest() Money {
	yearly := f.LoanAmount.MulPercent(f.AnnualInterestRatePercent)
	return yearly.MulInt(int64(f.TermMonths)).DivInt(12)
}

func (f FinancingTerms) Validate() error {
	var errs error
	if f.LoanAmount.IsNegative() {
		errs = errors.Join(errs, invalid("financing.loanAmount", "must not be negative, got %v", f.LoanAmount.Decimal()))
	}
	if f.AnnualInterestRatePercent.IsNegative() {
		errs = errors.Join(errs, invalid("financing.annualInterestRatePercent", "must not be negative, got %v", f.AnnualInterestRatePercent))
	}
	if f.TermMonths <= 0 {
		errs = errors.Join(errs, invalid("financing.termMonths", "must be positive, got %d", f.TermMonths))
	}
	if f.OriginationFeePercent.IsNegative() {
		errs = errors.Join(errs, invalid("financing.originationFeePercent", "must not be negative, got %v", f.OriginationFeePercent))
	}
	if f.InterestReserve.IsNegative() {
		errs = errors.Join(errs, invalid("financing.interestReserve", "must not be negative, got %v", f.InterestReserve.Decimal()))
	}
	return errs
}

// EquityContribution is the capital committed by one equity source.
type EquityContribution struct {
	Source string
	Amount Money
}

// Equity creates an EquityContribution.
func Equity(source string, amount Money) EquityContribution {
	return EquityContribution{Source: source, Amount: amount}
}

func (e EquityContribution) Validate() error {
	var errs error
	if e.Source == "" {
		errs = errors.Join(errs, invalid("equity.source", "must not be empty"))
	}
	if e.Amount.IsNegative() {
		errs = errors.Join(errs, invalid(fmt.Sprintf("equity[%q].amount", e.Source), "must not be negative, got %v", e.Amount.Decimal()))
	}
	return errs
}
