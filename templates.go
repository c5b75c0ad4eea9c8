package proforma

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// templates are the seeds of new pro formas, by name.
var templates = map[string]func(name, currency string) Proforma{
	"blank":     Empty,
	"townhomes": townhomes,
}

// Templates iterates over the template names, sorted.
func Templates() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(templates)))
}

// Template creates a pro forma named name from a template.
func Template(template, name, currency string) (Proforma, error) {
	f, ok := templates[template]
	if !ok {
		return Proforma{}, fmt.Errorf("template %q: %w", template, ErrNotFound)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if err := ValidateCurrency(currency); err != nil {
		return Proforma{}, err
	}
	return f(name, currency), nil
}

// townhomes is a twelve unit for-sale townhome project.
func townhomes(name, currency string) Proforma {
	usd := func(v int) Money { return M(v, currency) }
	return MustNew(Inputs{
		Name:     name,
		Currency: currency,
		UnitMix: []UnitMixEntry{
			Unit("Plan A", 4, 1800, usd(325)),
			Unit("Plan B", 4, 2200, usd(310)),
			Unit("Plan C", 4, 2600, usd(295)),
		},
		Items: []LineItem{
			Item(OtherIncome, "Lot premiums", usd(120000)),
			Item(OtherIncome, "Upgrade packages", usd(80000)),

			Item(Land, "Land acquisition", usd(2600000)),
			Item(Land, "Closing costs", usd(45000)),

			Item(HardCosts, "Vertical construction", usd(3120000)),
			Item(HardCosts, "Site work", usd(318000)),
			Item(HardCosts, "Contingency", usd(160000)),

			Item(SoftCosts, "Architecture & engineering", usd(245000)),
			Item(SoftCosts, "Permits & fees", usd(186400)),
			Item(SoftCosts, "Legal & accounting", usd(95000)),
			Item(SoftCosts, "Marketing & commissions", usd(612000)),
			Item(SoftCosts, "Insurance", usd(80000)),
		},
		Financing: FinancingTerms{
			LoanAmount:                usd(5800000),
			AnnualInterestRatePercent: P(8.5),
			TermMonths:                18,
			OriginationFeePercent:     P(1),
			InterestReserve:           usd(450000),
		},
		Equity: []EquityContribution{
			Equity("Developer", usd(1800000)),
			Equity("LP Investor", usd(700000)),
		},
	})
}
