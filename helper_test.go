package proforma

import (
	"testing"
	"time"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// scenario is the twelve townhomes project used across tests.
//
// Its other income is $120,000 + $80,000 so that the totals match the
// reference figures: revenue 8,336,000, costs 7,969,400, profit 366,600.
func scenario(t testing.TB) Proforma {
	t.Helper()
	p, err := Template("townhomes", "Maple Row", "USD")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	return p
}

// balanced returns a pro forma whose sources exactly cover its uses:
// loan 5,800,000 plus equity 2,500,000 against costs of 8,300,000.
func balanced(t testing.TB) Proforma {
	t.Helper()
	p, err := New(Inputs{
		Name:     "Balanced",
		Currency: "USD",
		Items: []LineItem{
			Item(Land, "Land", USD(2645000)),
			Item(HardCosts, "Construction", USD(3598000)),
			Item(SoftCosts, "Soft", USD(1549000)),
		},
		Financing: FinancingTerms{
			LoanAmount:                USD(5800000),
			AnnualInterestRatePercent: P(8.5),
			TermMonths:                18,
			OriginationFeePercent:     P(1),
			InterestReserve:           USD(450000),
		},
		Equity: []EquityContribution{
			Equity("Developer", USD(1800000)),
			Equity("LP Investor", USD(700000)),
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// fixedClock returns a clock that advances one minute on every call.
func fixedClock() func() time.Time {
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}
