package proforma

import "iter"

// DerivedMetrics are the totals and ratios computed from a Proforma.
// They are never stored, always derived.
type DerivedMetrics struct {
	Currency string `json:"currency"`

	GrossSalesRevenue Money `json:"grossSalesRevenue"`
	OtherIncomeTotal  Money `json:"otherIncomeTotal"`
	TotalRevenue      Money `json:"totalRevenue"`

	LandCosts           Money `json:"landCosts"`
	HardCosts           Money `json:"hardCosts"`
	SoftCosts           Money `json:"softCosts"`
	TotalProjectCosts   Money `json:"totalProjectCosts"`
	TotalFinancingCosts Money `json:"totalFinancingCosts"`
	TotalCosts          Money `json:"totalCosts"`

	GrossProfit        Money   `json:"grossProfit"`
	GrossMarginPercent Percent `json:"grossMarginPercent"`

	TotalEquity       Money    `json:"totalEquity"`
	ROIPercent        Percent  `json:"roiPercent"`
	EquityMultiple    Multiple `json:"equityMultiple"`
	LoanToCostPercent Percent  `json:"loanToCostPercent"`

	TotalUnits      int       `json:"totalUnits"`
	TotalSquareFeet int       `json:"totalSquareFeet"`
	ProfitPerUnit   NullMoney `json:"profitPerUnit"`
	CostPerUnit     NullMoney `json:"costPerUnit"`
	RevenuePerUnit  NullMoney `json:"revenuePerUnit"`
}

// Derive rolls the raw inputs of p up into category totals, grand totals and
// ratios. It is pure and deterministic: the same Proforma always yields the
// same metrics, digit for digit.
//
// Every division by zero resolves to a sentinel instead of failing: ratios over
// a zero revenue or a zero equity are zero, per unit metrics of a project
// without units are not valid.
func Derive(p Proforma) DerivedMetrics {
	cur := p.Currency()
	m := DerivedMetrics{Currency: cur}

	m.GrossSalesRevenue = sum(cur, p.UnitMix(), UnitMixEntry.Revenue)
	m.OtherIncomeTotal = CategoryTotal(p, OtherIncome)
	m.TotalRevenue = m.GrossSalesRevenue.Add(m.OtherIncomeTotal)

	m.LandCosts = CategoryTotal(p, Land)
	m.HardCosts = CategoryTotal(p, HardCosts)
	m.SoftCosts = CategoryTotal(p, SoftCosts)
	m.TotalProjectCosts = m.LandCosts.Add(m.HardCosts).Add(m.SoftCosts)
	m.TotalFinancingCosts = p.Financing().FinancingCosts()
	m.TotalCosts = m.TotalProjectCosts.Add(m.TotalFinancingCosts)

	m.GrossProfit = m.TotalRevenue.Sub(m.TotalCosts)
	m.GrossMarginPercent = percentOf(m.GrossProfit, m.TotalRevenue)

	m.TotalEquity = sum(cur, p.Equity(), func(e EquityContribution) Money { return e.Amount })
	m.ROIPercent = percentOf(m.GrossProfit, m.TotalEquity)
	if !m.TotalEquity.IsZero() {
		m.EquityMultiple = Multiple{value: div(m.TotalEquity.Add(m.GrossProfit).value, m.TotalEquity.value)}
	}
	m.LoanToCostPercent = percentOf(p.Financing().LoanAmount, m.TotalCosts)

	for u := range p.UnitMix() {
		m.TotalUnits += u.Count
		m.TotalSquareFeet += u.Count * u.SquareFeet
	}
	if m.TotalUnits > 0 {
		n := int64(m.TotalUnits)
		m.ProfitPerUnit = NullMoney{Money: m.GrossProfit.DivInt(n), Valid: true}
		m.CostPerUnit = NullMoney{Money: m.TotalCosts.DivInt(n), Valid: true}
		m.RevenuePerUnit = NullMoney{Money: m.TotalRevenue.DivInt(n), Valid: true}
	}
	return m
}

// CategoryTotal is the sum of the line items of a category.
func CategoryTotal(p Proforma, c Category) Money {
	return sum(p.Currency(), p.Items(c), func(i LineItem) Money { return i.Amount })
}

// sum applies a metric function to each element of a sequence and returns
// the total in the given currency.
func sum[T any](currency string, seq iter.Seq[T], metric func(T) Money) Money {
	total := M(0, currency)
	for v := range seq {
		total = total.Add(metric(v))
	}
	return total
}
