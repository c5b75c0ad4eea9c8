package renderer

import (
	"time"

	"github.com/bdebruin1014/proforma"
)

// Summary is the render model of a single version: its metrics, its balance
// and the inputs they derive from.
type Summary struct {
	Name      string
	Version   string
	Locked    bool
	CreatedAt string
	Notes     string

	Metrics proforma.DerivedMetrics
	Balance proforma.BalanceStatus
	IRR     string

	Units     []UnitRow
	Income    CategoryBlock
	Costs     []CategoryBlock
	Financing FinancingBlock
	Equity    []proforma.EquityContribution
}

// UnitRow is a line of the unit mix table.
type UnitRow struct {
	Type       string
	Count      int
	SquareFeet int
	PricePerSF proforma.Money
	SalePrice  proforma.Money
	Revenue    proforma.Money
}

// CategoryBlock is the list of line items of a category and their total.
type CategoryBlock struct {
	Title string
	Items []proforma.LineItem
	Total proforma.Money
}

// FinancingBlock holds the loan terms and the costs they generate.
type FinancingBlock struct {
	proforma.FinancingTerms
	OriginationFee    proforma.Money
	EstimatedInterest proforma.Money
}

// NewSummary builds the render model of a view.
func NewSummary(v proforma.View) *Summary {
	p := v.Version.Snapshot
	s := &Summary{
		Name:      p.Name(),
		Version:   v.Version.ID.String(),
		Locked:    v.Version.Locked,
		CreatedAt: v.Version.CreatedAt.UTC().Format(time.DateTime),
		Notes:     v.Version.Notes,
		Metrics:   v.Metrics,
		Balance:   v.Balance,
		IRR:       "n/a",
	}
	if irr, ok := p.IRREstimate(); ok {
		s.IRR = irr.String()
	}
	for u := range p.UnitMix() {
		s.Units = append(s.Units, UnitRow{
			Type:       u.UnitType,
			Count:      u.Count,
			SquareFeet: u.SquareFeet,
			PricePerSF: u.PricePerSquareFoot,
			SalePrice:  u.SalePrice(),
			Revenue:    u.Revenue(),
		})
	}
	s.Income = newCategoryBlock(p, proforma.OtherIncome)
	for c := range proforma.CostCategories() {
		s.Costs = append(s.Costs, newCategoryBlock(p, c))
	}
	f := p.Financing()
	s.Financing = FinancingBlock{
		FinancingTerms:    f,
		OriginationFee:    f.OriginationFee(),
		EstimatedInterest: f.EstimatedInterest(),
	}
	for e := range p.Equity() {
		s.Equity = append(s.Equity, e)
	}
	return s
}

func newCategoryBlock(p proforma.Proforma, c proforma.Category) CategoryBlock {
	b := CategoryBlock{Title: c.Title(), Total: proforma.CategoryTotal(p, c)}
	for item := range p.Items(c) {
		b.Items = append(b.Items, item)
	}
	return b
}

// Categories returns the other income block followed by the cost blocks.
func (s *Summary) Categories() []CategoryBlock {
	return append([]CategoryBlock{s.Income}, s.Costs...)
}
