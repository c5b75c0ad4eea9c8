package renderer

import (
	"iter"
	"time"

	"github.com/bdebruin1014/proforma"
)

// History is the render model of a version history.
type History struct {
	Name string
	Rows []HistoryRow
}

// HistoryRow summarizes one version.
type HistoryRow struct {
	ID           string
	Status       string
	CreatedAt    string
	Notes        string
	TotalRevenue proforma.Money
	TotalCosts   proforma.Money
	GrossProfit  proforma.Money
	Margin       proforma.Percent
	Balance      proforma.BalanceState
}

// NewHistory builds the render model of versions, in the order they are
// iterated.
func NewHistory(name string, versions iter.Seq[proforma.ProformaVersion]) *History {
	h := &History{Name: name}
	for v := range versions {
		view := proforma.Evaluate(v)
		status := "draft"
		if v.Locked {
			status = "locked"
		}
		h.Rows = append(h.Rows, HistoryRow{
			ID:           v.ID.String(),
			Status:       status,
			CreatedAt:    v.CreatedAt.UTC().Format(time.DateTime),
			Notes:        v.Notes,
			TotalRevenue: view.Metrics.TotalRevenue,
			TotalCosts:   view.Metrics.TotalCosts,
			GrossProfit:  view.Metrics.GrossProfit,
			Margin:       view.Metrics.GrossMarginPercent,
			Balance:      view.Balance.State,
		})
	}
	return h
}
