// Package export writes pro formas to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"iter"

	"github.com/bdebruin1014/proforma"
	"github.com/xuri/excelize/v2"
)

// Sheet names of an exported workbook.
const (
	InputsSheet  = "Inputs"
	MetricsSheet = "Metrics"
	BalanceSheet = "Sources & Uses"
	HistorySheet = "History"
)

// Options configures the workbook layout.
type Options struct {
	MoneyFormat   string // custom number format of monetary cells
	HeaderFill    string // RGB fill color of header rows
	HeaderColor   string // RGB font color of header rows
	FreezeHeaders bool
}

// DefaultOptions returns the default workbook options.
func DefaultOptions() Options {
	return Options{
		MoneyFormat:   "#,##0.00",
		HeaderFill:    "4472C4",
		HeaderColor:   "FFFFFF",
		FreezeHeaders: true,
	}
}

// Exporter builds a workbook one sheet at a time.
type Exporter struct {
	file    *excelize.File
	options Options

	header, money, percent, multiple, date int // style ids
}

// NewExporter creates an empty workbook.
func NewExporter(options Options) (*Exporter, error) {
	e := &Exporter{file: excelize.NewFile(), options: options}
	var err error
	if e.header, err = e.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: options.HeaderColor},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{options.HeaderFill}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if e.money, err = e.file.NewStyle(&excelize.Style{CustomNumFmt: &options.MoneyFormat}); err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}
	if e.percent, err = e.file.NewStyle(&excelize.Style{NumFmt: 10}); err != nil { // 0.00%
		return nil, fmt.Errorf("failed to create percent style: %w", err)
	}
	multiple := `0.00"x"`
	if e.multiple, err = e.file.NewStyle(&excelize.Style{CustomNumFmt: &multiple}); err != nil {
		return nil, fmt.Errorf("failed to create multiple style: %w", err)
	}
	dateTime := "yyyy-mm-dd hh:mm"
	if e.date, err = e.file.NewStyle(&excelize.Style{CustomNumFmt: &dateTime}); err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}
	return e, nil
}

// sheet is the content of one worksheet.
type sheet struct {
	e    *Exporter
	name string
	row  int
}

func (e *Exporter) newSheet(name string, columns ...string) (*sheet, error) {
	if _, err := e.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
	}
	// the default sheet goes away once a real one exists
	if idx, _ := e.file.GetSheetIndex("Sheet1"); idx >= 0 {
		if err := e.file.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}
	s := &sheet{e: e, name: name}
	if err := s.append(stringCells(columns)...); err != nil {
		return nil, err
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := e.file.SetCellStyle(name, first, last, e.header); err != nil {
		return nil, err
	}
	if e.options.FreezeHeaders {
		if err := e.file.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return nil, err
		}
	}
	for i, col := range columns {
		width := float64(len(col)) * 1.2
		letter, _ := excelize.ColumnNumberToName(i + 1)
		if err := e.file.SetColWidth(name, letter, letter, max(width, 14)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// cell is a value and its style id, zero for the default style.
type cell struct {
	value any
	style int
}

func stringCells(values []string) []cell {
	cells := make([]cell, len(values))
	for i, v := range values {
		cells[i] = cell{value: v}
	}
	return cells
}

func (e *Exporter) text(s string) cell { return cell{value: s} }
func (e *Exporter) integer(n int) cell { return cell{value: n} }

func (e *Exporter) amount(m proforma.Money) cell {
	return cell{value: m.Decimal().InexactFloat64(), style: e.money}
}

func (e *Exporter) nullAmount(m proforma.NullMoney) cell {
	if !m.Valid {
		return cell{value: "n/a"}
	}
	return e.amount(m.Money)
}

// ratio writes a percent as a fraction, formatted as a percentage.
func (e *Exporter) ratio(p proforma.Percent) cell {
	return cell{value: p.Decimal().Shift(-2).InexactFloat64(), style: e.percent}
}

func (e *Exporter) times(x proforma.Multiple) cell {
	return cell{value: x.Decimal().InexactFloat64(), style: e.multiple}
}

func (s *sheet) append(cells ...cell) error {
	s.row++
	for i, c := range cells {
		name, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		if err := s.e.file.SetCellValue(s.name, name, c.value); err != nil {
			return fmt.Errorf("failed to set cell %s!%s: %w", s.name, name, err)
		}
		if c.style != 0 {
			if err := s.e.file.SetCellStyle(s.name, name, name, c.style); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddInputs writes the raw inputs of a pro forma on the Inputs sheet.
func (e *Exporter) AddInputs(p proforma.Proforma) error {
	s, err := e.newSheet(InputsSheet, "Section", "Label", "Count", "Square Feet", "Price / SF", "Amount")
	if err != nil {
		return err
	}
	for u := range p.UnitMix() {
		err := s.append(e.text("Unit Mix"), e.text(u.UnitType), e.integer(u.Count), e.integer(u.SquareFeet),
			e.amount(u.PricePerSquareFoot), e.amount(u.Revenue()))
		if err != nil {
			return err
		}
	}
	for _, c := range []proforma.Category{proforma.OtherIncome, proforma.Land, proforma.HardCosts, proforma.SoftCosts} {
		for item := range p.Items(c) {
			if err := s.append(e.text(c.Title()), e.text(item.Label), e.text(""), e.text(""), e.text(""), e.amount(item.Amount)); err != nil {
				return err
			}
		}
	}
	f := p.Financing()
	for _, row := range [][]cell{
		{e.text("Financing"), e.text("Loan amount"), e.text(""), e.text(""), e.text(""), e.amount(f.LoanAmount)},
		{e.text("Financing"), e.text("Annual interest rate"), e.text(""), e.text(""), e.text(""), e.ratio(f.AnnualInterestRatePercent)},
		{e.text("Financing"), e.text("Term (months)"), e.integer(f.TermMonths)},
		{e.text("Financing"), e.text("Origination fee"), e.text(""), e.text(""), e.text(""), e.ratio(f.OriginationFeePercent)},
		{e.text("Financing"), e.text("Interest reserve"), e.text(""), e.text(""), e.text(""), e.amount(f.InterestReserve)},
	} {
		if err := s.append(row...); err != nil {
			return err
		}
	}
	for c := range p.Equity() {
		if err := s.append(e.text("Equity"), e.text(c.Source), e.text(""), e.text(""), e.text(""), e.amount(c.Amount)); err != nil {
			return err
		}
	}
	if irr, ok := p.IRREstimate(); ok {
		if err := s.append(e.text("Returns"), e.text("IRR estimate"), e.text(""), e.text(""), e.text(""), e.ratio(irr)); err != nil {
			return err
		}
	}
	return nil
}

// AddMetrics writes the derived metrics on the Metrics sheet.
func (e *Exporter) AddMetrics(m proforma.DerivedMetrics) error {
	s, err := e.newSheet(MetricsSheet, "Metric", "Value")
	if err != nil {
		return err
	}
	for _, row := range []struct {
		label string
		value cell
	}{
		{"Gross sales revenue", e.amount(m.GrossSalesRevenue)},
		{"Other income", e.amount(m.OtherIncomeTotal)},
		{"Total revenue", e.amount(m.TotalRevenue)},
		{"Land", e.amount(m.LandCosts)},
		{"Hard costs", e.amount(m.HardCosts)},
		{"Soft costs", e.amount(m.SoftCosts)},
		{"Total project costs", e.amount(m.TotalProjectCosts)},
		{"Financing costs", e.amount(m.TotalFinancingCosts)},
		{"Total costs", e.amount(m.TotalCosts)},
		{"Gross profit", e.amount(m.GrossProfit)},
		{"Gross margin", e.ratio(m.GrossMarginPercent)},
		{"Total equity", e.amount(m.TotalEquity)},
		{"ROI", e.ratio(m.ROIPercent)},
		{"Equity multiple", e.times(m.EquityMultiple)},
		{"Loan to cost", e.ratio(m.LoanToCostPercent)},
		{"Units", e.integer(m.TotalUnits)},
		{"Square feet", e.integer(m.TotalSquareFeet)},
		{"Revenue per unit", e.nullAmount(m.RevenuePerUnit)},
		{"Cost per unit", e.nullAmount(m.CostPerUnit)},
		{"Profit per unit", e.nullAmount(m.ProfitPerUnit)},
	} {
		if err := s.append(e.text(row.label), row.value); err != nil {
			return err
		}
	}
	return nil
}

// AddBalance writes the sources and uses of a pro forma.
func (e *Exporter) AddBalance(p proforma.Proforma, m proforma.DerivedMetrics, b proforma.BalanceStatus) error {
	s, err := e.newSheet(BalanceSheet, "Side", "Item", "Amount")
	if err != nil {
		return err
	}
	rows := [][]cell{{e.text("Sources"), e.text("Loan"), e.amount(p.Financing().LoanAmount)}}
	for c := range p.Equity() {
		rows = append(rows, []cell{e.text("Sources"), e.text(c.Source), e.amount(c.Amount)})
	}
	rows = append(rows,
		[]cell{e.text("Sources"), e.text("Total sources"), e.amount(b.TotalSources)},
		[]cell{e.text("Uses"), e.text("Land"), e.amount(m.LandCosts)},
		[]cell{e.text("Uses"), e.text("Hard costs"), e.amount(m.HardCosts)},
		[]cell{e.text("Uses"), e.text("Soft costs"), e.amount(m.SoftCosts)},
		[]cell{e.text("Uses"), e.text("Financing costs"), e.amount(m.TotalFinancingCosts)},
		[]cell{e.text("Uses"), e.text("Total uses"), e.amount(b.TotalUses)},
		[]cell{e.text("Balance"), e.text(b.State.String()), e.amount(b.Gap)},
	)
	for _, row := range rows {
		if err := s.append(row...); err != nil {
			return err
		}
	}
	return nil
}

// AddView writes the inputs, metrics and balance of a view.
func (e *Exporter) AddView(v proforma.View) error {
	p := v.Version.Snapshot
	if err := e.AddInputs(p); err != nil {
		return err
	}
	if err := e.AddMetrics(v.Metrics); err != nil {
		return err
	}
	return e.AddBalance(p, v.Metrics, v.Balance)
}

// AddHistory writes one row per version, in the order of versions.
func (e *Exporter) AddHistory(versions iter.Seq[proforma.ProformaVersion]) error {
	s, err := e.newSheet(HistorySheet, "Version", "Status", "Locked At", "Total Costs", "Gross Profit", "Balance", "Gap", "Notes")
	if err != nil {
		return err
	}
	for v := range versions {
		view := proforma.Evaluate(v)
		status, locked := "draft", e.text("")
		if v.Locked {
			status, locked = "locked", cell{value: v.CreatedAt, style: e.date}
		}
		err := s.append(e.text(v.ID.String()), e.text(status), locked,
			e.amount(view.Metrics.TotalCosts), e.amount(view.Metrics.GrossProfit),
			e.text(view.Balance.State.String()), e.amount(view.Balance.Gap), e.text(v.Notes))
		if err != nil {
			return err
		}
	}
	return nil
}

// Write writes the workbook in xlsx format.
func (e *Exporter) Write(w io.Writer) error {
	if idx, _ := e.file.GetSheetIndex(InputsSheet); idx >= 0 {
		e.file.SetActiveSheet(idx)
	}
	return e.file.Write(w)
}

// Close releases the workbook.
func (e *Exporter) Close() error {
	return e.file.Close()
}

// Workbook writes a view and the history it belongs to as an xlsx workbook.
func Workbook(w io.Writer, v proforma.View, history iter.Seq[proforma.ProformaVersion]) error {
	e, err := NewExporter(DefaultOptions())
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.AddView(v); err != nil {
		return err
	}
	if history != nil {
		if err := e.AddHistory(history); err != nil {
			return err
		}
	}
	return e.Write(w)
}
