package proforma

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// This file contains the canonical JSON form of a pro forma and of its history.
//
// A pro forma is a single JSON document. Amounts are exact decimal numbers,
// the currency is carried once by the document. A history is a JSONL stream,
// one version per line in ascending order, so that it remains human-readable
// and diff friendly.

// validate checks documents before they are turned into domain values.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

type unitDoc struct {
	UnitType           string          `json:"unitType" validate:"required"`
	Count              int             `json:"count" validate:"gte=0"`
	SquareFeet         int             `json:"squareFeet" validate:"gt=0"`
	PricePerSquareFoot decimal.Decimal `json:"pricePerSquareFoot"`
}

type itemDoc struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type financingDoc struct {
	LoanAmount                decimal.Decimal `json:"loanAmount"`
	AnnualInterestRatePercent decimal.Decimal `json:"annualInterestRatePercent"`
	TermMonths                int             `json:"termMonths" validate:"gt=0"`
	OriginationFeePercent     decimal.Decimal `json:"originationFeePercent"`
	InterestReserve           decimal.Decimal `json:"interestReserve"`
}

type equityDoc struct {
	Source string          `json:"source" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// proformaDoc is the JSON document of a Proforma.
type proformaDoc struct {
	Name        string           `json:"name" validate:"max=200"`
	Currency    string           `json:"currency" validate:"omitempty,len=3,uppercase"`
	UnitMix     []unitDoc        `json:"unitMix" validate:"dive"`
	OtherIncome []itemDoc        `json:"otherIncome" validate:"dive"`
	Land        []itemDoc        `json:"land" validate:"dive"`
	HardCosts   []itemDoc        `json:"hardCosts" validate:"dive"`
	SoftCosts   []itemDoc        `json:"softCosts" validate:"dive"`
	Financing   financingDoc     `json:"financing"`
	Equity      []equityDoc      `json:"equity" validate:"required,min=1,dive"`
	IRREstimate *decimal.Decimal `json:"irrEstimate,omitempty"`
}

// items returns the items of a category in the document.
func (d *proformaDoc) items(c Category) *[]itemDoc {
	switch c {
	case Land:
		return &d.Land
	case HardCosts:
		return &d.HardCosts
	case SoftCosts:
		return &d.SoftCosts
	default:
		return &d.OtherIncome
	}
}

func (p Proforma) document() proformaDoc {
	d := proformaDoc{
		Name:     p.name,
		Currency: p.currency,
		UnitMix:  []unitDoc{},
		Equity:   []equityDoc{},
		Financing: financingDoc{
			LoanAmount:                p.financing.LoanAmount.value,
			AnnualInterestRatePercent: p.financing.AnnualInterestRatePercent.value,
			TermMonths:                p.financing.TermMonths,
			OriginationFeePercent:     p.financing.OriginationFeePercent.value,
			InterestReserve:           p.financing.InterestReserve.value,
		},
	}
	for _, u := range p.units {
		d.UnitMix = append(d.UnitMix, unitDoc{u.UnitType, u.Count, u.SquareFeet, u.PricePerSquareFoot.value})
	}
	for c := range Category(numCategories) {
		list := d.items(c)
		*list = []itemDoc{}
		for _, item := range p.items[c] {
			*list = append(*list, itemDoc{Label: item.Label, Amount: item.Amount.value})
		}
	}
	for _, e := range p.equity {
		d.Equity = append(d.Equity, equityDoc{Source: e.Source, Amount: e.Amount.value})
	}
	if p.hasIRR {
		irr := p.irr.value
		d.IRREstimate = &irr
	}
	return d
}

func (d proformaDoc) proforma() (Proforma, error) {
	if err := validateDocument(d); err != nil {
		return Proforma{}, err
	}
	cur := d.Currency
	in := Inputs{
		Name:     d.Name,
		Currency: cur,
		Financing: FinancingTerms{
			LoanAmount:                M(d.Financing.LoanAmount, cur),
			AnnualInterestRatePercent: P(d.Financing.AnnualInterestRatePercent),
			TermMonths:                d.Financing.TermMonths,
			OriginationFeePercent:     P(d.Financing.OriginationFeePercent),
			InterestReserve:           M(d.Financing.InterestReserve, cur),
		},
	}
	for _, u := range d.UnitMix {
		in.UnitMix = append(in.UnitMix, Unit(u.UnitType, u.Count, u.SquareFeet, M(u.PricePerSquareFoot, cur)))
	}
	for c := range Category(numCategories) {
		for _, item := range *d.items(c) {
			in.Items = append(in.Items, Item(c, item.Label, M(item.Amount, cur)))
		}
	}
	for _, e := range d.Equity {
		in.Equity = append(in.Equity, Equity(e.Source, M(e.Amount, cur)))
	}
	if d.IRREstimate != nil {
		irr := P(*d.IRREstimate)
		in.IRREstimate = &irr
	}
	return New(in)
}

// validateDocument checks the struct tags of a document and reports each
// violation as a *ValidationError named after the JSON path of the field.
func validateDocument(doc any) error {
	err := validate.Struct(doc)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var errs error
	for _, fe := range fieldErrs {
		// the namespace starts with the Go type name of the document.
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		reason := "failed on the " + fe.Tag() + " constraint"
		if fe.Param() != "" {
			reason += " " + fe.Param()
		}
		errs = errors.Join(errs, &ValidationError{Field: field, Reason: reason})
	}
	return errs
}

// MarshalJSON writes the canonical document of p.
func (p Proforma) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.document())
}

// UnmarshalJSON reads and validates a document.
func (p *Proforma) UnmarshalJSON(data []byte) error {
	var d proformaDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	q, err := d.proforma()
	if err != nil {
		return err
	}
	*p = q
	return nil
}

// DecodeProforma reads a single pro forma document.
func DecodeProforma(r io.Reader) (Proforma, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var d proformaDoc
	if err := dec.Decode(&d); err != nil {
		return Proforma{}, fmt.Errorf("cannot decode pro forma: %w", err)
	}
	return d.proforma()
}

// EncodeProforma writes p as an indented JSON document.
func EncodeProforma(w io.Writer, p Proforma) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p.document())
}

// maxLineSize bounds the size of a single version in a history stream.
const maxLineSize = 16 << 20

// issuedDoc is the trailing line of a history whose last issued identifier
// belongs to a discarded draft.
type issuedDoc struct {
	Issued *VersionID `json:"issued"`
}

// EncodeHistory writes the versions of rec as JSONL in ascending order of
// identifier, followed by an issued line when rec.Issued is ahead of them.
func EncodeHistory(w io.Writer, rec Record) error {
	versions := slices.SortedFunc(slices.Values(rec.Versions), func(a, b ProformaVersion) int { return a.ID.Compare(b.ID) })
	for _, v := range versions {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal version %v: %w", v.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write version %v: %w", v.ID, err)
		}
	}
	if len(versions) > 0 && !versions[len(versions)-1].ID.Less(rec.Issued) {
		return nil
	}
	if rec.Issued.IsZero() {
		return nil
	}
	data, err := json.Marshal(issuedDoc{Issued: &rec.Issued})
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write issued identifier: %w", err)
	}
	return nil
}

// DecodeHistory reads a JSONL stream of versions, and its optional issued
// line. Empty lines are skipped.
func DecodeHistory(r io.Reader) (Record, error) {
	var rec Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var issued issuedDoc
		if err := json.Unmarshal(line, &issued); err != nil {
			return Record{}, fmt.Errorf("format error on line %d: %w", n, err)
		}
		if issued.Issued != nil {
			rec.Issued = *issued.Issued
			continue
		}
		var v ProformaVersion
		if err := json.Unmarshal(line, &v); err != nil {
			return Record{}, fmt.Errorf("format error on line %d: %w", n, err)
		}
		rec.Versions = append(rec.Versions, v)
	}
	if err := scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("error reading history: %w", err)
	}
	for _, v := range rec.Versions {
		if rec.Issued.Less(v.ID) {
			rec.Issued = v.ID
		}
	}
	return rec, nil
}
