package proforma

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// Proforma holds the raw inputs of a pro forma: unit mix, line items by
// category, financing terms and equity contributions.
//
// A Proforma is immutable: every edit returns a new value and leaves the
// receiver untouched, so a value can be shared between versions and readers
// without copying.
type Proforma struct {
	name      string
	currency  string
	units     []UnitMixEntry
	items     [numCategories][]LineItem
	financing FinancingTerms
	equity    []EquityContribution
	irr       Percent
	hasIRR    bool
}

// Inputs is the plain, mutable form of a Proforma used to build one.
type Inputs struct {
	Name        string
	Currency    string
	UnitMix     []UnitMixEntry
	Items       []LineItem // in order within each category
	Financing   FinancingTerms
	Equity      []EquityContribution
	IRREstimate *Percent // externally supplied estimate, informational only
}

// New validates the inputs and creates a Proforma. It returns all the
// validation failures joined.
func New(in Inputs) (Proforma, error) {
	cur := in.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	p := Proforma{
		name:      in.Name,
		currency:  cur,
		units:     slices.Clone(in.UnitMix),
		financing: in.Financing,
		equity:    slices.Clone(in.Equity),
	}
	for _, item := range in.Items {
		if item.Category.valid() {
			p.items[item.Category] = append(p.items[item.Category], item)
		}
	}
	if in.IRREstimate != nil {
		p.irr, p.hasIRR = *in.IRREstimate, true
	}
	p = p.normalized()

	var errs error
	for _, item := range in.Items {
		if !item.Category.valid() {
			errs = errors.Join(errs, item.Validate())
		}
	}
	if err := errors.Join(errs, p.Validate()); err != nil {
		return Proforma{}, err
	}
	return p, nil
}

// MustNew is like New but panics on error.
func MustNew(in Inputs) Proforma {
	p, err := New(in)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// Empty returns a blank pro forma that still satisfies every constraint: a
// single zero "Developer" equity contribution and a 12 months loan term.
func Empty(name, currency string) Proforma {
	if currency == "" {
		currency = DefaultCurrency
	}
	return MustNew(Inputs{
		Name:     name,
		Currency: currency,
		Financing: FinancingTerms{
			LoanAmount:      M(0, currency),
			TermMonths:      12,
			InterestReserve: M(0, currency),
		},
		Equity: []EquityContribution{Equity("Developer", M(0, currency))},
	})
}

// normalized sets the pro forma currency on all amounts.
func (p Proforma) normalized() Proforma {
	set := func(m Money) Money { return Money{value: m.value, cur: p.currency} }
	p.units = slices.Clone(p.units)
	for i := range p.units {
		p.units[i].PricePerSquareFoot = set(p.units[i].PricePerSquareFoot)
	}
	for c := range p.items {
		p.items[c] = slices.Clone(p.items[c])
		for i := range p.items[c] {
			p.items[c][i].Amount = set(p.items[c][i].Amount)
		}
	}
	p.financing.LoanAmount = set(p.financing.LoanAmount)
	p.financing.InterestReserve = set(p.financing.InterestReserve)
	p.equity = slices.Clone(p.equity)
	for i := range p.equity {
		p.equity[i].Amount = set(p.equity[i].Amount)
	}
	return p
}

// Validate checks every constraint of the pro forma and returns all the failures joined.
func (p Proforma) Validate() error {
	var errs error
	if err := ValidateCurrency(p.currency); err != nil {
		errs = errors.Join(errs, err)
	}

	seen := make(map[string]struct{})
	for _, u := range p.units {
		errs = errors.Join(errs, u.Validate())
		if _, dup := seen[u.UnitType]; dup {
			errs = errors.Join(errs, invalid(fmt.Sprintf("unitMix[%q]", u.UnitType), "duplicate unit type"))
		}
		seen[u.UnitType] = struct{}{}
	}

	for c, items := range p.items {
		seen := make(map[string]struct{})
		for _, item := range items {
			errs = errors.Join(errs, item.Validate())
			if _, dup := seen[item.Label]; dup {
				errs = errors.Join(errs, invalid(fmt.Sprintf("%s[%q]", Category(c), item.Label), "duplicate label"))
			}
			seen[item.Label] = struct{}{}
		}
	}

	errs = errors.Join(errs, p.financing.Validate())

	if len(p.equity) == 0 {
		errs = errors.Join(errs, invalid("equity", "at least one contribution is required"))
	}
	seen = make(map[string]struct{})
	for _, e := range p.equity {
		errs = errors.Join(errs, e.Validate())
		if _, dup := seen[e.Source]; dup {
			errs = errors.Join(errs, invalid(fmt.Sprintf("equity[%q]", e.Source), "duplicate source"))
		}
		seen[e.Source] = struct{}{}
	}
	return errs
}

// --- accessors ---

func (p Proforma) Name() string              { return p.name }
func (p Proforma) Currency() string          { return p.currency }
func (p Proforma) Financing() FinancingTerms { return p.financing }

// IRREstimate returns the externally supplied IRR estimate, if any.
func (p Proforma) IRREstimate() (Percent, bool) { return p.irr, p.hasIRR }

// UnitMix iterates over the unit mix in order.
func (p Proforma) UnitMix() iter.Seq[UnitMixEntry] { return slices.Values(p.units) }

// Items iterates over the line items of a category in order.
func (p Proforma) Items(c Category) iter.Seq[LineItem] {
	if !c.valid() {
		return func(func(LineItem) bool) {}
	}
	return slices.Values(p.items[c])
}

// Equity iterates over the equity contributions in order.
func (p Proforma) Equity() iter.Seq[EquityContribution] { return slices.Values(p.equity) }

// Unit returns the unit mix entry of that type.
func (p Proforma) Unit(unitType string) (UnitMixEntry, bool) {
	i := slices.IndexFunc(p.units, func(u UnitMixEntry) bool { return u.UnitType == unitType })
	if i < 0 {
		return UnitMixEntry{}, false
	}
	return p.units[i], true
}

// Item returns the line item with that label in a category.
func (p Proforma) Item(c Category, label string) (LineItem, bool) {
	if !c.valid() {
		return LineItem{}, false
	}
	i := slices.IndexFunc(p.items[c], func(item LineItem) bool { return item.Label == label })
	if i < 0 {
		return LineItem{}, false
	}
	return p.items[c][i], true
}

// Contribution returns the equity contribution of a source.
func (p Proforma) Contribution(source string) (EquityContribution, bool) {
	i := slices.IndexFunc(p.equity, func(e EquityContribution) bool { return e.Source == source })
	if i < 0 {
		return EquityContribution{}, false
	}
	return p.equity[i], true
}

// Inputs returns a copy of the pro forma inputs.
func (p Proforma) Inputs() Inputs {
	in := Inputs{
		Name:      p.name,
		Currency:  p.currency,
		UnitMix:   slices.Clone(p.units),
		Financing: p.financing,
		Equity:    slices.Clone(p.equity),
	}
	for _, items := range p.items {
		in.Items = append(in.Items, items...)
	}
	if p.hasIRR {
		irr := p.irr
		in.IRREstimate = &irr
	}
	return in
}

// --- edits ---

// checked validates an edited copy, so that an invalid edit never escapes.
func (p Proforma) checked() (Proforma, error) {
	p = p.normalized()
	if err := p.Validate(); err != nil {
		return Proforma{}, err
	}
	return p, nil
}

// WithName returns a copy of p renamed.
func (p Proforma) WithName(name string) Proforma {
	p.name = name
	return p
}

// SetUnit adds a unit mix entry, or replaces the entry of the same unit type in place.
func (p Proforma) SetUnit(u UnitMixEntry) (Proforma, error) {
	if err := u.Validate(); err != nil {
		return Proforma{}, err
	}
	p.units = upsert(p.units, u, func(x UnitMixEntry) bool { return x.UnitType == u.UnitType })
	return p.checked()
}

// RemoveUnit removes the unit mix entry of that type.
func (p Proforma) RemoveUnit(unitType string) (Proforma, error) {
	units, ok := remove(p.units, func(x UnitMixEntry) bool { return x.UnitType == unitType })
	if !ok {
		return Proforma{}, fmt.Errorf("unit type %q: %w", unitType, ErrNotFound)
	}
	p.units = units
	return p.checked()
}

// SetItem adds a line item to its category, or replaces the item with the same label in place.
func (p Proforma) SetItem(item LineItem) (Proforma, error) {
	if err := item.Validate(); err != nil {
		return Proforma{}, err
	}
	p.items[item.Category] = upsert(p.items[item.Category], item, func(x LineItem) bool { return x.Label == item.Label })
	return p.checked()
}

// RemoveItem removes the line item with that label from a category.
func (p Proforma) RemoveItem(c Category, label string) (Proforma, error) {
	if !c.valid() {
		return Proforma{}, invalid("category", "unknown category %d", int(c))
	}
	items, ok := remove(p.items[c], func(x LineItem) bool { return x.Label == label })
	if !ok {
		return Proforma{}, fmt.Errorf("%s item %q: %w", c, label, ErrNotFound)
	}
	p.items[c] = items
	return p.checked()
}

// SetFinancing replaces the financing terms.
func (p Proforma) SetFinancing(f FinancingTerms) (Proforma, error) {
	if err := f.Validate(); err != nil {
		return Proforma{}, err
	}
	p.financing = f
	return p.checked()
}

// SetEquity adds an equity contribution, or replaces the contribution of the same source in place.
func (p Proforma) SetEquity(e EquityContribution) (Proforma, error) {
	if err := e.Validate(); err != nil {
		return Proforma{}, err
	}
	p.equity = upsert(p.equity, e, func(x EquityContribution) bool { return x.Source == e.Source })
	return p.checked()
}

// RemoveEquity removes the contribution of a source. The last contribution cannot be removed.
func (p Proforma) RemoveEquity(source string) (Proforma, error) {
	equity, ok := remove(p.equity, func(x EquityContribution) bool { return x.Source == source })
	if !ok {
		return Proforma{}, fmt.Errorf("equity source %q: %w", source, ErrNotFound)
	}
	p.equity = equity
	return p.checked()
}

// SetIRREstimate records an externally computed IRR estimate.
func (p Proforma) SetIRREstimate(irr Percent) Proforma {
	p.irr, p.hasIRR = irr, true
	return p
}

// ClearIRREstimate removes the IRR estimate.
func (p Proforma) ClearIRREstimate() Proforma {
	p.irr, p.hasIRR = Percent{}, false
	return p
}

// upsert returns a new slice with v replacing the first element matching, or appended.
func upsert[T any](list []T, v T, match func(T) bool) []T {
	list = slices.Clone(list)
	if i := slices.IndexFunc(list, match); i >= 0 {
		list[i] = v
		return list
	}
	return append(list, v)
}

// remove returns a new slice without the first element matching.
func remove[T any](list []T, match func(T) bool) ([]T, bool) {
	i := slices.IndexFunc(list, match)
	if i < 0 {
		return list, false
	}
	return slices.Delete(slices.Clone(list), i, i+1), true
}
