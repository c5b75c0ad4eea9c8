package proforma

import "fmt"

// BalanceState classifies the gap between sources and uses.
type BalanceState int

const (
	// Balanced means committed sources exactly cover the uses.
	Balanced BalanceState = iota
	// Underfunded means the uses exceed the committed sources.
	Underfunded
	// Overfunded means the committed sources exceed the uses.
	Overfunded
)

func (s BalanceState) String() string {
	switch s {
	case Balanced:
		return "balanced"
	case Underfunded:
		return "underfunded"
	case Overfunded:
		return "overfunded"
	default:
		return "unknown"
	}
}

func (s BalanceState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *BalanceState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "balanced":
		*s = Balanced
	case "underfunded":
		*s = Underfunded
	case "overfunded":
		*s = Overfunded
	default:
		return fmt.Errorf("unknown balance state: %q", text)
	}
	return nil
}

// BalanceStatus compares the sources (debt and equity) to the uses (total costs).
type BalanceStatus struct {
	TotalSources Money        `json:"totalSources"`
	TotalUses    Money        `json:"totalUses"`
	Gap          Money        `json:"gap"` // sources minus uses, negative when underfunded
	State        BalanceState `json:"state"`
}

// Reconcile checks the sources and uses identity of p given its metrics.
// It only reports: nothing is adjusted to force the balance.
func Reconcile(p Proforma, m DerivedMetrics) BalanceStatus {
	sources := p.Financing().LoanAmount.Add(m.TotalEquity)
	uses := m.TotalCosts
	gap := sources.Sub(uses)

	state := Balanced
	switch gap.Sign() {
	case -1:
		state = Underfunded
	case 1:
		state = Overfunded
	}
	return BalanceStatus{
		TotalSources: sources,
		TotalUses:    uses,
		Gap:          gap,
		State:        state,
	}
}

// PlugEquity returns a copy of p where the contribution of source absorbs the
// funding gap, so that sources equal uses. It fails when source is unknown or
// when the plugged contribution would become negative.
func PlugEquity(p Proforma, source string) (Proforma, error) {
	e, ok := p.Contribution(source)
	if !ok {
		return Proforma{}, fmt.Errorf("equity source %q: %w", source, ErrNotFound)
	}
	status := Reconcile(p, Derive(p))
	if status.State == Balanced {
		return p, nil
	}
	plugged := e.Amount.Sub(status.Gap)
	if plugged.IsNegative() {
		return Proforma{}, invalid(fmt.Sprintf("equity[%q].amount", source), "plug would be negative (%v), the project is overfunded by more than this contribution", plugged.Decimal())
	}
	e.Amount = plugged
	return p.SetEquity(e)
}
