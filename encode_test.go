package proforma

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestProforma_JSONRoundTrip(t *testing.T) {
	p := scenario(t).SetIRREstimate(P(18.5))

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var q Proforma
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	again, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", again, data)
	}
	if got, want := Derive(q).GrossProfit, Derive(p).GrossProfit; !got.Equal(want) {
		t.Errorf("GrossProfit = %v, want %v", got.Decimal(), want.Decimal())
	}
	if irr, ok := q.IRREstimate(); !ok || !irr.Equal(P(18.5)) {
		t.Errorf("IRREstimate() = %v, %v, want 18.5%%", irr, ok)
	}
}

func TestProforma_JSONDocument(t *testing.T) {
	data, err := json.Marshal(scenario(t))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"currency":"USD"`,
		`{"unitType":"Plan A","count":4,"squareFeet":1800,"pricePerSquareFoot":325}`,
		`"land":[{"label":"Land acquisition","amount":2600000},{"label":"Closing costs","amount":45000}]`,
		`"annualInterestRatePercent":8.5`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("json.Marshal() = %s, want it to contain %s", s, want)
		}
	}
	if strings.Contains(s, "irrEstimate") {
		t.Errorf("json.Marshal() = %s, want no irrEstimate", s)
	}
}

func TestDecodeProforma_Invalid(t *testing.T) {
	testCases := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name:      "missing equity",
			doc:       `{"name":"x","currency":"USD","financing":{"termMonths":12}}`,
			wantField: "equity",
		},
		{
			name:      "empty unit type",
			doc:       `{"currency":"USD","unitMix":[{"unitType":"","count":1,"squareFeet":900,"pricePerSquareFoot":200}],"financing":{"termMonths":12},"equity":[{"source":"Dev","amount":0}]}`,
			wantField: "unitMix[0].unitType",
		},
		{
			name:      "lower case currency",
			doc:       `{"currency":"usd","financing":{"termMonths":12},"equity":[{"source":"Dev","amount":0}]}`,
			wantField: "currency",
		},
		{
			name:      "negative loan",
			doc:       `{"currency":"USD","financing":{"loanAmount":-5,"termMonths":12},"equity":[{"source":"Dev","amount":0}]}`,
			wantField: "financing.loanAmount",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeProforma(strings.NewReader(tc.doc))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("DecodeProforma() error = %v, want %v", err, ErrValidation)
			}
			var fields []string
			for _, ve := range ValidationErrors(err) {
				fields = append(fields, ve.Field)
			}
			if !slices.Contains(fields, tc.wantField) {
				t.Errorf("DecodeProforma() fields = %q, want %q", fields, tc.wantField)
			}
		})
	}

	if _, err := DecodeProforma(strings.NewReader(`{"color":"blue"}`)); err == nil {
		t.Error("DecodeProforma(unknown field) expected an error")
	}
}

func TestHistory_RoundTrip(t *testing.T) {
	s := NewService(scenario(t), WithClock(fixedClock()))
	if _, _, err := s.Lock(V(1, 0), "first bid", Minor); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := s.SetCost(HardCosts, "Contingency", USD(175000)); err != nil {
		t.Fatalf("SetCost() error = %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeHistory(&buf, s.Record()); err != nil {
		t.Fatalf("EncodeHistory() error = %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("EncodeHistory() wrote %d lines, want 2", n)
	}

	rec, err := DecodeHistory(&buf)
	if err != nil {
		t.Fatalf("DecodeHistory() error = %v", err)
	}
	if rec.Issued != V(1, 1) {
		t.Errorf("DecodeHistory() issued = %v, want v1.1", rec.Issued)
	}
	list := rec.Versions
	if len(list) != 2 {
		t.Fatalf("DecodeHistory() = %d versions, want 2", len(list))
	}
	first, second := list[0], list[1]
	if first.ID != V(1, 0) || !first.Locked || first.Notes != "first bid" {
		t.Errorf("first version = %v locked=%v notes=%q", first.ID, first.Locked, first.Notes)
	}
	if second.ID != V(1, 1) || second.Locked {
		t.Errorf("second version = %v locked=%v, want an unlocked v1.1", second.ID, second.Locked)
	}
	if !first.CreatedAt.Equal(s.History()[0].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, s.History()[0].CreatedAt)
	}
	if want := USD(7984400); !Derive(second.Snapshot).TotalCosts.Equal(want) {
		t.Errorf("draft TotalCosts = %v, want %v", Derive(second.Snapshot).TotalCosts.Decimal(), want.Decimal())
	}
}

func TestHistory_DiscardedDraft(t *testing.T) {
	s := NewService(scenario(t), WithClock(fixedClock()))
	if _, _, err := s.Lock(V(1, 0), "", Minor); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := s.Discard(V(1, 1)); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeHistory(&buf, s.Record()); err != nil {
		t.Fatalf("EncodeHistory() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[1] != `{"issued":"v1.1"}` {
		t.Fatalf("EncodeHistory() = %q, want a trailing issued line", lines)
	}

	rec, err := DecodeHistory(&buf)
	if err != nil {
		t.Fatalf("DecodeHistory() error = %v", err)
	}
	if len(rec.Versions) != 1 || rec.Issued != V(1, 1) {
		t.Errorf("DecodeHistory() = %d versions issued %v, want 1 version issued v1.1", len(rec.Versions), rec.Issued)
	}
}

func TestDecodeHistory_FormatError(t *testing.T) {
	_, err := DecodeHistory(strings.NewReader("\n{not json}\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("DecodeHistory() error = %v, want a format error on line 2", err)
	}
}
