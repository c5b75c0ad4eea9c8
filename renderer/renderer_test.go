package renderer

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bdebruin1014/proforma"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// outline is what a rendered markdown document is made of.
type outline struct {
	headings []string
	cells    []string
}

// textOf concatenates the text segments below n.
func textOf(n ast.Node, src []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// parse parses a markdown document with tables and returns its outline.
func parse(t *testing.T, doc string) outline {
	t.Helper()
	src := []byte(doc)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	var o outline
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			o.headings = append(o.headings, textOf(n, src))
			return ast.WalkSkipChildren, nil
		case *east.TableCell:
			o.cells = append(o.cells, strings.TrimSpace(textOf(n, src)))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("ast.Walk() error = %v", err)
	}
	return o
}

func townhomes(t *testing.T) proforma.View {
	t.Helper()
	p, err := proforma.Template("townhomes", "Maple Row", "USD")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	return proforma.Evaluate(proforma.ProformaVersion{
		ID:        proforma.V(1, 0),
		CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Locked:    true,
		Notes:     "bid set",
		Snapshot:  p,
	})
}

func TestRenderSummary(t *testing.T) {
	doc := RenderSummary(NewSummary(townhomes(t)), SummaryRenderOptions{})
	o := parse(t, doc)

	wantHeadings := []string{
		"Maple Row v1.0",
		"Returns",
		"Sources & Uses",
		"Unit Mix",
		"Other Income",
		"Land",
		"Hard Costs",
		"Soft Costs",
		"Financing",
	}
	if !slices.Equal(o.headings, wantHeadings) {
		t.Errorf("headings = %q, want %q", o.headings, wantHeadings)
	}

	for _, want := range []string{
		"$8.34M", // total revenue
		"$7.97M", // total costs
		"$367K",  // gross profit
		"4.40%",  // gross margin
		"14.66%", // roi
		"1.15x",  // equity multiple
		"72.78%", // loan to cost
	} {
		if !slices.Contains(o.cells, want) {
			t.Errorf("cells do not contain %q:\n%s", want, doc)
		}
	}
	for _, want := range []string{
		"$31K",               // profit per unit
		"$2,600,000.00",      // land acquisition
		"$8,136,000.00",      // gross sales
		"18 months",          // loan term
		"1.00% ($58,000.00)", // origination fee
	} {
		if !slices.Contains(o.cells, want) {
			t.Errorf("cells do not contain %q:\n%s", want, doc)
		}
	}
	if !strings.Contains(doc, "**Balance:** overfunded (+$331K)") {
		t.Errorf("RenderSummary() has no balance line:\n%s", doc)
	}
	if !strings.Contains(doc, "> bid set") {
		t.Errorf("RenderSummary() has no notes:\n%s", doc)
	}
}

func TestRenderSummary_SkipInputs(t *testing.T) {
	doc := RenderSummary(NewSummary(townhomes(t)), SummaryRenderOptions{SkipInputs: true})
	o := parse(t, doc)
	if want := []string{"Maple Row v1.0", "Returns", "Sources & Uses"}; !slices.Equal(o.headings, want) {
		t.Errorf("headings = %q, want %q", o.headings, want)
	}
}

func TestRenderSummary_Empty(t *testing.T) {
	view := proforma.Evaluate(proforma.ProformaVersion{ID: proforma.V(1, 0), Snapshot: proforma.Empty("Lot 7", "USD")})
	doc := RenderSummary(NewSummary(view), SummaryRenderOptions{})
	if strings.Contains(doc, "error") {
		t.Fatalf("RenderSummary() failed:\n%s", doc)
	}
	if !strings.Contains(doc, "No units.") || !strings.Contains(doc, "No items.") {
		t.Errorf("RenderSummary() of an empty pro forma:\n%s", doc)
	}
	o := parse(t, doc)
	if !slices.Contains(o.cells, "n/a") {
		t.Errorf("per unit metrics should be n/a:\n%s", doc)
	}
}

func TestRenderHistory(t *testing.T) {
	s := proforma.NewService(townhomes(t).Version.Snapshot)
	if _, _, err := s.Lock(proforma.V(1, 0), "bid | round 1", proforma.Minor); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	doc := RenderHistory(NewHistory("Maple Row", s.Versions()))
	o := parse(t, doc)

	if want := []string{"Maple Row History"}; !slices.Equal(o.headings, want) {
		t.Errorf("headings = %q, want %q", o.headings, want)
	}
	for _, want := range []string{"v1.1", "draft", "v1.0", "locked", "overfunded"} {
		if !slices.Contains(o.cells, want) {
			t.Errorf("cells do not contain %q:\n%s", want, doc)
		}
	}
	if !strings.Contains(doc, `bid \| round 1`) {
		t.Errorf("notes are not escaped:\n%s", doc)
	}
	if i, j := slices.Index(o.cells, "v1.1"), slices.Index(o.cells, "v1.0"); i > j {
		t.Errorf("history is not most recent first:\n%s", doc)
	}
}

func TestCompact(t *testing.T) {
	testCases := []struct {
		m      proforma.Money
		want   string
		signed string
	}{
		{proforma.M(2_500_000, "USD"), "$2.50M", "+$2.50M"},
		{proforma.M(125_000, "USD"), "$125K", "+$125K"},
		{proforma.M(999_600, "USD"), "$1.00M", "+$1.00M"},
		{proforma.M(950, "USD"), "$950", "+$950"},
		{proforma.M(-1_200_000, "USD"), "-$1.20M", "-$1.20M"},
		{proforma.M(0, "USD"), "$0", "-"},
		{proforma.M(-0.2, "USD"), "$0", "-"},
		{proforma.M(3_000, "EUR"), "€3K", "+€3K"},
	}
	for _, tc := range testCases {
		if got := Compact(tc.m); got != tc.want {
			t.Errorf("Compact(%v) = %q, want %q", tc.m.Decimal(), got, tc.want)
		}
		if got := SignedCompact(tc.m); got != tc.signed {
			t.Errorf("SignedCompact(%v) = %q, want %q", tc.m.Decimal(), got, tc.signed)
		}
	}
	if got := NullCompact(proforma.NullMoney{}); got != "n/a" {
		t.Errorf("NullCompact(invalid) = %q, want n/a", got)
	}
}
