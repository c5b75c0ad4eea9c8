package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bdebruin1014/proforma"
	"github.com/google/subcommands"
)

type unitCmd struct {
	unitType   string
	count      int
	squareFeet int
	price      decimalFlag
}

func (*unitCmd) Name() string     { return "unit" }
func (*unitCmd) Synopsis() string { return "add or replace a unit type of the draft" }
func (*unitCmd) Usage() string {
	return `pfm unit -type <unit type> -count <n> -sf <square feet> -price <price per sf> [<name>]

  Adds a unit type to the unit mix of the draft, or replaces the unit type
  with the same name.
`
}

func (c *unitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.unitType, "type", "", "Unit type, e.g. 'Plan A'.")
	f.IntVar(&c.count, "count", 0, "Number of units.")
	f.IntVar(&c.squareFeet, "sf", 0, "Square feet of one unit.")
	f.Var(&c.price, "price", "Sale price per square foot.")
}

func (c *unitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		return s.SetUnit(proforma.Unit(c.unitType, c.count, c.squareFeet, c.price.money(currency(s))))
	})
}

type itemCmd struct {
	category string
	label    string
	amount   decimalFlag
}

func (*itemCmd) Name() string     { return "item" }
func (*itemCmd) Synopsis() string { return "add or replace a line item of the draft" }
func (*itemCmd) Usage() string {
	return `pfm item -c <land|hard|soft|income> -label <label> -amount <amount> [<name>]

  Adds a line item to a cost category, or to the other income, or replaces
  the item with the same label in that category.
`
}

func (c *itemCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "c", "", "Category: land, hard, soft or income.")
	f.StringVar(&c.label, "label", "", "Label of the item, unique within its category.")
	f.Var(&c.amount, "amount", "Amount of the item.")
}

func (c *itemCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cat, err := proforma.ParseCategory(c.category)
	if err != nil {
		return fail(err)
	}
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		amount := c.amount.money(currency(s))
		if cat == proforma.OtherIncome {
			return s.SetOtherIncome(c.label, amount)
		}
		return s.SetCost(cat, c.label, amount)
	})
}

type loanCmd struct {
	amount, rate, fee, reserve decimalFlag
	term                       int
}

func (*loanCmd) Name() string     { return "loan" }
func (*loanCmd) Synopsis() string { return "change the construction loan terms of the draft" }
func (*loanCmd) Usage() string {
	return `pfm loan [-amount <amount>] [-rate <percent>] [-term <months>] [-fee <percent>] [-reserve <amount>] [<name>]

  Changes the construction loan terms of the draft. Terms not given are kept.
`
}

func (c *loanCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.amount, "amount", "Loan amount.")
	f.Var(&c.rate, "rate", "Annual interest rate, in percent.")
	f.IntVar(&c.term, "term", 0, "Term in months.")
	f.Var(&c.fee, "fee", "Origination fee, in percent of the loan amount.")
	f.Var(&c.reserve, "reserve", "Interest reserve.")
}

func (c *loanCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		v, err := s.View()
		if err != nil {
			return proforma.View{}, err
		}
		cur := v.Version.Snapshot.Currency()
		terms := v.Version.Snapshot.Financing()
		if c.amount.set {
			terms.LoanAmount = c.amount.money(cur)
		}
		if c.rate.set {
			terms.AnnualInterestRatePercent = c.rate.percent()
		}
		if isSet(f, "term") {
			terms.TermMonths = c.term
		}
		if c.fee.set {
			terms.OriginationFeePercent = c.fee.percent()
		}
		if c.reserve.set {
			terms.InterestReserve = c.reserve.money(cur)
		}
		return s.SetFinancing(terms)
	})
}

type equityCmd struct {
	source string
	amount decimalFlag
}

func (*equityCmd) Name() string     { return "equity" }
func (*equityCmd) Synopsis() string { return "add or replace an equity contribution of the draft" }
func (*equityCmd) Usage() string {
	return `pfm equity -source <source> -amount <amount> [<name>]

  Adds an equity contribution to the draft, or replaces the contribution of
  the same source.
`
}

func (c *equityCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "", "Source of the equity, e.g. 'Developer'.")
	f.Var(&c.amount, "amount", "Amount contributed.")
}

func (c *equityCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		return s.SetEquity(proforma.Equity(c.source, c.amount.money(currency(s))))
	})
}

type irrCmd struct {
	percent decimalFlag
}

func (*irrCmd) Name() string     { return "irr" }
func (*irrCmd) Synopsis() string { return "set the IRR estimate of the draft" }
func (*irrCmd) Usage() string {
	return `pfm irr -percent <percent> [<name>]

  Sets the IRR estimate of the draft. It is an input, it is never computed.
`
}

func (c *irrCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.percent, "percent", "IRR estimate, in percent.")
}

func (c *irrCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.percent.set {
		fmt.Fprintln(os.Stderr, "Error: irr requires -percent")
		return subcommands.ExitUsageError
	}
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		return s.SetIRREstimate(c.percent.percent())
	})
}

type renameCmd struct {
	to string
}

func (*renameCmd) Name() string     { return "rename" }
func (*renameCmd) Synopsis() string { return "rename the draft" }
func (*renameCmd) Usage() string {
	return `pfm rename -to <new name> [<name>]

  Renames the pro forma in its draft. Locked versions keep their name.
`
}

func (c *renameCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.to, "to", "", "New name.")
}

func (c *renameCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) { return s.Rename(c.to) })
}

type rmCmd struct {
	unit   string
	item   string
	equity string
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove an input of the draft" }
func (*rmCmd) Usage() string {
	return `pfm rm (-unit <unit type> | -item <category>:<label> | -equity <source>) [<name>]

  Removes a unit type, a line item or an equity contribution from the draft.
  The last equity contribution cannot be removed.
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.unit, "unit", "", "Unit type to remove.")
	f.StringVar(&c.item, "item", "", "Line item to remove, as category:label, e.g. 'soft:Marketing'.")
	f.StringVar(&c.equity, "equity", "", "Equity source to remove.")
}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	n := 0
	for _, v := range []string{c.unit, c.item, c.equity} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		fmt.Fprintln(os.Stderr, "Error: rm requires exactly one of -unit, -item or -equity")
		return subcommands.ExitUsageError
	}
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		switch {
		case c.unit != "":
			return s.RemoveUnit(c.unit)
		case c.equity != "":
			return s.RemoveEquity(c.equity)
		}
		category, label, ok := strings.Cut(c.item, ":")
		if !ok {
			return proforma.View{}, errors.New("-item must be category:label")
		}
		cat, err := proforma.ParseCategory(category)
		if err != nil {
			return proforma.View{}, err
		}
		if cat == proforma.OtherIncome {
			return s.RemoveOtherIncome(label)
		}
		return s.RemoveCost(cat, label)
	})
}

type plugCmd struct {
	source string
}

func (*plugCmd) Name() string     { return "plug" }
func (*plugCmd) Synopsis() string { return "balance sources and uses with an equity source" }
func (*plugCmd) Usage() string {
	return `pfm plug -source <source> [<name>]

  Adjusts the contribution of an equity source so that the sources exactly
  cover the uses. See 'pfm topic balance'.
`
}

func (c *plugCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "", "Equity source that absorbs the gap.")
}

func (c *plugCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) { return s.Plug(c.source) })
}
