package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bdebruin1014/proforma"
	"github.com/bdebruin1014/proforma/renderer"
	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type newCmd struct {
	template string
	currency string
}

func (*newCmd) Name() string     { return "new" }
func (*newCmd) Synopsis() string { return "create a pro forma" }
func (*newCmd) Usage() string {
	return `pfm new [-template <name>] [-currency <code>] <name>

  Creates a pro forma from a template. Its history starts with a v1.0 draft.
  Templates: ` + strings.Join(slices.Collect(proforma.Templates()), ", ") + `.
`
}

func (c *newCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.template, "template", "blank", "Template of the new pro forma.")
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency. Defaults to $"+EnvCurrency+".")
}

func (c *newCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: new requires a name")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	cur := c.currency
	if cur == "" {
		cur = a.cfg.Currency
	}
	seed, err := proforma.Template(c.template, f.Arg(0), cur)
	if err != nil {
		return fail(err)
	}
	id, s := a.reg.Create(f.Arg(0), seed)
	if err := a.save(ctx, id, s); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Created %q (%v)\n", s.Name(), id)
	view, _ := s.View()
	printStatus(view)
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the pro formas" }
func (*listCmd) Usage() string {
	return `pfm list

  Lists the pro formas of the store with their current version and balance.
`
}

func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	var b strings.Builder
	b.WriteString("| Name | Id | Version | Gross Profit | Balance |\n|:---|:---|:---|---:|:---|\n")
	for id, s := range a.reg.All() {
		v, err := s.View()
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(&b, "| %s | %v | %v | %s | %s |\n", strings.ReplaceAll(s.Name(), "|", `\|`), id, v.Version.ID,
			renderer.Compact(v.Metrics.GrossProfit), v.Balance.State)
	}
	if err := printMarkdown(b.String()); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type showCmd struct {
	version    versionFlag
	skipInputs bool
	json       bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "show a version of a pro forma" }
func (*showCmd) Usage() string {
	return `pfm show [-v <version>] [-short] [-json] [<name>]

  Shows the metrics, the sources and uses, and the inputs of a version. The
  draft is shown by default, or the latest locked version if there is no draft.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.version, "v", "Version to show.")
	f.BoolVar(&c.skipInputs, "short", false, "Skip the inputs.")
	f.BoolVar(&c.json, "json", false, "Print the view as JSON.")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := ref(f)
	if err != nil {
		return fail(err)
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	_, s, err := a.lookup(name)
	if err != nil {
		return fail(err)
	}
	view, err := viewOf(s, c.version.id)
	if err != nil {
		return fail(err)
	}
	if c.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}
	if err := printMarkdown(renderer.RenderSummary(renderer.NewSummary(view), renderer.SummaryRenderOptions{SkipInputs: c.skipInputs})); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// viewOf returns the view of version id, or the current view when id is zero.
func viewOf(s *proforma.Service, id proforma.VersionID) (proforma.View, error) {
	if id.IsZero() {
		return s.View()
	}
	return s.ViewOf(id)
}

type importCmd struct {
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the draft with a JSON document" }
func (*importCmd) Usage() string {
	return `pfm import -f <file.json> [<name>]

  Replaces the inputs of the draft with a pro forma document, see
  'pfm topic document'. Use '-f -' to read the standard input.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "Document to import.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in := os.Stdin
	if c.file != "-" {
		var err error
		if in, err = os.Open(c.file); err != nil {
			return fail(err)
		}
		defer in.Close()
	}
	doc, err := proforma.DecodeProforma(in)
	if err != nil {
		return fail(err)
	}
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		if doc.Name() == "" {
			doc = doc.WithName(s.Name())
		}
		return s.Replace(doc)
	})
}

type deleteCmd struct {
	force bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a pro forma and its history" }
func (*deleteCmd) Usage() string {
	return `pfm delete -f <name>

  Deletes a pro forma with all its versions, locked ones included.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "f", false, "Confirm the deletion.")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || !c.force {
		fmt.Fprintln(os.Stderr, "Error: delete requires -f and a name")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	id, s, err := a.lookup(f.Arg(0))
	if err != nil {
		// a pro forma that cannot be loaded is deleted by identifier.
		broken, perr := uuid.Parse(f.Arg(0))
		if perr != nil || !errors.Is(err, proforma.ErrNotFound) {
			return fail(err)
		}
		if err := a.repo.Delete(ctx, broken); err != nil {
			return fail(err)
		}
		fmt.Fprintf(stdout, "Deleted %v\n", broken)
		return subcommands.ExitSuccess
	}
	if err := a.repo.Delete(ctx, id); err != nil {
		return fail(err)
	}
	if err := a.reg.Delete(id); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Deleted %q (%v)\n", s.Name(), id)
	return subcommands.ExitSuccess
}
