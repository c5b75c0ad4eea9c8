package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/bdebruin1014/proforma"
	"github.com/bdebruin1014/proforma/agent"
	"github.com/bdebruin1014/proforma/docs"
	"github.com/bdebruin1014/proforma/export"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// selected loads the app and the pro forma named by args.
func selected(ctx context.Context, args []string) (*app, *proforma.Service, error) {
	name, err := refOf(args)
	if err != nil {
		return nil, nil, err
	}
	a, err := openApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	_, s, err := a.lookup(name)
	if err != nil {
		return nil, nil, err
	}
	return a, s, nil
}

type exportCmd struct {
	output  string
	version versionFlag
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a version to an Excel workbook" }
func (*exportCmd) Usage() string {
	return `pfm export -o <file.xlsx> [-v <version>] [<name>]

  Writes the inputs, metrics, sources and uses of a version, and the history
  of the pro forma, to an Excel workbook.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Workbook to write.")
	f.Var(&c.version, "v", "Version to export, the current one by default.")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.output == "" {
		fmt.Fprintln(os.Stderr, "Error: export requires -o")
		return subcommands.ExitUsageError
	}
	a, s, err := selected(ctx, f.Args())
	if err != nil {
		return fail(err)
	}
	view, err := viewOf(s, c.version.id)
	if err != nil {
		return fail(err)
	}
	out, err := os.Create(c.output)
	if err != nil {
		return fail(err)
	}
	if err := export.Workbook(out, view, s.Versions()); err != nil {
		out.Close()
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}
	a.log.WithField("file", c.output).Info("workbook exported")
	fmt.Fprintf(stdout, "Exported %s %v to %s\n", s.Name(), view.Version.ID, c.output)
	return subcommands.ExitSuccess
}

type queryCmd struct {
	version versionFlag
}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "extract values from a version with a JSONPath" }
func (*queryCmd) Usage() string {
	return `pfm query [-v <version>] <jsonpath> [<name>]

  Evaluates a JSONPath expression on the JSON view of a version: its inputs,
  derived metrics and balance status.

Usage Examples:
$ pfm query '$.metrics.grossProfit' 'Maple Row'
$ pfm query '$.version.snapshot.equity[*].source'
`
}

func (c *queryCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.version, "v", "Version to query, the current one by default.")
}

func (c *queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: query requires a JSONPath")
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	_, s, err := selected(ctx, f.Args()[1:])
	if err != nil {
		return fail(err)
	}
	view, err := viewOf(s, c.version.id)
	if err != nil {
		return fail(err)
	}
	result, err := query(view, path)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, result)
	return subcommands.ExitSuccess
}

// query evaluates path on the JSON form of v, and returns the result as JSON.
func query(v proforma.View, path string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		return "", err
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", fmt.Errorf("error evaluating %q: %w", path, err)
	}
	out, err := json.Marshal(jval)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type reviewCmd struct{}

func (*reviewCmd) Name() string     { return "review" }
func (*reviewCmd) Synopsis() string { return "review a pro forma with the AI assistant" }
func (*reviewCmd) Usage() string {
	return `pfm review [<name>] [<question>...]

  Starts an interactive review of a pro forma with a team of AI experts.
  Questions given on the command line are asked first.
  Requires GEMINI_API_KEY.
`
}

func (*reviewCmd) SetFlags(*flag.FlagSet) {}

func (*reviewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	var questions []string
	if len(args) > 1 {
		args, questions = args[:1], []string{strings.Join(args[1:], " ")}
	}
	a, s, err := selected(ctx, args)
	if err != nil {
		return fail(err)
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	reviewer := agent.NewReviewer(stdout, os.Stdin, a.cfg.Model, s, a.log)
	reviewer.Print = fprintMarkdown
	if err := reviewer.Start(ctx, client); err != nil {
		return fail(err)
	}
	if err := reviewer.Run(ctx, questions...); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `pfm topic [<topic>...]

  Shows the documentation of the given topics, the list of topics by default.
`
}

func (*topicCmd) SetFlags(*flag.FlagSet) {}

func (*topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := printMarkdown(doc); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
