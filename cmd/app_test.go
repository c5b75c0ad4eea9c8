package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bdebruin1014/proforma"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// setup isolates the application in a temporary store.
func setup(t *testing.T) {
	t.Helper()
	t.Setenv(EnvStoreDir, t.TempDir())
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvCurrency, "")
	t.Setenv(EnvLogLevel, "error")
}

// run executes the command line args, and returns what it printed.
func run(t *testing.T, args ...string) (string, subcommands.ExitStatus) {
	t.Helper()
	fs := flag.NewFlagSet("pfm", flag.ContinueOnError)
	c := subcommands.NewCommander(fs, "pfm")
	Register(c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("cannot parse %q: %v", args, err)
	}

	var out bytes.Buffer
	stdout = &out
	defer func() { stdout = os.Stdout }()
	status := c.Execute(context.Background())
	return out.String(), status
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, status := run(t, args...)
	if status != subcommands.ExitSuccess {
		t.Fatalf("pfm %s exited with %v, output:\n%s", strings.Join(args, " "), status, out)
	}
	return out
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvStoreDir, "")
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvCurrency, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvModel, "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.StoreDir != ".proforma" || cfg.Currency != "USD" || cfg.LogLevel != logrus.WarnLevel {
		t.Errorf("LoadConfig() defaults = %+v", cfg)
	}

	t.Setenv(EnvCurrency, "EUR")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDatabaseURL, "postgres://localhost/deals")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.Currency != "EUR" || cfg.LogLevel != logrus.DebugLevel || cfg.DatabaseURL != "postgres://localhost/deals" {
		t.Errorf("LoadConfig() = %+v", cfg)
	}

	t.Setenv(EnvLogLevel, "chatty")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with an invalid log level should fail")
	}
}

func TestQuery(t *testing.T) {
	seed, err := proforma.Template("townhomes", "Maple Row", "USD")
	if err != nil {
		t.Fatal(err)
	}
	view, err := proforma.NewService(seed).View()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"$.metrics.totalCosts", `7969400`},
		{"$.metrics.grossProfit", `366600`},
		{"$.balance.state", `"overfunded"`},
		{"$.version.id", `"v1.0"`},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, err := query(view, tc.path)
			if err != nil {
				t.Fatalf("query(%q) unexpected error: %v", tc.path, err)
			}
			if got != tc.want {
				t.Errorf("query(%q) = %s, want %s", tc.path, got, tc.want)
			}
		})
	}
}

func TestCompletion(t *testing.T) {
	fs := flag.NewFlagSet("pfm", flag.ContinueOnError)
	fs.String("store", "", "")
	c := subcommands.NewCommander(fs, "pfm")
	Register(c)

	root := Completion(c, fs)
	if _, ok := root.Flags["store"]; !ok {
		t.Error("Completion() misses the -store flag")
	}
	for _, g := range groups() {
		for _, cmd := range g.commands {
			if _, ok := root.Sub[cmd.Name()]; !ok {
				t.Errorf("Completion() misses the %q command", cmd.Name())
			}
		}
	}
	if _, ok := root.Sub["item"].Flags["c"]; !ok {
		t.Error("Completion() misses the -c flag of item")
	}
}

func TestCommands(t *testing.T) {
	setup(t)

	out := mustRun(t, "new", "-template", "townhomes", "Maple Row")
	if !strings.Contains(out, `Created "Maple Row"`) || !strings.Contains(out, "overfunded") {
		t.Errorf("new output = %q", out)
	}

	mustRun(t, "item", "-c", "hard", "-label", "Contingency", "-amount", "175000", "maple row")
	if got := mustRun(t, "query", "$.metrics.totalCosts"); strings.TrimSpace(got) != `7984400` {
		t.Errorf("total costs after the contingency change = %s, want 7984400", got)
	}

	out = mustRun(t, "lock", "-m", "first cut")
	if !strings.Contains(out, "Locked v1.0, opened draft v1.1") {
		t.Errorf("lock output = %q", out)
	}

	mustRun(t, "irr", "-percent", "18.5")
	out = mustRun(t, "history")
	for _, want := range []string{"| v1.0 | locked |", "| v1.1 | draft |", "first cut"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output misses %q:\n%s", want, out)
		}
	}

	// Locked versions are still readable.
	if got := mustRun(t, "query", "-v", "v1.0", "$.version.locked"); strings.TrimSpace(got) != "true" {
		t.Errorf("v1.0 locked = %s, want true", got)
	}

	out = mustRun(t, "discard")
	if !strings.Contains(out, "Discarded v1.1") {
		t.Errorf("discard output = %q", out)
	}
	if _, status := run(t, "irr", "-percent", "20"); status != subcommands.ExitFailure {
		t.Errorf("irr without a draft exited with %v, want %v", status, subcommands.ExitFailure)
	}

	out = mustRun(t, "draft", "-from", "v1.0", "-major")
	if !strings.Contains(out, "v2.0") {
		t.Errorf("draft output = %q", out)
	}

	if _, status := run(t, "equity", "-source", "Developer", "-amount", "-5"); status != subcommands.ExitUsageError {
		t.Errorf("negative equity exited with %v, want %v", status, subcommands.ExitUsageError)
	}

	out = mustRun(t, "list")
	if !strings.Contains(out, "Maple Row") || !strings.Contains(out, "v2.0") {
		t.Errorf("list output = %q", out)
	}

	mustRun(t, "delete", "-f", "Maple Row")
	out = mustRun(t, "list")
	if strings.Contains(out, "Maple Row") {
		t.Errorf("list after delete = %q", out)
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPrintMarkdownErrors(t *testing.T) {
	setup(t)
	stdout = brokenWriter{}
	t.Cleanup(func() { stdout = os.Stdout })

	if err := printMarkdown("# Title\n"); err == nil {
		t.Error("printMarkdown() on a broken writer should fail")
	}

	fs := flag.NewFlagSet("pfm", flag.ContinueOnError)
	c := subcommands.NewCommander(fs, "pfm")
	Register(c)
	if err := fs.Parse([]string{"topic"}); err != nil {
		t.Fatal(err)
	}
	if status := c.Execute(context.Background()); status != subcommands.ExitFailure {
		t.Errorf("topic on a broken writer exited with %v, want %v", status, subcommands.ExitFailure)
	}
}

func TestDeleteUnloadable(t *testing.T) {
	setup(t)
	mustRun(t, "new", "Elm")

	broken := uuid.New()
	path := filepath.Join(os.Getenv(EnvStoreDir), broken.String()+".jsonl")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	// the other pro formas remain usable.
	if out := mustRun(t, "list"); !strings.Contains(out, "Elm") {
		t.Errorf("list output = %q", out)
	}
	if out := mustRun(t, "delete", "-f", broken.String()); !strings.Contains(out, "Deleted") {
		t.Errorf("delete output = %q", out)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("history file of %v still exists: %v", broken, err)
	}
}

func TestDiscardOnlyDraft(t *testing.T) {
	setup(t)
	mustRun(t, "new", "Oak")
	if _, status := run(t, "discard", "Oak"); status != subcommands.ExitFailure {
		t.Errorf("discard of the only draft exited with %v, want %v", status, subcommands.ExitFailure)
	}
	if out := mustRun(t, "history", "Oak"); !strings.Contains(out, "| v1.0 | draft |") {
		t.Errorf("history output = %q", out)
	}
}
