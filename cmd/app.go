// Package cmd implements the pfm command line application to edit pro formas.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bdebruin1014/proforma"
	"github.com/bdebruin1014/proforma/renderer"
	"github.com/bdebruin1014/proforma/store"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// group is a set of related commands.
type group struct {
	name     string
	commands []subcommands.Command
}

// groups returns the commands of the application.
func groups() []group {
	return []group{
		{"pro formas", []subcommands.Command{
			&newCmd{}, &listCmd{}, &showCmd{}, &importCmd{}, &deleteCmd{},
		}},
		{"inputs", []subcommands.Command{
			&unitCmd{}, &itemCmd{}, &loanCmd{}, &equityCmd{}, &irrCmd{}, &renameCmd{}, &rmCmd{}, &plugCmd{},
		}},
		{"versions", []subcommands.Command{
			&lockCmd{}, &draftCmd{}, &discardCmd{}, &annotateCmd{}, &historyCmd{},
		}},
		{"reports", []subcommands.Command{
			&exportCmd{}, &queryCmd{}, &reviewCmd{}, &topicCmd{},
		}},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups() {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var storeDir = flag.String("store", "", "Folder of the pro forma histories. Defaults to $"+EnvStoreDir+".")

// app is what every command works with: the configuration, the repository
// and the pro formas it holds.
type app struct {
	cfg  Config
	log  *logrus.Logger
	repo store.Repository
	reg  *proforma.Registry
}

// openApp loads the configuration and every pro forma of the repository.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if *storeDir != "" {
		cfg.StoreDir = *storeDir
	}
	a := &app{cfg: cfg, log: newLogger(cfg.LogLevel)}

	if cfg.DatabaseURL != "" {
		a.repo, err = store.OpenSQLStore(ctx, cfg.DatabaseURL)
	} else {
		a.repo, err = store.NewFileStore(cfg.StoreDir)
	}
	if err != nil {
		return nil, err
	}
	a.reg, err = store.LoadRegistry(ctx, a.repo, proforma.WithLogger(a.log))
	if a.reg == nil {
		return nil, err
	}
	if err != nil {
		// the other pro formas remain usable, a broken one can still be deleted.
		a.log.WithError(err).Warn("some pro formas cannot be loaded")
	}
	a.log.WithField("count", a.reg.Len()).Debug("pro formas loaded")
	return a, nil
}

// lookup finds a pro forma by name or identifier. An empty ref selects the
// only pro forma of the repository.
func (a *app) lookup(ref string) (uuid.UUID, *proforma.Service, error) {
	if ref != "" {
		return a.reg.Lookup(ref)
	}
	if a.reg.Len() != 1 {
		return uuid.Nil, nil, fmt.Errorf("%d pro formas in the store, name one", a.reg.Len())
	}
	for id, s := range a.reg.All() {
		return id, s, nil
	}
	return uuid.Nil, nil, proforma.ErrNotFound
}

func (a *app) save(ctx context.Context, id uuid.UUID, s *proforma.Service) error {
	if err := store.SaveService(ctx, a.repo, id, s); err != nil {
		return fmt.Errorf("cannot save %q: %w", s.Name(), err)
	}
	return nil
}

// ref returns the single pro forma argument of f, if any.
func ref(f *flag.FlagSet) (string, error) { return refOf(f.Args()) }

func refOf(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("too many arguments: %q", args)
	}
}

// fail reports err and returns the matching exit status.
func fail(err error) subcommands.ExitStatus {
	invalid := proforma.ValidationErrors(err)
	if len(invalid) == 0 {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(os.Stderr, "Error: invalid inputs")
	for _, v := range invalid {
		fmt.Fprintf(os.Stderr, "  - %s\n", v)
	}
	return subcommands.ExitUsageError
}

// edit applies a mutation to a pro forma and saves it.
func edit(ctx context.Context, f *flag.FlagSet, mutate func(*proforma.Service) (proforma.View, error)) subcommands.ExitStatus {
	name, err := ref(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	id, s, err := a.lookup(name)
	if err != nil {
		return fail(err)
	}
	view, err := mutate(s)
	if err != nil {
		return fail(err)
	}
	if err := a.save(ctx, id, s); err != nil {
		return fail(err)
	}
	printStatus(view)
	return subcommands.ExitSuccess
}

// printStatus prints a one line status of a view.
func printStatus(v proforma.View) {
	fmt.Fprintf(stdout, "%s %v: profit %s, %s (%s)\n",
		v.Version.Snapshot.Name(), v.Version.ID,
		renderer.Compact(v.Metrics.GrossProfit),
		v.Balance.State, renderer.SignedCompact(v.Balance.Gap))
}
