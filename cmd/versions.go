package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bdebruin1014/proforma"
	"github.com/bdebruin1014/proforma/renderer"
	"github.com/google/subcommands"
)

// draftID returns the identifier of the draft of s.
func draftID(s *proforma.Service) (proforma.VersionID, error) {
	d, ok := s.Draft()
	if !ok {
		return proforma.VersionID{}, fmt.Errorf("%q has no draft: %w", s.Name(), proforma.ErrInvalidState)
	}
	return d.ID, nil
}

// versionEdit is edit for the commands that work on versions: mutate does not
// return a view, the current one is printed.
func versionEdit(ctx context.Context, f *flag.FlagSet, mutate func(*proforma.Service) error) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		if err := mutate(s); err != nil {
			return proforma.View{}, err
		}
		return s.View()
	})
}

type lockCmd struct {
	version versionFlag
	notes   string
	major   bool
}

func (*lockCmd) Name() string     { return "lock" }
func (*lockCmd) Synopsis() string { return "lock the draft and open the next one" }
func (*lockCmd) Usage() string {
	return `pfm lock [-v <draft>] [-m <notes>] [-major] [<name>]

  Locks the draft: it will never change again. A new draft is opened right
  away as a copy of the locked version, with a minor or a major bump.
`
}

func (c *lockCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.version, "v", "Draft to lock, the current draft by default.")
	f.StringVar(&c.notes, "m", "", "Notes of the locked version.")
	f.BoolVar(&c.major, "major", false, "Open the next draft with a major bump.")
}

func (c *lockCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return versionEdit(ctx, f, func(s *proforma.Service) error {
		id := c.version.id
		if id.IsZero() {
			var err error
			if id, err = draftID(s); err != nil {
				return err
			}
		}
		locked, draft, err := s.Lock(id, c.notes, bump(c.major))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Locked %v, opened draft %v\n", locked.ID, draft.ID)
		return nil
	})
}

type draftCmd struct {
	from  versionFlag
	major bool
}

func (*draftCmd) Name() string     { return "draft" }
func (*draftCmd) Synopsis() string { return "open a draft from a locked version" }
func (*draftCmd) Usage() string {
	return `pfm draft -from <version> [-major] [<name>]

  Opens a new draft as a copy of a locked version. There must be no draft.
  Without -from the draft starts from a blank pro forma.
`
}

func (c *draftCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.from, "from", "Locked version to copy.")
	f.BoolVar(&c.major, "major", false, "Number the draft with a major bump.")
}

func (c *draftCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) {
		return s.CreateDraft(c.from.id, bump(c.major))
	})
}

type discardCmd struct {
	version versionFlag
}

func (*discardCmd) Name() string     { return "discard" }
func (*discardCmd) Synopsis() string { return "discard the draft" }
func (*discardCmd) Usage() string {
	return `pfm discard [-v <draft>] [<name>]

  Discards the draft. Its version number is never reused.
`
}

func (c *discardCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.version, "v", "Draft to discard, the current draft by default.")
}

func (c *discardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return versionEdit(ctx, f, func(s *proforma.Service) error {
		id := c.version.id
		if id.IsZero() {
			var err error
			if id, err = draftID(s); err != nil {
				return err
			}
		}
		if err := s.Discard(id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Discarded %v\n", id)
		return nil
	})
}

type annotateCmd struct {
	notes string
}

func (*annotateCmd) Name() string     { return "annotate" }
func (*annotateCmd) Synopsis() string { return "set the notes of the draft" }
func (*annotateCmd) Usage() string {
	return `pfm annotate -m <notes> [<name>]

  Sets the notes of the draft. Notes of locked versions are frozen.
`
}

func (c *annotateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.notes, "m", "", "Notes.")
}

func (c *annotateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return edit(ctx, f, func(s *proforma.Service) (proforma.View, error) { return s.Annotate(c.notes) })
}

type historyCmd struct{}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list the versions of a pro forma" }
func (*historyCmd) Usage() string {
	return `pfm history [<name>]

  Lists the versions of a pro forma, most recent first.
`
}

func (*historyCmd) SetFlags(*flag.FlagSet) {}

func (*historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := ref(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	_, s, err := a.lookup(name)
	if err != nil {
		return fail(err)
	}
	if err := printMarkdown(renderer.RenderHistory(renderer.NewHistory(s.Name(), s.Versions()))); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
