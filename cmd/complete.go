package cmd

import (
	"context"
	"flag"
	"slices"

	"github.com/bdebruin1014/proforma"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// names predicts the names of the stored pro formas.
var names = complete.PredictFunc(func(prefix string) []string {
	a, err := openApp(context.Background())
	if err != nil {
		return nil
	}
	var list []string
	for _, s := range a.reg.All() {
		list = append(list, s.Name())
	}
	return list
})

// flagPredictors overrides the default predictor of some flags.
var flagPredictors = map[string]complete.Predictor{
	"template": predict.Set(slices.Collect(proforma.Templates())),
	"c":        predict.Set{"land", "hard", "soft", "income"},
	"o":        predict.Files("*.xlsx"),
	"f":        predict.Files("*.json"),
	"store":    predict.Dirs("*"),
}

// Completion builds the shell completion of the commands registered in c.
// Call its Complete method before parsing the command line.
func Completion(c *subcommands.Commander, topLevel *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flagsOf(topLevel),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: flagsOf(fs), Args: names}
		if cmd.Name() == "topic" {
			sub.Args = topics
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}

func flagsOf(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := flagPredictors[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}
