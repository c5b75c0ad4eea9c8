package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
)

// stdout receives the reports.
var stdout io.Writer = os.Stdout

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// printMarkdown prints md, rendered for the terminal when stdout is one.
func printMarkdown(md string) error {
	return fprintMarkdown(stdout, md)
}

func fprintMarkdown(w io.Writer, md string) error {
	if !isTerminal(w) {
		_, err := fmt.Fprint(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		_, err := fmt.Fprint(w, md)
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		_, err := fmt.Fprint(w, md)
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
