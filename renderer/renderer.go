package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

// SummaryRenderOptions holds configuration for rendering a summary.
type SummaryRenderOptions struct {
	SkipInputs bool // Do not render the raw inputs, only the metrics and the balance.
}

// RenderSummary renders the Summary of a version to a markdown string.
func RenderSummary(s *Summary, opts SummaryRenderOptions) string {
	partials := map[string]string{
		"summary_title":   "summary_title.md",
		"summary_metrics": "summary_metrics.md",
		"summary_balance": "summary_balance.md",
	}
	// An empty file name results in an empty template.
	if !opts.SkipInputs {
		partials["summary_inputs"] = "summary_inputs.md"
	} else {
		partials["summary_inputs"] = ""
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// RenderHistory renders the version history of a pro forma to a markdown string.
func RenderHistory(h *History) string {
	return renderTemplate("history", "history.md", nil, h)
}

// funcs are the formatting functions available to every template.
var funcs = template.FuncMap{
	"compact":     Compact,
	"nullCompact": NullCompact,
	"signed":      SignedCompact,
	"cell":        cell,
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		if file != "" {
			content, err = fs.ReadFile(templates, "templates/"+file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
