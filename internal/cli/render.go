package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/structure"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// renderSummary prints the result box for one parsed document.
func renderSummary(w io.Writer, path string, res *pipeline.Result) {
	d := res.Document

	title := d.Metadata.Title
	if title == "" {
		title = "(untitled)"
	}

	lines := []string{
		fmt.Sprintf("%s %s", dimStyle.Render("File:"), path),
		fmt.Sprintf("%s %s", dimStyle.Render("Title:"), titleStyle.Render(title)),
	}
	if len(d.Metadata.Authors) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s",
			dimStyle.Render("Authors:"), strings.Join(d.Metadata.Authors, ", ")))
	}
	lines = append(lines,
		fmt.Sprintf("%s %s", dimStyle.Render("Doc ID:"), shortHash(d.FileHash)),
		fmt.Sprintf("%s %d  %s %d  %s %s",
			dimStyle.Render("Pages:"), d.PageCount,
			dimStyle.Render("Paragraphs:"), len(res.Paragraphs),
			dimStyle.Render("Strategy:"), successStyle.Render(string(res.StrategyUsed))),
	)
	if res.TOCResult != nil {
		sections := len(structure.FlattenSections(res.TOCResult.Sections))
		lines = append(lines, fmt.Sprintf("%s %d  %s %d",
			dimStyle.Render("Sections:"), sections,
			dimStyle.Render("References:"), len(res.TOCResult.References)))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	renderWarnings(w, res.Warnings)
}

// renderWarnings lists accumulated warnings, one per line.
func renderWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render("warning:"), warning)
	}
}

// renderTree prints a section forest with indentation by level.
func renderTree(w io.Writer, sections []*structure.Section) {
	var walk func(s *structure.Section, depth int)
	walk = func(s *structure.Section, depth int) {
		indent := strings.Repeat("  ", depth)
		pages := dimStyle.Render(fmt.Sprintf("pages %d-%d", s.StartPage, s.EndPage))
		extra := ""
		if len(s.References) > 0 {
			extra = dimStyle.Render(fmt.Sprintf("  %d references", len(s.References)))
		} else if len(s.Paragraphs) > 0 {
			extra = dimStyle.Render(fmt.Sprintf("  %d paragraphs", len(s.Paragraphs)))
		}
		fmt.Fprintf(w, "%s%s  %s%s\n", indent, titleStyle.Render(s.Title), pages, extra)
		for _, c := range s.Children {
			walk(c, depth+1)
		}
	}
	for _, s := range sections {
		walk(s, 0)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
