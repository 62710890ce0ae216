// Package cli implements the docstruct command line: single document
// parsing, outline inspection, directory batch processing and strategy
// comparison.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/config"
)

var (
	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docstruct",
	Short: "Segment academic PDFs into structured, typed paragraphs",
	Long: `docstruct turns an academic PDF into a hierarchical section tree and a
stream of typed paragraphs with stable content-derived identifiers.

It reconstructs reading order from raw glyph geometry (including two-column
layouts), matches printed headings to the PDF outline or discovers missing
ones, computes per-section page and coordinate boundaries, parses
bibliographic references, links in-text citations and merges paragraph
fragments with adaptive font- and geometry-aware rules.`,
	SilenceUsage: true,
}

// Execute wires configuration and logging into the command tree and runs
// it. The exit code is left to the caller.
func Execute(c config.Config, l *slog.Logger) error {
	cfg = c
	if l == nil {
		l = slog.Default()
	}
	log = l
	return rootCmd.Execute()
}
