package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/structure"
)

var (
	outlineMinLevel int
	outlineMaxLevel int
	outlineMissing  bool
	outlineRefs     bool
	outlineJSON     bool
)

var outlineCmd = &cobra.Command{
	Use:   "outline <file.pdf>",
	Short: "Show the resolved section tree of a PDF",
	Long: `Outline resolves the document's section structure from its bookmarks,
augmented with heuristically discovered headings, and prints the tree with
per-section page ranges. Text extraction is limited to paragraph counts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parser.NewExtractor(log).ExtractFile(args[0])
		if err != nil {
			return err
		}

		sc := structure.DefaultConfig()
		sc.MaxScanPages = cfg.MaxScanPages
		if len(cfg.AnchorThresholds) > 0 {
			sc.AnchorThresholds = cfg.AnchorThresholds
		}
		opts := structure.DefaultOptions()
		opts.MinLevel = outlineMinLevel
		opts.MaxLevel = outlineMaxLevel
		opts.IncludeMissingSections = outlineMissing

		res, err := structure.NewResolver(sc, log).Resolve(d, opts)
		if err != nil {
			return err
		}

		if outlineJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		out := cmd.OutOrStdout()
		renderTree(out, res.Sections)
		if res.MissingSectionsFound > 0 {
			fmt.Fprintf(out, "%s %d sections discovered beyond the outline\n",
				dimStyle.Render("Note:"), res.MissingSectionsFound)
		}
		if outlineRefs {
			for _, ref := range res.References {
				fmt.Fprintf(out, "%s %s\n",
					dimStyle.Render(fmt.Sprintf("[%d]", ref.Number)), preview(ref.RawText, 120))
			}
		}
		renderWarnings(cmd.ErrOrStderr(), res.Warnings)
		return nil
	},
}

func init() {
	outlineCmd.Flags().IntVar(&outlineMinLevel, "min-level", 1, "Shallowest section level to extract")
	outlineCmd.Flags().IntVar(&outlineMaxLevel, "max-level", 2, "Deepest section level to extract")
	outlineCmd.Flags().BoolVar(&outlineMissing, "missing", true, "Discover sections absent from the outline")
	outlineCmd.Flags().BoolVar(&outlineRefs, "refs", false, "List parsed bibliography entries")
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "Dump the resolver result as JSON")

	rootCmd.AddCommand(outlineCmd)
}
