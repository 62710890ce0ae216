package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies <file.pdf>",
	Short: "Compare parsing strategies on one PDF",
	Long: `Strategies runs every available strategy on the document independently
and reports what each produced, along with the recommended one. The
recommendation is a hint from the outline size; parse always runs the full
fallback chain regardless.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parser.NewExtractor(log).ExtractFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d bookmarks, %d pages\n",
			dimStyle.Render("Document:"), len(d.Bookmarks), d.PageCount)
		fmt.Fprintf(out, "%s %s\n",
			dimStyle.Render("Recommended:"),
			successStyle.Render(string(pipeline.RecommendStrategy(d))))

		results := pipeline.NewCoordinator(cfg, log).ParseWithAllStrategies(d)

		names := make([]string, 0, len(pipeline.AvailableStrategies()))
		for strat := range pipeline.AvailableStrategies() {
			if strat == pipeline.StrategyAuto {
				continue
			}
			names = append(names, string(strat))
		}
		sort.Strings(names)

		for _, name := range names {
			res, ok := results[pipeline.Strategy(name)]
			if !ok {
				fmt.Fprintf(out, "%s %s\n", errorStyle.Render("failed:"), name)
				continue
			}
			line := fmt.Sprintf("%s %s  %d paragraphs",
				successStyle.Render("ok:"), name, len(res.Paragraphs))
			if res.TOCResult != nil {
				line += fmt.Sprintf(", %d references, %d warnings",
					len(res.TOCResult.References), len(res.Warnings))
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
