package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/store"
)

var (
	parseStrategy string
	parseOut      string
	parseJSON     bool
	parsePreview  int
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.pdf>",
	Short: "Parse one PDF into typed paragraphs",
	Long: `Parse extracts text blocks from one PDF, runs the strategy fallback
chain and writes the document envelope and paragraph array as JSON files
under the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strat, err := pipeline.ParseStrategy(parseStrategy)
		if err != nil {
			return err
		}

		started := time.Now()
		d, err := parser.NewExtractor(log).ExtractFile(args[0])
		if err != nil {
			return err
		}

		res, err := pipeline.NewCoordinator(cfg, log).Parse(d, strat)
		if err != nil {
			var stratErr *pipeline.StrategyError
			if errors.As(err, &stratErr) {
				renderWarnings(cmd.ErrOrStderr(), stratErr.Warnings)
			}
			return err
		}
		for _, problem := range pipeline.ValidateResult(res) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", errorStyle.Render("invalid:"), problem)
		}

		if parseJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		outDir := parseOut
		if outDir == "" {
			outDir = cfg.OutputDir
		}
		writer := store.NewWriter(outDir, log)
		env := store.Envelope{
			DocID:          d.FileHash,
			Strategy:       string(res.StrategyUsed),
			Metadata:       d.Metadata,
			PageCount:      d.PageCount,
			ParagraphCount: len(res.Paragraphs),
			Warnings:       res.Warnings,
			CreatedAt:      time.Now(),
		}
		if res.TOCResult != nil {
			env.Sections = res.TOCResult.Sections
			env.References = res.TOCResult.References
		}
		envPath, paraPath, err := writer.WriteResult(env, res.Paragraphs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		renderSummary(out, args[0], res)
		for i, p := range res.Paragraphs {
			if i >= parsePreview {
				break
			}
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render(fmt.Sprintf("[p%d %s]", p.Page, p.Type)), preview(p.Text, 100))
		}
		fmt.Fprintf(out, "%s %s, %s %s\n",
			dimStyle.Render("Wrote"), envPath, dimStyle.Render("and"), paraPath)
		fmt.Fprintf(out, "%s %.2fs\n", dimStyle.Render("Elapsed:"), time.Since(started).Seconds())
		return nil
	},
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

func init() {
	parseCmd.Flags().StringVarP(&parseStrategy, "strategy", "s", "auto", "Parsing strategy (auto, toc, standard)")
	parseCmd.Flags().StringVarP(&parseOut, "out", "o", "", "Output directory (default from DOCSTRUCT_OUTPUT_DIR)")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Dump the full result as JSON to stdout instead of writing files")
	parseCmd.Flags().IntVar(&parsePreview, "preview", 0, "Print the first N paragraphs after the summary")

	rootCmd.AddCommand(parseCmd)
}
