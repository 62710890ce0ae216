package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/store"
)

var (
	batchStrategy string
	batchOut      string
	batchWorkers  int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Parse every PDF under a directory",
	Long: `Batch walks a directory tree, queues every .pdf file onto the worker
pool and writes one envelope and one paragraph array per document under the
output directory. Failed documents are reported and do not stop the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strat, err := pipeline.ParseStrategy(batchStrategy)
		if err != nil {
			return err
		}
		paths, err := findPDFs(args[0])
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no .pdf files under %s", args[0])
		}

		runCfg := cfg
		if batchWorkers > 0 {
			runCfg.WorkerCount = batchWorkers
		}
		if runCfg.MaxQueueSize < len(paths) {
			runCfg.MaxQueueSize = len(paths)
		}
		outDir := batchOut
		if outDir == "" {
			outDir = cfg.OutputDir
		}

		orch := pipeline.NewOrchestrator(runCfg, store.NewWriter(outDir, log), log)
		orch.Start(cmd.Context())
		defer orch.Stop()

		jobs := make([]*pipeline.Job, 0, len(paths))
		for _, path := range paths {
			job := pipeline.NewJob(path, strat)
			if err := orch.Submit(job); err != nil {
				return err
			}
			jobs = append(jobs, job)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d documents on %d workers\n",
			dimStyle.Render("Queued:"), len(jobs), runCfg.WorkerCount)

		if err := waitForJobs(cmd.Context(), jobs); err != nil {
			return err
		}

		completed, partial, failed := 0, 0, 0
		for _, job := range jobs {
			snap := job.Snapshot()
			switch snap.Status {
			case pipeline.StatusCompleted:
				completed++
				fmt.Fprintf(out, "%s %s  %s %d paragraphs via %s\n",
					successStyle.Render("ok"), snap.Path,
					dimStyle.Render("->"), snap.Progress.Paragraphs, snap.StrategyUsed)
			case pipeline.StatusPartial:
				partial++
				fmt.Fprintf(out, "%s %s  %s\n",
					warnStyle.Render("partial"), snap.Path,
					strings.Join(snap.Progress.Errors, "; "))
			default:
				failed++
				fmt.Fprintf(out, "%s %s  %s\n",
					errorStyle.Render("failed"), snap.Path,
					strings.Join(snap.Progress.Errors, "; "))
			}
		}

		stats := orch.Stats()
		summary := fmt.Sprintf("%s %d  %s %d  %s %d\n%s p50 %.0fms  p95 %.0fms  max %dms",
			dimStyle.Render("Completed:"), completed,
			dimStyle.Render("Partial:"), partial,
			dimStyle.Render("Failed:"), failed,
			dimStyle.Render("Latency:"), stats.P50Ms, stats.P95Ms, stats.MaxMs)
		fmt.Fprintln(out, boxStyle.Render(summary))

		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(jobs))
		}
		return nil
	},
}

// findPDFs lists every .pdf file under root, walking subdirectories.
func findPDFs(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// waitForJobs polls until every job reaches a terminal status.
func waitForJobs(ctx context.Context, jobs []*pipeline.Job) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		done := true
		for _, job := range jobs {
			if !job.Snapshot().Status.Terminal() {
				done = false
				break
			}
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func init() {
	batchCmd.Flags().StringVarP(&batchStrategy, "strategy", "s", "auto", "Parsing strategy (auto, toc, standard)")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "Output directory (default from DOCSTRUCT_OUTPUT_DIR)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Worker count (default from DOCSTRUCT_WORKER_COUNT)")

	rootCmd.AddCommand(batchCmd)
}
