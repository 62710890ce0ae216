package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/store"
	"github.com/dgallion1/docstruct/internal/structure"
)

// Worker processes a single parse job. The engine itself has no
// cancellation; the context is only checked between phases.
type Worker struct {
	extractor *parser.Extractor
	coord     *Coordinator
	writer    *store.Writer
	stats     *ParseStats
	log       *slog.Logger
}

func NewWorker(extractor *parser.Extractor, coord *Coordinator, writer *store.Writer, stats *ParseStats, log *slog.Logger) *Worker {
	return &Worker{
		extractor: extractor,
		coord:     coord,
		writer:    writer,
		stats:     stats,
		log:       log,
	}
}

// Process runs the full parse pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "path", job.Path)
	started := time.Now()

	// Phase 1: extract text, geometry and the outline.
	job.SetStatus(StatusParsing, "extracting text")
	d, err := w.extractor.ExtractFile(job.Path)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetDocument(d.FileHash, d.PageCount)

	if ctx.Err() != nil {
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: run the strategy chain.
	job.SetStatus(StatusSegmenting, "running strategies")
	res, err := w.coord.Parse(d, job.Strategy)
	if err != nil {
		var stratErr *StrategyError
		if errors.As(err, &stratErr) {
			job.AddWarnings(stratErr.Warnings...)
		}
		log.Error("all strategies failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "segmenting")
		return
	}
	w.stats.Record(time.Since(started).Milliseconds())

	job.AddWarnings(res.Warnings...)
	sections := 0
	if res.TOCResult != nil {
		sections = len(structure.FlattenSections(res.TOCResult.Sections))
	}
	job.SetOutcome(res.StrategyUsed, len(res.Paragraphs), sections)

	hadProblems := false
	for _, problem := range ValidateResult(res) {
		log.Warn("result validation", "problem", problem)
		job.AddError(problem)
		hadProblems = true
	}

	if ctx.Err() != nil {
		job.AddError(ctx.Err().Error())
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	// Phase 3: land the result.
	job.SetStatus(StatusWriting, "writing result")
	env := store.Envelope{
		DocID:          d.FileHash,
		Strategy:       string(res.StrategyUsed),
		Metadata:       d.Metadata,
		PageCount:      d.PageCount,
		ParagraphCount: len(res.Paragraphs),
		Warnings:       res.Warnings,
		CreatedAt:      job.CreatedAt,
	}
	if res.TOCResult != nil {
		env.Sections = res.TOCResult.Sections
		env.References = res.TOCResult.References
	}
	envPath, paraPath, err := w.writer.WriteResult(env, res.Paragraphs)
	if err != nil {
		log.Error("write failed", "error", err)
		job.AddError(fmt.Sprintf("write: %s", err))
		job.SetStatus(StatusFailed, "writing")
		return
	}
	job.SetOutputs(envPath, paraPath)

	status := StatusCompleted
	if hadProblems {
		status = StatusPartial
	}
	job.SetStatus(status, "done")
	log.Info("job done",
		"status", status,
		"strategy", res.StrategyUsed,
		"paragraphs", len(res.Paragraphs),
		"elapsed", time.Since(started),
	)
}
