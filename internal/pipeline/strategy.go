package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/segment"
	"github.com/dgallion1/docstruct/internal/structure"
)

// Strategy selects how a parsed document is turned into paragraphs.
type Strategy string

const (
	StrategyAuto     Strategy = "auto"
	StrategyTOC      Strategy = "toc"
	StrategyStandard Strategy = "standard"
)

// fallbackChains lists the attempts made for each requested strategy, in
// order. A standard-only request has no fallback.
var fallbackChains = map[Strategy][]Strategy{
	StrategyAuto:     {StrategyTOC, StrategyStandard},
	StrategyTOC:      {StrategyTOC, StrategyStandard},
	StrategyStandard: {StrategyStandard},
}

// ParseStrategy converts a user-supplied name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyAuto:
		return StrategyAuto, nil
	case StrategyTOC:
		return StrategyTOC, nil
	case StrategyStandard:
		return StrategyStandard, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want auto, toc or standard)", s)
}

// ErrAllStrategiesFailed reports that every strategy in the fallback chain
// raised an error.
var ErrAllStrategiesFailed = errors.New("all parsing strategies failed")

// StrategyError wraps the last error of an exhausted fallback chain and
// carries the warnings recorded for each failed attempt.
type StrategyError struct {
	Warnings []string
	Last     error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("all parsing strategies failed: %v", e.Last)
}

func (e *StrategyError) Unwrap() error { return e.Last }

func (e *StrategyError) Is(target error) bool { return target == ErrAllStrategiesFailed }

// Result is the outcome of one coordinated parse.
type Result struct {
	StrategyUsed Strategy             `json:"strategy_used"`
	Document     *doc.ParsedDocument  `json:"document"`
	Paragraphs   []*segment.Paragraph `json:"paragraphs"`
	TOCResult    *structure.Result    `json:"toc_result,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// Coordinator runs the strategy fallback chain over parsed documents. It
// holds no per-call state and may be shared across goroutines.
type Coordinator struct {
	resolver  *structure.Resolver
	segmenter *segment.Segmenter
	log       *slog.Logger
}

func NewCoordinator(cfg config.Config, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	sc := structure.DefaultConfig()
	sc.MaxScanPages = cfg.MaxScanPages
	if len(cfg.AnchorThresholds) > 0 {
		sc.AnchorThresholds = cfg.AnchorThresholds
	}
	seg := segment.Config{
		MinParagraphLength: cfg.MinParagraphLength,
		HeaderFontDelta:    cfg.HeaderFontDelta,
		ShortMergeTokens:   cfg.ShortMergeTokens,
		RepeatBandMargin:   cfg.RepeatBandMargin,
		RepeatBandMinPages: cfg.RepeatBandMinPages,
	}
	return &Coordinator{
		resolver:  structure.NewResolver(sc, log),
		segmenter: segment.NewSegmenter(seg, log),
		log:       log,
	}
}

// Parse runs the fallback chain for the requested strategy over an already
// extracted document. Each failed attempt becomes a warning; on success
// those warnings are appended to the winning result's own. An exhausted
// chain returns a StrategyError matching ErrAllStrategiesFailed.
func (c *Coordinator) Parse(d *doc.ParsedDocument, strat Strategy) (*Result, error) {
	chain, ok := fallbackChains[strat]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", strat)
	}

	var warnings []string
	var lastErr error
	for _, attempt := range chain {
		res, err := c.parseWith(d, attempt)
		if err != nil {
			c.log.Warn("strategy failed", "strategy", attempt, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", attempt, err))
			lastErr = err
			continue
		}
		res.Warnings = append(res.Warnings, warnings...)
		c.log.Info("parsed document",
			"strategy", res.StrategyUsed,
			"paragraphs", len(res.Paragraphs),
			"warnings", len(res.Warnings),
		)
		return res, nil
	}
	return nil, &StrategyError{Warnings: warnings, Last: lastErr}
}

func (c *Coordinator) parseWith(d *doc.ParsedDocument, strat Strategy) (*Result, error) {
	switch strat {
	case StrategyTOC:
		return c.parseTOC(d)
	case StrategyStandard:
		return c.parseStandard(d)
	default:
		return nil, fmt.Errorf("strategy %q cannot run directly", strat)
	}
}

// parseTOC resolves the section tree and flattens it into paragraphs with
// synthetic geometry.
func (c *Coordinator) parseTOC(d *doc.ParsedDocument) (*Result, error) {
	res, err := c.resolver.Resolve(d, tocOptions())
	if err != nil {
		return nil, err
	}

	paragraphs := tocParagraphs(res.Sections, d.FileHash)
	paragraphs = segment.MergeShortParagraphs(paragraphs, segment.StructureMergeOptions())

	out := &Result{
		StrategyUsed: StrategyTOC,
		Document:     d,
		Paragraphs:   paragraphs,
		TOCResult:    res,
		Warnings:     append([]string(nil), res.Warnings...),
	}
	if res.MissingSectionsFound > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("found %d missing academic sections", res.MissingSectionsFound))
	}
	return out, nil
}

// tocOptions scopes each section to its own page range so the flattened
// paragraph list never repeats child text under the parent.
func tocOptions() structure.Options {
	opts := structure.DefaultOptions()
	opts.IncludeChildrenText = false
	return opts
}

func (c *Coordinator) parseStandard(d *doc.ParsedDocument) (*Result, error) {
	paragraphs := c.segmenter.Segment(d, d.FileHash, nil)
	if len(paragraphs) == 0 {
		return nil, errors.New("no paragraphs produced")
	}
	return &Result{
		StrategyUsed: StrategyStandard,
		Document:     d,
		Paragraphs:   paragraphs,
	}, nil
}

// Synthetic geometry for paragraphs derived from the section tree, which
// has no block coordinates of its own. Boxes descend one fixed step per
// paragraph so merge adjacency and stable IDs stay well defined.
const (
	tocMinParagraphChars = 10
	tocFontSize          = 11.0
	tocBoxLeft           = 50.0
	tocBoxRight          = 500.0
	tocBoxTop            = 100.0
	tocBoxStep           = 20.0
	tocBoxHeight         = 20.0
)

// tocParagraphs flattens a section forest depth-first using an explicit
// stack. The paragraph counter is global across the whole tree; the
// section path is the owning section's own title.
func tocParagraphs(sections []*structure.Section, docID string) []*segment.Paragraph {
	var out []*segment.Paragraph
	stack := make([]*structure.Section, 0, len(sections))
	for i := len(sections) - 1; i >= 0; i-- {
		stack = append(stack, sections[i])
	}
	for len(stack) > 0 {
		sec := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, text := range sec.Paragraphs {
			text = strings.TrimSpace(text)
			if len(text) < tocMinParagraphChars {
				continue
			}
			i := len(out)
			bbox := doc.BoundingBox{
				X1: tocBoxLeft,
				Y1: tocBoxTop + tocBoxStep*float64(i),
				X2: tocBoxRight,
				Y2: tocBoxTop + tocBoxHeight + tocBoxStep*float64(i),
			}
			out = append(out, &segment.Paragraph{
				StableID:    segment.StableID(docID, sec.StartPage, bbox, text),
				DocID:       docID,
				Page:        sec.StartPage,
				ParaIdx:     i,
				Text:        text,
				BBox:        bbox,
				SectionPath: sec.Title,
				Type:        segment.TypeParagraph,
				Tokens:      segment.EstimateTokens(text),
				FontSize:    tocFontSize,
			})
		}
		for i := len(sec.Children) - 1; i >= 0; i-- {
			stack = append(stack, sec.Children[i])
		}
	}
	return out
}

// RecommendStrategy suggests a strategy from the document's outline. It is
// a hint only; Parse always runs the full fallback chain.
func RecommendStrategy(d *doc.ParsedDocument) Strategy {
	if d != nil && len(d.Bookmarks) > 2 {
		return StrategyTOC
	}
	return StrategyStandard
}

// AvailableStrategies reports which strategies this build can run.
func AvailableStrategies() map[Strategy]bool {
	return map[Strategy]bool{
		StrategyAuto:     true,
		StrategyTOC:      true,
		StrategyStandard: true,
	}
}

// ParseWithAllStrategies runs every concrete strategy independently for
// comparison, skipping the ones that fail.
func (c *Coordinator) ParseWithAllStrategies(d *doc.ParsedDocument) map[Strategy]*Result {
	results := make(map[Strategy]*Result, 2)
	for _, strat := range []Strategy{StrategyStandard, StrategyTOC} {
		res, err := c.parseWith(d, strat)
		if err != nil {
			c.log.Warn("strategy failed", "strategy", strat, "error", err)
			continue
		}
		results[strat] = res
	}
	return results
}
