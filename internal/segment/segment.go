// Package segment groups reading-ordered text blocks into typed paragraphs.
// Splits follow per-page adaptive gap and font thresholds, repeating page
// headers and footers are stripped document-wide, and every paragraph gets
// a content-derived stable ID that survives re-ingestion of unchanged
// bytes.
package segment

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// ParagraphType classifies what a paragraph is on the page.
type ParagraphType string

const (
	TypeParagraph     ParagraphType = "paragraph"
	TypeListItem      ParagraphType = "list_item"
	TypeFigureCaption ParagraphType = "figure_caption"
	TypeTable         ParagraphType = "table"
	TypeReferenceItem ParagraphType = "reference_item"
	TypeHeader        ParagraphType = "header"
	TypeFooter        ParagraphType = "footer"
)

// CharSpan is a byte range into the document's full extracted text.
type CharSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Paragraph is one segmented paragraph with its location and formatting
// metadata. The merge and dedup passes mutate text, bbox, tokens and
// section path in place and recompute StableID; after segmentation returns
// the value is final.
type Paragraph struct {
	StableID    string          `json:"stable_id"`
	DocID       string          `json:"doc_id"`
	Page        int             `json:"page"`
	ParaIdx     int             `json:"para_idx"`
	Text        string          `json:"text"`
	BBox        doc.BoundingBox `json:"bbox"`
	CharSpan    *CharSpan       `json:"char_span,omitempty"`
	SectionPath string          `json:"section_path,omitempty"`
	Type        ParagraphType   `json:"paragraph_type"`
	Tokens      int             `json:"tokens"`
	FontSize    float64         `json:"font_size"`
	Bold        bool            `json:"is_bold"`
	Italic      bool            `json:"is_italic"`
}

// Config holds the segmentation thresholds. Zero values are replaced with
// the defaults by NewSegmenter.
type Config struct {
	MinParagraphLength int     // shortest text kept as a paragraph, in bytes
	HeaderFontDelta    float64 // font size jump that forces a split
	MinHeaderLength    int
	MaxHeaderLength    int
	RepeatBandMargin   float64 // top/bottom band checked for running headers
	RepeatBandMinPages int     // pages a band text must repeat on
	ShortMergeTokens   int     // paragraphs under this many tokens merge backward
	AdjacencyTolerance float64 // max vertical gap for a seamless merge
}

// DefaultConfig returns the thresholds tuned for single and double column
// academic layouts.
func DefaultConfig() Config {
	return Config{
		MinParagraphLength: 10,
		HeaderFontDelta:    2.0,
		MinHeaderLength:    3,
		MaxHeaderLength:    200,
		RepeatBandMargin:   60,
		RepeatBandMinPages: 3,
		ShortMergeTokens:   100,
		AdjacencyTolerance: 10,
	}
}

// Segmenter turns a parsed document into paragraphs. It holds no per-call
// state, so one Segmenter may serve concurrent documents.
type Segmenter struct {
	cfg Config
	log *slog.Logger
}

func NewSegmenter(cfg Config, log *slog.Logger) *Segmenter {
	def := DefaultConfig()
	if cfg.MinParagraphLength <= 0 {
		cfg.MinParagraphLength = def.MinParagraphLength
	}
	if cfg.HeaderFontDelta <= 0 {
		cfg.HeaderFontDelta = def.HeaderFontDelta
	}
	if cfg.MinHeaderLength <= 0 {
		cfg.MinHeaderLength = def.MinHeaderLength
	}
	if cfg.MaxHeaderLength <= 0 {
		cfg.MaxHeaderLength = def.MaxHeaderLength
	}
	if cfg.RepeatBandMargin <= 0 {
		cfg.RepeatBandMargin = def.RepeatBandMargin
	}
	if cfg.RepeatBandMinPages <= 0 {
		cfg.RepeatBandMinPages = def.RepeatBandMinPages
	}
	if cfg.ShortMergeTokens < 0 {
		cfg.ShortMergeTokens = def.ShortMergeTokens
	}
	if cfg.AdjacencyTolerance <= 0 {
		cfg.AdjacencyTolerance = def.AdjacencyTolerance
	}
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{cfg: cfg, log: log}
}

// Segment splits a parsed document into paragraphs. docID keys the stable
// IDs and defaults to the document's file hash. sectionByPage, when non
// nil, overrides the section seeding otherwise derived from the document's
// own bookmarks; pages absent from the map inherit the previous page's
// section.
func (s *Segmenter) Segment(d *doc.ParsedDocument, docID string, sectionByPage map[int]string) []*Paragraph {
	if docID == "" {
		docID = d.FileHash
	}

	pages := groupByPage(d.Blocks)
	bands := s.repeatingBands(pages)
	if len(bands) > 0 {
		s.log.Debug("suppressing repeating bands", "doc", docID, "count", len(bands))
	}

	var spans []sectionSpan
	if sectionByPage == nil {
		spans = sectionSpansFromBookmarks(d.Bookmarks)
	}

	var out []*Paragraph
	section := ""
	idx := 0
	for _, page := range sortedPages(pages) {
		blocks := dropBands(pages[page], bands)
		if len(blocks) == 0 {
			continue
		}
		if seed := seedSection(page, sectionByPage, spans); seed != "" {
			section = seed
		}
		pc := NewPageContext(blocks)
		var ps []*Paragraph
		ps, section = s.segmentPage(blocks, page, docID, pc, idx, section)
		out = append(out, ps...)
		idx += len(ps)
	}

	fixMissingSectionPaths(out)
	out = s.combinePreAbstract(out)
	out = s.dedupe(out)
	out = MergeShortParagraphs(out, MergeOptions{
		MinTokens:          s.cfg.ShortMergeTokens,
		AdjacencyTolerance: s.cfg.AdjacencyTolerance,
		MaxPageGap:         1,
	})
	assignCharSpans(out)

	s.log.Debug("segmented document", "doc", docID, "paragraphs", len(out))
	return out
}

// segmentPage walks one page's blocks in reading order, cutting a new
// paragraph whenever a split rule fires, and carries the section path
// forward. Returns the page's paragraphs and the section in effect at the
// bottom of the page.
func (s *Segmenter) segmentPage(blocks []doc.TextBlock, page int, docID string, pc PageContext, startIdx int, section string) ([]*Paragraph, string) {
	var out []*Paragraph
	var cur []doc.TextBlock
	idx := startIdx

	flush := func() {
		if len(cur) == 0 {
			return
		}
		if p := s.buildParagraph(cur, page, idx, docID, section, pc); p != nil && s.shouldKeep(p) {
			out = append(out, p)
			idx++
		}
		cur = nil
	}

	for _, b := range blocks {
		header := s.isSectionHeader(b, pc)
		if header || s.shouldStartParagraph(b, cur, pc) {
			flush()
		}
		if header {
			if path := sectionPathForHeader(b.Text); path != "" {
				section = path
			}
		}
		cur = append(cur, b)
	}
	flush()

	return out, section
}

// buildParagraph joins the accumulated blocks into one paragraph, repairing
// hyphenated line breaks across block boundaries. Returns nil when the
// combined text is too short to keep.
func (s *Segmenter) buildParagraph(blocks []doc.TextBlock, page, idx int, docID, section string, pc PageContext) *Paragraph {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	text := textnorm.Normalize(textnorm.FixHyphenBreaks(strings.Join(parts, "\n")))
	if len(text) < s.cfg.MinParagraphLength {
		return nil
	}

	bbox := blocks[0].BBox
	for _, b := range blocks[1:] {
		bbox = bbox.Union(b.BBox)
	}

	first := blocks[0]
	p := &Paragraph{
		DocID:       docID,
		Page:        page,
		ParaIdx:     idx,
		Text:        text,
		BBox:        bbox,
		SectionPath: section,
		Type:        s.classifyParagraph(text, first, pc),
		Tokens:      EstimateTokens(text),
		FontSize:    first.FontSize,
		Bold:        first.Bold,
		Italic:      first.Italic,
	}
	p.StableID = StableID(docID, page, bbox, text)
	return p
}

func groupByPage(blocks []doc.TextBlock) map[int][]doc.TextBlock {
	pages := make(map[int][]doc.TextBlock)
	for _, b := range blocks {
		pages[b.Page] = append(pages[b.Page], b)
	}
	return pages
}

func sortedPages(pages map[int][]doc.TextBlock) []int {
	out := make([]int, 0, len(pages))
	for p := range pages {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func seedSection(page int, byPage map[int]string, spans []sectionSpan) string {
	if byPage != nil {
		return byPage[page]
	}
	return sectionForPage(spans, page)
}
