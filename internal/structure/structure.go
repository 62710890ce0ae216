// Package structure resolves a parsed document into a hierarchical section
// tree: outline bookmarks merged with heuristically discovered headings,
// fuzzy heading anchors with per-page coordinate cuts, per-section text,
// bibliographic references and in-text citation links.
package structure

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// ErrStructureNotFound means the document has no bookmarks and no
// discoverable headings. Recoverable: the strategy chain falls back to
// structure-less segmentation.
var ErrStructureNotFound = errors.New("no usable document structure")

// Anchor is the on-page vertical span of a section's printed heading,
// top-origin coordinates.
type Anchor struct {
	Y0 float64 `json:"y0"`
	Y1 float64 `json:"y1"`
}

// Entry is one flat table-of-contents entry. Pages are 0-based and
// inclusive; EndPage is never below StartPage and a child's page range is
// contained in its parent's.
type Entry struct {
	Idx              int
	Level            int
	Title            string
	StartPage        int
	EndPage          int
	NextSameOrHigher int // index of the next entry at the same or higher level, -1 if none
	Anchor           *Anchor
	Synthetic        bool // discovered heuristically rather than read from the outline
	Children         []*Entry
}

// CleanTitle is the title without its numbering prefix.
func (e *Entry) CleanTitle() string { return textnorm.StripNumbering(e.Title) }

// Options select which sections are emitted and how their text is scoped.
type Options struct {
	MinLevel               int
	MaxLevel               int
	OwnOnly                bool // additionally report text outside child ranges
	IncludeChildrenText    bool // main paragraph list spans the full page range
	IncludeMissingSections bool
}

func DefaultOptions() Options {
	return Options{
		MinLevel:               1,
		MaxLevel:               2,
		IncludeChildrenText:    true,
		IncludeMissingSections: true,
	}
}

// Link is an external pointer extracted from a reference entry.
type Link struct {
	Type  string `json:"type"` // arxiv, doi, url, email
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Reference is one parsed bibliography entry.
type Reference struct {
	Number  int    `json:"number"`
	RawText string `json:"raw_text"`
	Authors string `json:"authors,omitempty"`
	Title   string `json:"title,omitempty"`
	Year    string `json:"year,omitempty"`
	Links   []Link `json:"links,omitempty"`
}

// Citation is one in-text reference marker.
type Citation struct {
	Type            string     `json:"type"` // numbered or author_year
	Text            string     `json:"text"`
	Start           int        `json:"start"`
	End             int        `json:"end"`
	ReferenceNumber int        `json:"reference_number,omitempty"`
	Reference       *Reference `json:"reference,omitempty"`
}

// Section mirrors an Entry but carries extracted content. Pages are
// 1-based in the output.
type Section struct {
	Level         int         `json:"level"`
	Title         string      `json:"title"`
	StartPage     int         `json:"start_page"`
	EndPage       int         `json:"end_page"`
	Paragraphs    []string    `json:"paragraphs"`
	OwnParagraphs []string    `json:"own_paragraphs,omitempty"`
	References    []Reference `json:"references,omitempty"`
	Citations     []Citation  `json:"citations,omitempty"`
	Children      []*Section  `json:"children,omitempty"`
}

// Result is the resolver output for one document.
type Result struct {
	Sections             []*Section  `json:"sections"`
	References           []Reference `json:"references"`
	MissingSectionsFound int         `json:"missing_sections_found"`
	Warnings             []string    `json:"warnings,omitempty"`
}

// Config holds the resolver's tunable heuristics.
type Config struct {
	MaxScanPages      int       // page cap for missing-section discovery
	AnchorThresholds  []float64 // similarity ladder, tried in order
	CutEpsilon        float64   // margin applied around anchors when cutting page content
	MinHeadingFont    float64   // discovery formatting gate
	TopRegionFraction float64   // "upper part of the page" for gates and fallbacks
	MinChars          int       // shortest block kept as section text
	DropCaptions      bool      // skip figure and table captions in section text
}

func DefaultConfig() Config {
	return Config{
		MaxScanPages:      20,
		AnchorThresholds:  []float64{0.6, 0.4, 0.25, 0.15},
		CutEpsilon:        5.0,
		MinHeadingFont:    8.0,
		TopRegionFraction: 0.6,
		MinChars:          10,
	}
}

// Resolver builds section trees for parsed documents. Safe for concurrent
// use across documents.
type Resolver struct {
	cfg Config
	log *slog.Logger
}

func NewResolver(cfg Config, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxScanPages <= 0 {
		cfg.MaxScanPages = 20
	}
	if len(cfg.AnchorThresholds) == 0 {
		cfg.AnchorThresholds = DefaultConfig().AnchorThresholds
	}
	if cfg.CutEpsilon <= 0 {
		cfg.CutEpsilon = 5.0
	}
	if cfg.MinHeadingFont <= 0 {
		cfg.MinHeadingFont = 8.0
	}
	if cfg.TopRegionFraction <= 0 {
		cfg.TopRegionFraction = 0.6
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 10
	}
	return &Resolver{cfg: cfg, log: log}
}

// Resolve builds the section tree for a document. Fails only when no
// structure exists at all; every narrower failure degrades to an estimate
// and a warning on the result.
func (r *Resolver) Resolve(d *doc.ParsedDocument, opts Options) (*Result, error) {
	if opts.MinLevel <= 0 {
		opts.MinLevel = 1
	}
	if opts.MaxLevel <= 0 {
		opts.MaxLevel = 2
	}

	entries := entriesFromBookmarks(d.Bookmarks, d.PageCount)

	missing := 0
	if opts.IncludeMissingSections {
		discovered := r.discoverSections(d, entries)
		missing = len(discovered)
		if missing > 0 {
			entries = append(entries, discovered...)
			sortEntries(entries)
		}
	}
	for i, e := range entries {
		e.Idx = i
	}

	if len(entries) == 0 {
		return nil, ErrStructureNotFound
	}

	assignEndPages(entries, d.PageCount)
	roots := buildTree(entries)

	warnings := r.locateAnchors(entries, d)

	var refs []Reference
	if refEntry := findReferenceEntry(entries); refEntry != nil {
		refs = r.extractReferences(refEntry, entries, d)
	}

	sections := make([]*Section, 0, len(roots))
	for _, root := range roots {
		if s := r.sectionFromEntry(root, entries, d, opts, refs); s != nil {
			sections = append(sections, s)
		}
	}

	r.log.Debug("resolved structure",
		"entries", len(entries),
		"missing_found", missing,
		"references", len(refs),
		"warnings", len(warnings),
	)
	return &Result{
		Sections:             sections,
		References:           refs,
		MissingSectionsFound: missing,
		Warnings:             warnings,
	}, nil
}

// entriesFromBookmarks keeps outline items of level 1 and 2 and converts
// their pages to 0-based.
func entriesFromBookmarks(bookmarks []doc.BookmarkEntry, pageCount int) []*Entry {
	var entries []*Entry
	for _, b := range bookmarks {
		if b.Level > 2 || b.Page < 1 || b.Page > pageCount {
			continue
		}
		title := strings.TrimSpace(b.Title)
		if title == "" {
			continue
		}
		level := b.Level
		if level < 1 {
			level = 1
		}
		entries = append(entries, &Entry{
			Level:            level,
			Title:            title,
			StartPage:        b.Page - 1,
			NextSameOrHigher: -1,
		})
	}
	return entries
}

func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].StartPage != entries[j].StartPage {
			return entries[i].StartPage < entries[j].StartPage
		}
		return entries[i].Level < entries[j].Level
	})
}

// sectionFromEntry converts one entry and its subtree into output form.
// Out-of-range entries survive as empty containers when they have
// convertible children, and vanish otherwise.
func (r *Resolver) sectionFromEntry(e *Entry, all []*Entry, d *doc.ParsedDocument, opts Options, refs []Reference) *Section {
	var children []*Section
	for _, c := range e.Children {
		if s := r.sectionFromEntry(c, all, d, opts, refs); s != nil {
			children = append(children, s)
		}
	}

	sec := &Section{
		Level:     e.Level,
		Title:     e.Title,
		StartPage: e.StartPage + 1,
		EndPage:   e.EndPage + 1,
		Children:  children,
	}

	if e.Level < opts.MinLevel || e.Level > opts.MaxLevel {
		if len(children) == 0 {
			return nil
		}
		return sec
	}

	// IncludeChildrenText wins over OwnOnly for the main list; own text is
	// only ever reported separately.
	if opts.IncludeChildrenText {
		sec.Paragraphs = r.extractIntervals(d, e, all, [][2]int{{e.StartPage, e.EndPage}})
	} else {
		sec.Paragraphs = r.extractIntervals(d, e, all, ownIntervals(e))
	}
	if opts.OwnOnly {
		sec.OwnParagraphs = r.extractIntervals(d, e, all, ownIntervals(e))
	}

	if isReferenceTitle(e.Title) {
		sec.References = refs
	} else if len(refs) > 0 && len(sec.Paragraphs) > 0 {
		sec.Citations = r.linkCitations(strings.Join(sec.Paragraphs, "\n"), refs)
	}
	return sec
}

func isReferenceTitle(title string) bool {
	key := textnorm.MatchKey(textnorm.StripNumbering(title))
	return key == "references" || key == "bibliography"
}

func findReferenceEntry(entries []*Entry) *Entry {
	for _, e := range entries {
		if isReferenceTitle(e.Title) {
			return e
		}
	}
	return nil
}

// FlattenSections lists a section forest depth-first using an explicit
// stack.
func FlattenSections(sections []*Section) []*Section {
	var out []*Section
	stack := make([]*Section, 0, len(sections))
	for i := len(sections) - 1; i >= 0; i-- {
		stack = append(stack, sections[i])
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, s)
		for i := len(s.Children) - 1; i >= 0; i-- {
			stack = append(stack, s.Children[i])
		}
	}
	return out
}

// FindSection looks a title up anywhere in the forest, ignoring case,
// punctuation and numbering prefixes.
func FindSection(sections []*Section, title string) *Section {
	want := textnorm.MatchKey(title)
	for _, s := range FlattenSections(sections) {
		if textnorm.MatchKey(s.Title) == want || textnorm.MatchKey(textnorm.StripNumbering(s.Title)) == want {
			return s
		}
	}
	return nil
}

// SectionPageMap maps each 1-based page to the deepest section covering
// it, preferring numbering-stripped titles. The segmenter uses it to seed
// section paths.
func SectionPageMap(sections []*Section) map[int]string {
	m := make(map[int]string)
	depth := make(map[int]int)
	for _, s := range FlattenSections(sections) {
		title := textnorm.StripNumbering(s.Title)
		if title == "" {
			title = s.Title
		}
		for p := s.StartPage; p <= s.EndPage; p++ {
			if s.Level >= depth[p] {
				depth[p] = s.Level
				m[p] = title
			}
		}
	}
	return m
}

// String implements fmt.Stringer for log readability.
func (e *Entry) String() string {
	return fmt.Sprintf("L%d %q pages %d-%d", e.Level, e.Title, e.StartPage, e.EndPage)
}
