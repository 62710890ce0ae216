package structure

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Section names academic documents commonly carry, searched for when the
// outline omits them.
var canonicalSections = []string{
	"Abstract", "Introduction", "Background", "Motivation",
	"Related Work", "Literature Review", "State of the Art", "Prior Work",
	"Methodology", "Method", "Approach", "Materials and Methods",
	"Experimental Setup", "Experiments", "Implementation", "System Design",
	"Results", "Evaluation", "Performance", "Analysis", "Findings",
	"Experimental Results", "Evaluation Results",
	"Discussion", "Interpretation", "Implications",
	"Conclusion", "Conclusions", "Summary", "Future Work",
	"References", "Bibliography", "Citations",
	"Acknowledgments", "Acknowledgements", "Appendix", "Appendices",
	"Supplementary Material", "Author Contributions", "Competing Interests",
	"Data Availability", "Code Availability", "Ethics Statement",
	"Problem Statement", "Research Questions", "Objectives", "Scope",
	"Limitations", "Contributions", "Novelty", "Significance",
}

// Words whose presence alone makes a short line heading-like.
var headingKeywords = []string{
	"abstract", "introduction", "background", "motivation", "methodology", "method",
	"approach", "results", "discussion", "conclusion", "conclusions", "summary",
	"references", "bibliography", "acknowledgments", "acknowledgements", "appendix",
	"literature", "review", "analysis", "evaluation", "experiments", "implementation",
	"materials", "procedures", "algorithms", "models", "framework", "architecture",
	"performance", "validation", "testing", "case study", "examples", "applications",
}

var (
	numberedHeadingRe   = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+[A-Z]`)
	letteredHeadingRe   = regexp.MustCompile(`^[A-Z](\.\d+)*\.?\s+[A-Z]`)
	bareNumberHeadingRe = regexp.MustCompile(`^\d+\s+[A-Z]`)
	subsectionNumRe     = regexp.MustCompile(`^\d+\.\d+\.?\s+[A-Z]`)
	subsectionLetterRe  = regexp.MustCompile(`^[A-Z]\.\d+\.?\s+[A-Z]`)
	levelTwoPrefixRe    = regexp.MustCompile(`^(\d+\.\d+|[A-Z]\.\d+)`)
)

// discoverSections scans the front of the document for canonical academic
// headings the outline missed, then for numbered subsections near each hit.
// Discovered entries carry the matched block's coordinates as their anchor.
func (r *Resolver) discoverSections(d *doc.ParsedDocument, existing []*Entry) []*Entry {
	have := make(map[string]bool)
	for _, e := range existing {
		have[textnorm.MatchKey(e.Title)] = true
	}

	maxPage := r.cfg.MaxScanPages
	if d.PageCount < maxPage {
		maxPage = d.PageCount
	}

	var found []*Entry
	for page := 1; page <= maxPage; page++ {
		for _, b := range d.PageBlocks(page) {
			text := textnorm.Normalize(b.Text)
			if text == "" || len(text) > 150 {
				continue
			}
			matched, sim := matchCanonicalSection(text, b)
			if !matched {
				continue
			}
			key := textnorm.MatchKey(text)
			if key == "" || have[key] {
				continue
			}
			if !discoveredHeadingFormat(b, sim, r.cfg) {
				continue
			}
			level := headingLevel(text)
			if level > 2 {
				continue
			}
			have[key] = true
			found = append(found, &Entry{
				Level:            level,
				Title:            text,
				StartPage:        page - 1,
				EndPage:          page - 1,
				NextSameOrHigher: -1,
				Anchor:           &Anchor{Y0: b.BBox.Y1, Y1: b.BBox.Y2},
				Synthetic:        true,
			})
		}
	}

	found = append(found, r.discoverSubsections(d, found, have, maxPage)...)
	return found
}

// matchCanonicalSection tries the three matchers in order: composite
// similarity against each canonical name, keyword coverage, then partial
// containment or a known variation. The returned similarity feeds the
// formatting gate.
func matchCanonicalSection(line string, b doc.TextBlock) (bool, float64) {
	for _, name := range canonicalSections {
		if sim := titleSimilarity(line, name); sim >= 0.5 {
			if lineIsHeading(line, b) {
				return true, sim
			}
		}
	}

	lineWords := keywords(line)
	for _, name := range canonicalSections {
		if keywordCoverage(lineWords, keywords(name)) >= 0.5 {
			return true, 0.5
		}
	}

	lineKey := textnorm.MatchKey(line)
	for _, name := range canonicalSections {
		nameKey := textnorm.MatchKey(name)
		if len(line) < 100 && (strings.Contains(lineKey, nameKey) || strings.Contains(nameKey, lineKey)) {
			if lineIsHeading(line, b) {
				return true, 0.8
			}
		}
		if knownVariation(line, name) {
			return true, 0.9
		}
	}
	return false, 0
}

// discoveredHeadingFormat confirms a matched line is typeset as a heading.
// High-confidence matches accept a slightly smaller font.
func discoveredHeadingFormat(b doc.TextBlock, sim float64, cfg Config) bool {
	minFont := cfg.MinHeadingFont
	if sim >= 0.8 {
		minFont = cfg.MinHeadingFont - 1
	}
	return b.FontSize >= minFont || b.Bold
}

func headingLevel(title string) int {
	if levelTwoPrefixRe.MatchString(strings.TrimSpace(title)) {
		return 2
	}
	return 1
}

// lineIsHeading checks whether a line looks like a section heading from its
// shape alone: numbering, capitalization, boldness, font size, position or
// a heading keyword.
func lineIsHeading(text string, b doc.TextBlock) bool {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 200 {
		return false
	}
	if numberedHeadingRe.MatchString(text) || letteredHeadingRe.MatchString(text) {
		return true
	}
	if len(text) < 100 && isAllUpper(text) {
		return true
	}
	words := strings.Fields(text)
	if len(words) <= 10 && len(text) < 120 {
		capitalized := 0
		for _, w := range words {
			r := []rune(w)[0]
			if unicode.IsUpper(r) {
				capitalized++
			}
		}
		if float64(capitalized) >= float64(len(words))*0.6 {
			return true
		}
	}
	if b.Bold && len(text) < 150 {
		return true
	}
	if b.FontSize > 10 {
		return true
	}
	if b.BBox.Y1 < 200 && (b.FontSize > 9 || b.Bold) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range headingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return bareNumberHeadingRe.MatchString(text)
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// discoverSubsections looks for numbered level-2 headings on the pages of
// each discovered section and up to five pages after it.
func (r *Resolver) discoverSubsections(d *doc.ParsedDocument, found []*Entry, have map[string]bool, maxPage int) []*Entry {
	pages := make(map[int]bool)
	for _, f := range found {
		for off := 0; off < 5; off++ {
			p := f.StartPage + 1 + off
			if p <= d.PageCount {
				pages[p] = true
			}
		}
	}
	ordered := make([]int, 0, len(pages))
	for p := range pages {
		ordered = append(ordered, p)
	}
	sort.Ints(ordered)

	var subs []*Entry
	for _, page := range ordered {
		for _, b := range d.PageBlocks(page) {
			text := textnorm.Normalize(b.Text)
			if text == "" || len(text) > 120 {
				continue
			}
			if !subsectionNumRe.MatchString(text) && !subsectionLetterRe.MatchString(text) {
				continue
			}
			if !lineIsHeading(text, b) || b.FontSize < r.cfg.MinHeadingFont {
				continue
			}
			key := textnorm.MatchKey(text)
			if key == "" || have[key] {
				continue
			}
			have[key] = true
			subs = append(subs, &Entry{
				Level:            2,
				Title:            text,
				StartPage:        page - 1,
				EndPage:          page - 1,
				NextSameOrHigher: -1,
				Anchor:           &Anchor{Y0: b.BBox.Y1, Y1: b.BBox.Y2},
				Synthetic:        true,
			})
		}
	}
	return subs
}
