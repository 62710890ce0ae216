package segment

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docstruct/internal/doc"
)

// Split thresholds beyond the dynamic gap: a paragraph-starter phrase or an
// indent shift only splits when backed by at least this much vertical gap,
// and leaving bold only splits with a gap above boldReleaseGap.
const (
	minStarterGap  = 1.0
	indentShift    = 10.0
	boldReleaseGap = 2.0
)

// Header formatting gates relative to the page's median font size.
const (
	headerFontSlack = 0.5 // headers may be up to this much smaller
	headerFontBonus = 1.5 // or this much larger when not bold
)

var (
	numberedHeaderRe = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+[a-zA-Z]`)
	letteredHeaderRe = regexp.MustCompile(`^[A-Z](\.\d+)*\.?\s+[a-zA-Z]`)
	romanHeaderRe    = regexp.MustCompile(`(?i)^[ivxlcdm]+\.?\s+[a-zA-Z]`)

	// Shapes that only count as headers when bold or oversized.
	formattedHeaderRes = []*regexp.Regexp{
		regexp.MustCompile(`^\d+\.\s*[A-Z][a-z]`),
		regexp.MustCompile(`^[A-Z][a-z]+\s+\d+`),
		regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z]`),
		regexp.MustCompile(`^[A-Z]{2,}`),
	}

	paragraphStarterRe = regexp.MustCompile(`^([A-Z][a-z].*\.|In\s|The\s|This\s|We\s|Our\s|However,|Therefore,|Furthermore,|Moreover,|Additionally,)`)
)

// sectionLexicon are the section titles common across academic papers,
// lowercase. Used both for header detection and for filtering bare title
// lines out of the paragraph stream.
var sectionLexicon = map[string]struct{}{
	"abstract": {}, "introduction": {}, "background": {}, "related work": {},
	"methodology": {}, "methods": {}, "approach": {}, "implementation": {},
	"results": {}, "evaluation": {}, "discussion": {}, "conclusion": {},
	"conclusions": {}, "future work": {}, "references": {}, "bibliography": {},
	"acknowledgments": {}, "acknowledgements": {}, "appendix": {},
	"literature review": {}, "state of the art": {}, "problem statement": {},
	"system design": {}, "architecture": {}, "experimental setup": {},
	"experiments": {}, "analysis": {}, "findings": {}, "limitations": {},
	"contributions": {}, "summary": {}, "overview": {}, "motivation": {},
	"objectives": {}, "scope": {}, "definitions": {}, "terminology": {},
	"notation": {}, "preliminaries": {}, "case study": {}, "use case": {},
	"scenario": {}, "example": {}, "proof": {}, "theorem": {}, "lemma": {},
	"algorithm": {}, "procedure": {}, "protocol": {}, "framework": {},
	"model": {}, "comparison": {}, "performance": {}, "benchmarks": {},
	"validation": {}, "verification": {}, "testing": {}, "simulation": {},
	"implementation details": {},
}

// shouldStartParagraph decides whether a block opens a new paragraph given
// the blocks accumulated so far. The first block of a page never splits.
func (s *Segmenter) shouldStartParagraph(b doc.TextBlock, current []doc.TextBlock, pc PageContext) bool {
	if len(current) == 0 {
		return false
	}
	last := current[len(current)-1]
	gap := b.BBox.Y1 - last.BBox.Y2

	if gap > pc.MaxLineGap {
		return true
	}
	if math.Abs(b.FontSize-last.FontSize) > s.cfg.HeaderFontDelta {
		return true
	}
	if b.Bold && !last.Bold {
		return true
	}
	if !b.Bold && last.Bold && gap > boldReleaseGap {
		return true
	}
	if s.isSectionHeader(b, pc) {
		return true
	}
	if isCaption(b.Text) {
		return true
	}
	text := strings.TrimSpace(b.Text)
	if paragraphStarterRe.MatchString(text) && gap > minStarterGap {
		return true
	}
	if math.Abs(b.BBox.X1-last.BBox.X1) > indentShift && gap > minStarterGap {
		return true
	}
	return false
}

// isSectionHeader reports whether a block reads like a section heading:
// sized within the header length range, not noticeably smaller than the
// page's body font, and matching either the section lexicon, a numbering
// pattern, or a title-cased shape when bold or oversized.
func (s *Segmenter) isSectionHeader(b doc.TextBlock, pc PageContext) bool {
	text := strings.TrimSpace(b.Text)
	if len(text) < s.cfg.MinHeaderLength || len(text) > s.cfg.MaxHeaderLength {
		return false
	}
	if b.FontSize < pc.MedianFontSize-headerFontSlack {
		return false
	}
	formatted := b.Bold || b.FontSize >= pc.MedianFontSize+headerFontBonus

	lower := strings.ToLower(text)
	if _, ok := sectionLexicon[lower]; ok {
		return formatted
	}
	for term := range sectionLexicon {
		if strings.Contains(lower, term) || strings.Contains(term, lower) {
			return formatted
		}
	}

	if numberedHeaderRe.MatchString(text) || letteredHeaderRe.MatchString(text) || romanHeaderRe.MatchString(text) {
		return true
	}

	if formatted {
		for _, re := range formattedHeaderRes {
			if re.MatchString(text) {
				return true
			}
		}
		if isMostlyTitleCase(text) {
			return true
		}
	}
	return false
}

// isMostlyTitleCase reports whether a short line capitalizes at least 60%
// of its substantial words, the usual shape of an unnumbered heading.
func isMostlyTitleCase(text string) bool {
	words := strings.Fields(text)
	if len(words) < 2 || len(words) > 8 {
		return false
	}
	capitalized := 0
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) && len(w) > 2 {
			capitalized++
		}
	}
	return float64(capitalized) >= float64(len(words))*0.6
}
