package segment

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docstruct/internal/doc"
)

// Type thresholds: a bold first block this far above the median font makes
// a header paragraph; a first block this far below it, sitting in the
// bottom fraction of the page, makes a footer.
const (
	headerTypeFontBonus = 1.0
	footerFontDrop      = 2.0
	footerPageFraction  = 0.92
)

var (
	figureCaptionRe = regexp.MustCompile(`(?i)^fig(?:ure)?\s*\d+|^\d+\.\s*fig(?:ure)?|fig\.\s*\d+|^abb(?:ildung)?\s*\d+`)
	tableCaptionRe  = regexp.MustCompile(`(?i)^tab(?:le)?\s*\d+|^\d+\.\s*table|tab\.\s*\d+|^tabelle\s*\d+`)
	listItemRe      = regexp.MustCompile(`(?i)^(?:[•◦▪*-]\s+|\(?[ivxlcdm]+\)\s+|\(?[a-z]\)\s+|\d+[.)]\s+)`)

	// Fragments that bibliographic entries tend to contain. Two or more
	// hits classify the text as a reference item.
	referenceHintRes = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}[.;]`),
		regexp.MustCompile(`et al\.?`),
		regexp.MustCompile(`pp?\.\s*\d+`),
		regexp.MustCompile(`vol\.?\s*\d+`),
		regexp.MustCompile(`doi:`),
		regexp.MustCompile(`arxiv:`),
	}

	bareNumberRe  = regexp.MustCompile(`^\d+(\.\d+)*\.?\s*$`)
	bareWordRe    = regexp.MustCompile(`^[A-Z][a-z]*\s*$`)
	bareSubsecRe  = regexp.MustCompile(`^\d+(\.\d+)+\s*$`)
	bareLetterRe  = regexp.MustCompile(`^[A-Z]\.\d+\s*$`)
	bareRomanRe   = regexp.MustCompile(`(?i)^[ivxlcdm]+\.\s*$`)
	sentencePunct = ".!?;:"
)

// classifyParagraph types a finished paragraph. Checks run in precedence
// order: list marker, figure caption, table caption, reference entry,
// header, footer, plain paragraph.
func (s *Segmenter) classifyParagraph(text string, first doc.TextBlock, pc PageContext) ParagraphType {
	lower := strings.ToLower(strings.TrimSpace(text))

	if listItemRe.MatchString(text) {
		return TypeListItem
	}
	if figureCaptionRe.MatchString(lower) {
		return TypeFigureCaption
	}
	if tableCaptionRe.MatchString(lower) {
		return TypeTable
	}
	if (strings.Contains(lower, "references") && len(text) < 100) || looksLikeReference(lower) {
		return TypeReferenceItem
	}
	if first.Bold && first.FontSize >= pc.MedianFontSize+headerTypeFontBonus && len(text) < s.cfg.MaxHeaderLength {
		return TypeHeader
	}
	if first.FontSize <= pc.MedianFontSize-footerFontDrop && first.BBox.Y1 > footerPageFraction*pc.Height {
		return TypeFooter
	}
	return TypeParagraph
}

// looksLikeReference reports whether lowercase text reads like a
// bibliography entry.
func looksLikeReference(lower string) bool {
	hits := 0
	for _, re := range referenceHintRes {
		if re.MatchString(lower) {
			hits++
		}
	}
	return hits >= 2
}

// isCaption reports whether a block's text opens a figure or table caption.
func isCaption(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return figureCaptionRe.MatchString(lower) || tableCaptionRe.MatchString(lower)
}

// shouldKeep filters out paragraphs that carry no content of their own:
// bare section titles, stray numbering, and header lines without a single
// sentence.
func (s *Segmenter) shouldKeep(p *Paragraph) bool {
	text := strings.TrimSpace(p.Text)
	if len(text) < s.cfg.MinParagraphLength {
		return false
	}
	if p.Type == TypeHeader && len(text) < 50 && !strings.ContainsAny(text, sentencePunct) {
		return false
	}
	if len(text) < 100 {
		if _, ok := sectionLexicon[strings.ToLower(text)]; ok {
			return false
		}
	}
	if p.Type == TypeHeader && len(text) < 30 && (bareNumberRe.MatchString(text) || bareWordRe.MatchString(text)) {
		return false
	}
	if bareSubsecRe.MatchString(text) || bareLetterRe.MatchString(text) || bareRomanRe.MatchString(text) {
		return false
	}
	return true
}
