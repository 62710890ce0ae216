package segment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// backfillWindow bounds how far from the start of the document the
// backward section-path repair reaches unconditionally.
const backfillWindow = 5

var (
	titleNumberRe = regexp.MustCompile(`^\d+(\.\d+)*\.?\s*`)
	titleLetterRe = regexp.MustCompile(`^[A-Z](\.\d+)+\.?\s*`)
	titleRomanRe  = regexp.MustCompile(`(?i)^[ivxlcdm]+\.\s*`)
)

// Words kept lowercase when title-casing a section path, unless leading.
var smallTitleWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"for": {}, "if": {}, "in": {}, "of": {}, "on": {}, "or": {}, "the": {},
	"to": {}, "up": {}, "with": {},
}

// sectionSpan maps a page range to a section title. end < 0 leaves the
// range open to the end of the document.
type sectionSpan struct {
	start, end int
	title      string
}

// sectionSpansFromBookmarks turns the raw outline into page-range seeds:
// each entry runs until the page before the next one, the last runs open.
func sectionSpansFromBookmarks(bookmarks []doc.BookmarkEntry) []sectionSpan {
	spans := make([]sectionSpan, 0, len(bookmarks))
	for i, bm := range bookmarks {
		end := -1
		if i+1 < len(bookmarks) {
			end = bookmarks[i+1].Page - 1
		}
		title := textnorm.StripNumbering(bm.Title)
		if title == "" {
			title = bm.Title
		}
		spans = append(spans, sectionSpan{start: bm.Page, end: end, title: title})
	}
	return spans
}

// sectionForPage returns the first span containing the page, or "".
func sectionForPage(spans []sectionSpan, page int) string {
	for _, sp := range spans {
		if page >= sp.start && (sp.end < 0 || page <= sp.end) {
			return sp.title
		}
	}
	return ""
}

// sectionPathForHeader derives a section path from a header block's text.
func sectionPathForHeader(text string) string {
	text = strings.TrimSpace(text)
	if cleaned := cleanSectionTitle(text); cleaned != "" {
		return cleaned
	}
	return text
}

// cleanSectionTitle strips numbering prefixes ("1.2.3", "A.1", "IV.") and
// title-cases the remainder, keeping small connective words lowercase.
// Falls back to the input when stripping would leave nothing usable.
func cleanSectionTitle(title string) string {
	original := strings.TrimSpace(title)

	cleaned := titleNumberRe.ReplaceAllString(original, "")
	cleaned = titleLetterRe.ReplaceAllString(cleaned, "")
	cleaned = titleRomanRe.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if len(cleaned) < 2 {
		cleaned = original
	}

	words := strings.Fields(cleaned)
	for i, w := range words {
		lower := strings.ToLower(w)
		if _, small := smallTitleWords[lower]; small && i > 0 {
			words[i] = lower
		} else {
			words[i] = capitalize(lower)
		}
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	runes := []rune(w)
	if len(runes) == 0 {
		return w
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// fixMissingSectionPaths repairs paragraphs that ended up without a
// section: a forward pass carries the last known path down the document,
// then a backward pass fills leading paragraphs, but only near the start
// or when the text reads like a continuation of that section.
func fixMissingSectionPaths(paragraphs []*Paragraph) {
	current := ""
	for _, p := range paragraphs {
		if p.SectionPath != "" {
			current = p.SectionPath
		} else if current != "" {
			p.SectionPath = current
		}
	}

	current = ""
	for i := len(paragraphs) - 1; i >= 0; i-- {
		p := paragraphs[i]
		if p.SectionPath != "" {
			current = p.SectionPath
			continue
		}
		if current == "" {
			continue
		}
		if p.ParaIdx < backfillWindow || likelySameSection(p, current) {
			p.SectionPath = current
		}
	}
}

// likelySameSection reports whether a paragraph plausibly belongs to the
// given section: it mentions one of the section's words, or starts
// lowercase like a continuation.
func likelySameSection(p *Paragraph, section string) bool {
	if section == "" {
		return false
	}
	lower := strings.ToLower(p.Text)
	for _, w := range strings.Fields(strings.ToLower(section)) {
		if len(w) > 3 && strings.Contains(lower, w) {
			return true
		}
	}
	if p.Text != "" {
		r := []rune(p.Text)[0]
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
