package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// idGridSize snaps bbox coordinates before hashing so sub-grid jitter
// between extractions of the same bytes cannot change the ID.
const idGridSize = 10.0

// idSnippetRunes bounds how much text feeds the hash.
const idSnippetRunes = 100

// StableID derives the content hash identifying a paragraph across
// re-ingestions: SHA-256 over the document ID, the page, the bbox snapped
// to a 10-point grid, and the first 100 runes of the lowercase normalized
// text.
func StableID(docID string, page int, bbox doc.BoundingBox, text string) string {
	snippet := textnorm.Key(text)
	if runes := []rune(snippet); len(runes) > idSnippetRunes {
		snippet = string(runes[:idSnippetRunes])
	}
	input := fmt.Sprintf("%s:%d:%.0f,%.0f,%.0f,%.0f:%s",
		docID, page,
		snapToGrid(bbox.X1), snapToGrid(bbox.Y1),
		snapToGrid(bbox.X2), snapToGrid(bbox.Y2),
		snippet)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

func snapToGrid(v float64) float64 {
	return math.Round(v/idGridSize) * idGridSize
}

// EstimateTokens approximates the token count of text at four characters
// per token, never below one.
func EstimateTokens(text string) int {
	n := (utf8.RuneCountInString(text) + 3) / 4
	if n < 1 {
		return 1
	}
	return n
}

// assignCharSpans records each paragraph's byte range in the document-order
// text reconstruction, paragraphs separated by a blank line.
func assignCharSpans(paragraphs []*Paragraph) {
	pos := 0
	for i, p := range paragraphs {
		if i > 0 {
			pos += len("\n\n")
		}
		p.CharSpan = &CharSpan{Start: pos, End: pos + len(p.Text)}
		pos += len(p.Text)
	}
}

// UpdateCharSpans locates each paragraph in the document's full text and
// records its byte range. The search advances monotonically, so repeated
// texts land on successive occurrences; paragraphs not found get an
// approximate span continuing from the previous one.
func UpdateCharSpans(paragraphs []*Paragraph, fullText string) {
	pos := 0
	for _, p := range paragraphs {
		from := min(pos, len(fullText))
		if idx := strings.Index(fullText[from:], p.Text); idx >= 0 {
			start := from + idx
			end := start + len(p.Text)
			p.CharSpan = &CharSpan{Start: start, End: end}
			pos = end
			continue
		}
		p.CharSpan = &CharSpan{Start: pos, End: pos + len(p.Text)}
		pos += len(p.Text)
	}
}
