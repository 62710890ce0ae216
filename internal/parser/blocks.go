package parser

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dgallion1/docstruct/internal/doc"
)

const (
	minSpanFontSize = 6.0
	maxSpanFontSize = 72.0
)

// buildLineBlocks merges raw content spans into line-level text blocks.
// Spans sharing a baseline (within half a line of tolerance) become one
// block whose bbox is the union of the span boxes and whose font attributes
// come from the leftmost span. Coordinates are converted from the PDF's
// bottom-origin y to the top-origin convention used everywhere downstream.
func buildLineBlocks(spans []pdf.Text, page int, size doc.PageSize) []doc.TextBlock {
	kept := make([]pdf.Text, 0, len(spans))
	for _, s := range spans {
		if s.FontSize < minSpanFontSize || s.FontSize > maxSpanFontSize {
			continue
		}
		if strings.TrimSpace(s.S) == "" {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil
	}

	// Top of page first: larger Y is higher in bottom-origin coordinates.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Y != kept[j].Y {
			return kept[i].Y > kept[j].Y
		}
		return kept[i].X < kept[j].X
	})

	var blocks []doc.TextBlock
	row := []pdf.Text{kept[0]}
	rowY := kept[0].Y

	flush := func() {
		if len(row) > 0 {
			blocks = append(blocks, lineFromRow(row, page, size))
		}
	}

	for _, s := range kept[1:] {
		tol := rowTolerance(row[0].FontSize)
		if rowY-s.Y <= tol && s.Y-rowY <= tol {
			row = append(row, s)
			continue
		}
		flush()
		row = []pdf.Text{s}
		rowY = s.Y
	}
	flush()
	return blocks
}

func rowTolerance(fontSize float64) float64 {
	tol := 0.5 * fontSize
	if tol < 2.0 {
		tol = 2.0
	}
	return tol
}

func lineFromRow(row []pdf.Text, page int, size doc.PageSize) doc.TextBlock {
	sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

	first := row[0]
	x1, x2 := first.X, first.X+first.W
	baseline := first.Y

	var sb strings.Builder
	sb.WriteString(first.S)
	prevEnd := first.X + first.W
	for _, s := range row[1:] {
		// Fragments separated by more than a fifth of the font size get a
		// space; tighter fragments are pieces of the same word.
		if s.X-prevEnd > 0.2*s.FontSize && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(s.S, " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.S)
		if s.X < x1 {
			x1 = s.X
		}
		if end := s.X + s.W; end > x2 {
			x2 = end
		}
		if s.Y > baseline {
			baseline = s.Y
		}
		prevEnd = s.X + s.W
	}

	top := size.Height - baseline - first.FontSize
	if top < 0 {
		top = 0
	}
	bottom := size.Height - baseline
	if bottom < top {
		bottom = top
	}

	return doc.TextBlock{
		Text:     strings.TrimSpace(sb.String()),
		BBox:     doc.BoundingBox{X1: x1, Y1: top, X2: x2, Y2: bottom},
		Page:     page,
		FontSize: first.FontSize,
		Font:     first.Font,
		Bold:     fontIsBold(first.Font),
		Italic:   fontIsItalic(first.Font),
	}
}

// The span API exposes no style flags, so weight and slant are read off the
// font name.
func fontIsBold(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "bold") || strings.Contains(n, "black") || strings.Contains(n, "heavy")
}

func fontIsItalic(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "italic") || strings.Contains(n, "oblique")
}
