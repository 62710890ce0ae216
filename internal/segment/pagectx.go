package segment

import (
	"sort"

	"github.com/dgallion1/docstruct/internal/doc"
)

// Fallbacks when a page has no blocks or no positive gaps, in points.
const (
	defaultLineHeight = 10.0
	defaultFontSize   = 11.0
	defaultGap        = 3.0
	defaultPageHeight = 800.0
)

// maxGapFactor scales the median line height into the dynamic split gap;
// minMaxGap is its floor.
const (
	maxGapFactor = 0.35
	minMaxGap    = 2.0
)

// PageContext carries the layout statistics one page's split rules key
// off. It is computed once per page and never mutated afterwards, which
// keeps the Segmenter reentrant across concurrently processed documents.
type PageContext struct {
	MedianLineHeight float64
	MedianFontSize   float64
	MedianGap        float64
	MaxLineGap       float64 // dynamic split threshold for vertical gaps
	Height           float64 // page extent, taken from the lowest block
}

// NewPageContext derives the adaptive thresholds from the page's blocks:
// median line height, font size and inter-block gap, with the dynamic
// max gap set to max(0.35 x median line height, 2.0).
func NewPageContext(blocks []doc.TextBlock) PageContext {
	pc := PageContext{
		MedianLineHeight: defaultLineHeight,
		MedianFontSize:   defaultFontSize,
		MedianGap:        defaultGap,
		Height:           defaultPageHeight,
	}
	if len(blocks) > 0 {
		heights := make([]float64, 0, len(blocks))
		fonts := make([]float64, 0, len(blocks))
		bottom := 0.0
		for _, b := range blocks {
			heights = append(heights, b.BBox.Height())
			fonts = append(fonts, b.FontSize)
			if b.BBox.Y2 > bottom {
				bottom = b.BBox.Y2
			}
		}
		pc.MedianLineHeight = median(heights)
		pc.MedianFontSize = median(fonts)
		if gaps := blockGaps(blocks); len(gaps) > 0 {
			pc.MedianGap = median(gaps)
		}
		pc.Height = bottom
	}
	pc.MaxLineGap = maxGapFactor * pc.MedianLineHeight
	if pc.MaxLineGap < minMaxGap {
		pc.MaxLineGap = minMaxGap
	}
	return pc
}

// blockGaps collects the positive vertical gaps between consecutive blocks
// in top-to-bottom order.
func blockGaps(blocks []doc.TextBlock) []float64 {
	sorted := append([]doc.TextBlock(nil), blocks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y1 != sorted[j].BBox.Y1 {
			return sorted[i].BBox.Y1 < sorted[j].BBox.Y1
		}
		return sorted[i].BBox.X1 < sorted[j].BBox.X1
	})
	var gaps []float64
	for i := 0; i+1 < len(sorted); i++ {
		if g := sorted[i+1].BBox.Y1 - sorted[i].BBox.Y2; g > 0 {
			gaps = append(gaps, g)
		}
	}
	return gaps
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
