package parser

import (
	"math"
	"sort"

	"github.com/dgallion1/docstruct/internal/doc"
)

const (
	// A horizontal gap wider than this fraction of the page width between
	// block left edges starts a new column.
	columnGapFraction = 0.2

	// Blocks whose tops differ by no more than this sit on the same visual
	// line in single-column layouts.
	lineYTolerance = 5.0
)

// orderBlocks arranges one page's line blocks into reading order: column by
// column for multi-column layouts, line by line left-to-right otherwise.
func orderBlocks(blocks []doc.TextBlock, pageWidth float64) []doc.TextBlock {
	if len(blocks) < 2 {
		return blocks
	}

	starts := columnStarts(blocks, pageWidth)
	if len(starts) >= 2 {
		return mergeColumns(splitColumns(blocks, starts))
	}
	return singleColumnOrder(blocks)
}

// columnStarts clusters the distinct left edges of the blocks. A new
// cluster opens wherever consecutive sorted edges are separated by more
// than columnGapFraction of the page width.
func columnStarts(blocks []doc.TextBlock, pageWidth float64) []float64 {
	seen := make(map[float64]bool, len(blocks))
	xs := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		x := math.Round(b.BBox.X1)
		if !seen[x] {
			seen[x] = true
			xs = append(xs, x)
		}
	}
	sort.Float64s(xs)

	threshold := pageWidth * columnGapFraction
	starts := []float64{xs[0]}
	for i := 1; i < len(xs); i++ {
		if xs[i]-xs[i-1] > threshold {
			starts = append(starts, xs[i])
		}
	}
	return starts
}

// splitColumns assigns each block to the column whose start is nearest its
// left edge, then sorts every column top-to-bottom.
func splitColumns(blocks []doc.TextBlock, starts []float64) [][]doc.TextBlock {
	columns := make([][]doc.TextBlock, len(starts))
	for _, b := range blocks {
		best := 0
		bestDist := math.Abs(b.BBox.X1 - starts[0])
		for i := 1; i < len(starts); i++ {
			if d := math.Abs(b.BBox.X1 - starts[i]); d < bestDist {
				best, bestDist = i, d
			}
		}
		columns[best] = append(columns[best], b)
	}
	for _, col := range columns {
		sort.SliceStable(col, func(i, j int) bool { return col[i].BBox.Y1 < col[j].BBox.Y1 })
	}
	return columns
}

// mergeColumns interleaves the sorted columns by repeatedly emitting the
// topmost remaining head. Ties go to the leftmost column, which keeps the
// merge stable.
func mergeColumns(columns [][]doc.TextBlock) []doc.TextBlock {
	total := 0
	for _, col := range columns {
		total += len(col)
	}
	out := make([]doc.TextBlock, 0, total)
	heads := make([]int, len(columns))

	for len(out) < total {
		best := -1
		var bestY float64
		for i, col := range columns {
			if heads[i] >= len(col) {
				continue
			}
			y := col[heads[i]].BBox.Y1
			if best == -1 || y < bestY {
				best, bestY = i, y
			}
		}
		out = append(out, columns[best][heads[best]])
		heads[best]++
	}
	return out
}

// singleColumnOrder sorts top-to-bottom, then left-to-right within each
// 5px line band.
func singleColumnOrder(blocks []doc.TextBlock) []doc.TextBlock {
	sorted := make([]doc.TextBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y1 != sorted[j].BBox.Y1 {
			return sorted[i].BBox.Y1 < sorted[j].BBox.Y1
		}
		return sorted[i].BBox.X1 < sorted[j].BBox.X1
	})

	out := make([]doc.TextBlock, 0, len(sorted))
	var line []doc.TextBlock
	lineY := math.Inf(-1)

	flush := func() {
		sort.SliceStable(line, func(i, j int) bool { return line[i].BBox.X1 < line[j].BBox.X1 })
		out = append(out, line...)
		line = line[:0]
	}

	for _, b := range sorted {
		if len(line) > 0 && b.BBox.Y1-lineY > lineYTolerance {
			flush()
		}
		if len(line) == 0 {
			lineY = b.BBox.Y1
		}
		line = append(line, b)
	}
	flush()
	return out
}
