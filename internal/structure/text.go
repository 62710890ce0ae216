package structure

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Sentence-final punctuation. A block whose predecessor does not end in one
// of these is treated as a continuation and soft-merged into it.
const terminalPunct = ".!?:;…»)]›\""

const columnEdgeTolerance = 50.0

var captionRe = regexp.MustCompile(`(?i)^(figure|fig\.|table|tab\.|рис\.|табл\.)\s`)

// extractIntervals collects the section text for one entry over the given
// 0-based page intervals, applying the entry's vertical page cuts, and
// soft-merges blocks that continue a sentence across block boundaries.
func (r *Resolver) extractIntervals(d *doc.ParsedDocument, e *Entry, all []*Entry, intervals [][2]int) []string {
	cuts := r.pageCuts(e, all)

	var paragraphs []string
	for _, iv := range intervals {
		for page := iv[0]; page <= iv[1]; page++ {
			blocks := orderedBlocks(d, page+1)
			cut, ok := cuts[page]
			if !ok {
				cut = openCut()
			}
			for _, b := range blocks {
				if b.BBox.Y2 <= cut.yMin || b.BBox.Y1 >= cut.yMax {
					continue
				}
				text := textnorm.Normalize(textnorm.FixHyphenBreaks(b.Text))
				if text == "" {
					continue
				}
				if r.cfg.DropCaptions && captionRe.MatchString(text) {
					continue
				}
				if len(text) < r.cfg.MinChars {
					continue
				}
				paragraphs = append(paragraphs, text)
			}
		}
	}
	return softMerge(paragraphs)
}

// softMerge joins blocks whose predecessor stops mid-sentence.
func softMerge(paragraphs []string) []string {
	var merged []string
	for _, p := range paragraphs {
		if len(merged) > 0 && !endsTerminal(merged[len(merged)-1]) {
			merged[len(merged)-1] = merged[len(merged)-1] + " " + p
		} else {
			merged = append(merged, p)
		}
	}
	return merged
}

func endsTerminal(s string) bool {
	s = strings.TrimRight(s, " ")
	if s == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(terminalPunct, last)
}

// orderedBlocks returns the 1-based page's blocks in reading order: split
// into columns when the page looks two-column, otherwise top to bottom.
func orderedBlocks(d *doc.ParsedDocument, page int) []doc.TextBlock {
	blocks := d.PageBlocks(page)
	if len(blocks) == 0 {
		return blocks
	}
	width := d.PageSize(page).Width
	if isTwoColumn(blocks, width) {
		return sortTwoColumn(blocks, width)
	}
	sorted := append([]doc.TextBlock(nil), blocks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		yi := math.Round(sorted[i].BBox.Y1*100) / 100
		yj := math.Round(sorted[j].BBox.Y1*100) / 100
		if yi != yj {
			return yi < yj
		}
		return sorted[i].BBox.X1 < sorted[j].BBox.X1
	})
	return sorted
}

// isTwoColumn reports whether a page lays its blocks out in two columns:
// at least four blocks with at least two ending left of the midline and at
// least two starting right of it, within tolerance.
func isTwoColumn(blocks []doc.TextBlock, pageWidth float64) bool {
	if len(blocks) < 4 {
		return false
	}
	mid := pageWidth / 2
	left, right := 0, 0
	for _, b := range blocks {
		if b.BBox.X2 < mid+columnEdgeTolerance {
			left++
		}
		if b.BBox.X1 > mid-columnEdgeTolerance {
			right++
		}
	}
	return left >= 2 && right >= 2
}

// sortTwoColumn orders the left column top to bottom, then the right one.
// A block belongs to the column its horizontal center falls in.
func sortTwoColumn(blocks []doc.TextBlock, pageWidth float64) []doc.TextBlock {
	mid := pageWidth / 2
	var left, right []doc.TextBlock
	for _, b := range blocks {
		if (b.BBox.X1+b.BBox.X2)/2 < mid {
			left = append(left, b)
		} else {
			right = append(right, b)
		}
	}
	byTop := func(s []doc.TextBlock) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].BBox.Y1 < s[j].BBox.Y1 })
	}
	byTop(left)
	byTop(right)
	return append(left, right...)
}
