package structure

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Anchor score weights. Similarity is the base; position on the page, font
// size and bold add bonuses, and very long candidates lose points.
const (
	anchorTopWeight   = 0.15
	anchorFontWeight  = 0.2
	anchorBoldBonus   = 0.1
	anchorLenWeight   = 0.1
	anchorBodyFont    = 11.0
	anchorPrefixSim   = 0.9
	anchorPrefixBonus = 0.2
	anchorKeywordMin  = 0.3
)

type anchorCandidate struct {
	score float64
	sim   float64
	size  float64
	top   float64
	bot   float64
	text  string
}

// locateAnchors finds the printed heading of every entry on its start page.
// An entry whose heading cannot be found keeps its discovery anchor if it
// has one; otherwise page cuts fall back to estimates and a warning is
// recorded.
func (r *Resolver) locateAnchors(entries []*Entry, d *doc.ParsedDocument) []string {
	var warnings []string
	for _, e := range entries {
		page := e.StartPage + 1
		if a := r.findAnchor(e.Title, d.PageBlocks(page), d.PageSize(page).Height); a != nil {
			e.Anchor = a
			continue
		}
		if e.Anchor == nil {
			warnings = append(warnings,
				fmt.Sprintf("no heading anchor for %q on page %d, using estimated position", e.Title, page))
		}
	}
	return warnings
}

// findAnchor scores every block on the page against the title three ways:
// edit-distance similarity against the title and its numbering-stripped
// form, a fixed high similarity when the block carries the title's
// numbering prefix, and keyword overlap. It then walks the similarity
// threshold ladder over the score-ranked pool, and finally falls back to
// the best header-shaped block in the upper part of the page.
func (r *Resolver) findAnchor(title string, blocks []doc.TextBlock, pageH float64) *Anchor {
	if len(blocks) == 0 {
		return nil
	}
	variants := []string{textnorm.MatchKey(title), textnorm.MatchKey(textnorm.StripNumbering(title))}
	prefix := textnorm.NumberingPrefix(title)
	titleWords := keywords(title)

	var cands []anchorCandidate
	for _, b := range blocks {
		text := textnorm.Normalize(b.Text)
		if text == "" || len(text) > 200 {
			continue
		}
		key := textnorm.MatchKey(text)
		top, bot := b.BBox.Y1, b.BBox.Y2

		sim := 0.0
		for _, v := range variants {
			if s := editDistanceRatio(key, v); s > sim {
				sim = s
			}
		}
		cands = append(cands, anchorCandidate{
			score: anchorBlockScore(b, sim, len(text), pageH),
			sim:   sim,
			size:  b.FontSize,
			top:   top,
			bot:   bot,
			text:  text,
		})

		if prefix != "" && strings.HasPrefix(text, prefix) {
			cands = append(cands, anchorCandidate{
				score: anchorPrefixSim + anchorPrefixBonus,
				sim:   anchorPrefixSim,
				size:  b.FontSize,
				top:   top,
				bot:   bot,
				text:  text,
			})
		}

		if len(text) <= 150 {
			if kw := keywordJaccard(keywords(text), titleWords); kw >= anchorKeywordMin {
				cands = append(cands, anchorCandidate{
					score: kw + 0.1,
					sim:   kw,
					size:  b.FontSize,
					top:   top,
					bot:   bot,
					text:  text,
				})
			}
		}
	}
	if len(cands) == 0 {
		return nil
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	for _, minSim := range r.cfg.AnchorThresholds {
		for _, c := range cands {
			if c.sim >= minSim {
				return &Anchor{Y0: c.top, Y1: c.bot}
			}
		}
	}

	topRegion := pageH * r.cfg.TopRegionFraction
	for _, c := range cands {
		if c.top < topRegion && c.size >= 10 && len(c.text) < 100 {
			return &Anchor{Y0: c.top, Y1: c.bot}
		}
	}
	return nil
}

func anchorBlockScore(b doc.TextBlock, sim float64, textLen int, pageH float64) float64 {
	score := sim
	if pageH > 0 {
		pos := 1.0 - b.BBox.Y1/pageH
		if pos > 0 {
			score += pos * anchorTopWeight
		}
	}
	if b.FontSize > anchorBodyFont {
		score += (b.FontSize - anchorBodyFont) / anchorBodyFont * anchorFontWeight
	}
	if b.Bold {
		score += anchorBoldBonus
	}
	if textLen > 50 {
		score -= float64(textLen-50) / 100 * anchorLenWeight
	}
	return score
}

// Default heading positions by level, used when no same-level anchor
// exists to take a median from.
var levelStartEstimates = map[int]float64{1: 100.0, 2: 150.0, 3: 200.0}

const defaultStartEstimate = 120.0

// estimateAnchorTop guesses where a heading of the given level sits on a
// page: the median top of located same-level anchors, else a per-level
// default.
func estimateAnchorTop(entries []*Entry, level int) float64 {
	var tops []float64
	for _, e := range entries {
		if e.Level == level && e.Anchor != nil {
			tops = append(tops, e.Anchor.Y0)
		}
	}
	if len(tops) > 0 {
		return median(tops)
	}
	if y, ok := levelStartEstimates[level]; ok {
		return y
	}
	return defaultStartEstimate
}

func median(v []float64) float64 {
	sort.Float64s(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}

// pageCut bounds the vertical slice of a page that belongs to a section.
// Blocks entirely above yMin or below yMax are skipped.
type pageCut struct {
	yMin float64
	yMax float64
}

func openCut() pageCut {
	return pageCut{yMin: math.Inf(-1), yMax: math.Inf(1)}
}

// pageCuts computes the per-page vertical bounds for one entry: below its
// own heading on the start page, above the next section's heading when
// that section starts on the end page, and below any descendant heading on
// intermediate pages. Missing anchors degrade to estimated positions.
func (r *Resolver) pageCuts(e *Entry, all []*Entry) map[int]pageCut {
	eps := r.cfg.CutEpsilon
	cuts := make(map[int]pageCut)
	get := func(p int) pageCut {
		if c, ok := cuts[p]; ok {
			return c
		}
		return openCut()
	}

	start := get(e.StartPage)
	if e.Anchor != nil {
		start.yMin = e.Anchor.Y1 + eps
	} else {
		start.yMin = estimateAnchorTop(all, e.Level)
	}
	cuts[e.StartPage] = start

	if e.NextSameOrHigher >= 0 {
		next := all[e.NextSameOrHigher]
		if next.StartPage == e.EndPage {
			c := get(e.EndPage)
			if next.Anchor != nil {
				c.yMax = next.Anchor.Y0 - eps
			} else {
				c.yMax = estimateAnchorTop(all, next.Level) - eps
			}
			cuts[e.EndPage] = c
		}
	}

	for page := e.StartPage + 1; page < e.EndPage; page++ {
		if top, ok := descendantHeadingTop(e, all, page); ok {
			c := get(page)
			c.yMin = top + eps
			cuts[page] = c
		}
	}
	return cuts
}

// descendantHeadingTop returns the heading top of the first descendant
// entry starting on the page, if any.
func descendantHeadingTop(parent *Entry, all []*Entry, page int) (float64, bool) {
	for _, e := range all {
		if e.Level <= parent.Level || e.StartPage != page || e.Idx <= parent.Idx {
			continue
		}
		if parent.NextSameOrHigher >= 0 && e.Idx >= parent.NextSameOrHigher {
			continue
		}
		if e.Anchor != nil {
			return e.Anchor.Y0, true
		}
		return estimateAnchorTop(all, e.Level), true
	}
	return 0, false
}
