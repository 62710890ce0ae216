package segment

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Duplicate scoring weights: a numbered section path, its subsection
// depth and its length make a copy more specific; a missing path or a
// generic name makes it less so.
const (
	dupNumberedBonus = 15.0
	dupDepthBonus    = 10.0
	dupPathLenCap    = 100.0
	dupNamedBonus    = 20.0
	dupNoPathPenalty = 50.0
	dupBodyBonus     = 15.0
	dupTokenCap      = 100.0
	dupPageWeight    = 0.1
)

var numberedPathRe = regexp.MustCompile(`^\d+`)

// genericSectionNames never win a duplicate tie.
var genericSectionNames = []string{"document header", "untitled", "section", "chapter"}

// combinePreAbstract folds everything before the first paragraph whose
// section mentions the abstract into one synthetic "Document Header"
// paragraph, so title, author and affiliation lines do not surface as a
// dozen fragments.
func (s *Segmenter) combinePreAbstract(paragraphs []*Paragraph) []*Paragraph {
	abstractIdx := -1
	for i, p := range paragraphs {
		if strings.Contains(strings.ToLower(p.SectionPath), "abstract") {
			abstractIdx = i
			break
		}
	}
	if abstractIdx <= 0 {
		return paragraphs
	}

	pre := paragraphs[:abstractIdx]
	rest := paragraphs[abstractIdx:]

	parts := make([]string, 0, len(pre))
	bbox := pre[0].BBox
	tokens := 0
	for _, p := range pre {
		parts = append(parts, strings.TrimSpace(p.Text))
		tokens += p.Tokens
		bbox = bbox.Union(p.BBox)
	}
	text := strings.Join(parts, " ")

	combined := &Paragraph{
		DocID:       pre[0].DocID,
		Page:        pre[0].Page,
		ParaIdx:     0,
		Text:        text,
		BBox:        bbox,
		CharSpan:    pre[0].CharSpan,
		SectionPath: "Document Header",
		Type:        TypeParagraph,
		Tokens:      tokens,
		FontSize:    pre[0].FontSize,
		Bold:        pre[0].Bold,
		Italic:      pre[0].Italic,
	}
	combined.StableID = StableID(combined.DocID, combined.Page, bbox, text)

	out := append([]*Paragraph{combined}, rest...)
	for i, p := range rest {
		p.ParaIdx = i + 1
	}
	return out
}

// dedupe drops paragraphs whose normalized text already appeared, keeping
// the copy with the most specific section path. The survivors are
// reordered by (page, index) and reindexed.
func (s *Segmenter) dedupe(paragraphs []*Paragraph) []*Paragraph {
	groups := make(map[string][]*Paragraph)
	order := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		key := textnorm.Key(p.Text)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	out := make([]*Paragraph, 0, len(groups))
	for _, key := range order {
		dups := groups[key]
		best := dups[0]
		if len(dups) > 1 {
			best = chooseBestDuplicate(dups)
			s.log.Debug("dropped duplicate paragraphs",
				"count", len(dups)-1, "kept_section", best.SectionPath)
		}
		out = append(out, best)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].ParaIdx < out[j].ParaIdx
	})
	for i, p := range out {
		p.ParaIdx = i
	}
	return out
}

// chooseBestDuplicate picks the highest scoring copy; ties keep the
// earliest.
func chooseBestDuplicate(dups []*Paragraph) *Paragraph {
	best := dups[0]
	bestScore := duplicateScore(best)
	for _, p := range dups[1:] {
		if score := duplicateScore(p); score > bestScore {
			best, bestScore = p, score
		}
	}
	return best
}

// duplicateScore rates how much a duplicate copy is worth keeping. Copies
// filed under a numbered, deep, non-generic section path win over copies
// without one; body text beats bare headers; longer content beats shorter.
func duplicateScore(p *Paragraph) float64 {
	score := 0.0
	if p.SectionPath != "" {
		if numberedPathRe.MatchString(strings.TrimSpace(p.SectionPath)) {
			score += dupNumberedBonus
		}
		score += float64(strings.Count(p.SectionPath, ".")) * dupDepthBonus
		score += math.Min(float64(len(p.SectionPath)), dupPathLenCap)

		lower := strings.ToLower(p.SectionPath)
		generic := false
		for _, name := range genericSectionNames {
			if strings.Contains(lower, name) {
				generic = true
				break
			}
		}
		if !generic {
			score += dupNamedBonus
		}
	} else {
		score -= dupNoPathPenalty
	}
	if p.Type != TypeHeader {
		score += dupBodyBonus
	}
	score += math.Min(float64(p.Tokens), dupTokenCap)
	score -= float64(p.Page) * dupPageWeight
	return score
}

// MergeOptions controls the short-paragraph merge pass.
type MergeOptions struct {
	MinTokens          int     // paragraphs under this merge into the previous one
	AdjacencyTolerance float64 // max vertical gap for a seamless join
	MaxPageGap         int     // furthest page distance to merge across; negative disables
	SameSectionOnly    bool    // merge only within one section path
}

// DefaultMergeOptions merges block-derived paragraphs within one page of
// each other.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{MinTokens: 100, AdjacencyTolerance: 10, MaxPageGap: 1}
}

// StructureMergeOptions merges section-tree paragraphs, which carry
// synthetic coordinates: adjacency is looser and merging never crosses a
// section boundary.
func StructureMergeOptions() MergeOptions {
	return MergeOptions{MinTokens: 100, AdjacencyTolerance: 25, MaxPageGap: -1, SameSectionOnly: true}
}

// MergeShortParagraphs absorbs each paragraph under the token threshold
// into its predecessor, except headers and captions, which stay separate.
// Vertically adjacent boxes join with a space, distant ones with a line
// break; the merged box is the union and the stable ID is recomputed.
// Mutates the surviving paragraphs and returns the reindexed list.
func MergeShortParagraphs(paragraphs []*Paragraph, opts MergeOptions) []*Paragraph {
	var out []*Paragraph
	for _, p := range paragraphs {
		if len(out) > 0 && p.Tokens < opts.MinTokens && !protectedType(p.Type) {
			prev := out[len(out)-1]
			if mergeEligible(prev, p, opts) {
				absorb(prev, p, opts.AdjacencyTolerance)
				continue
			}
		}
		out = append(out, p)
	}
	for i, p := range out {
		p.ParaIdx = i
	}
	return out
}

func protectedType(t ParagraphType) bool {
	return t == TypeHeader || t == TypeFigureCaption || t == TypeTable
}

func mergeEligible(prev, p *Paragraph, opts MergeOptions) bool {
	if opts.SameSectionOnly && prev.SectionPath != p.SectionPath {
		return false
	}
	if opts.MaxPageGap >= 0 {
		diff := p.Page - prev.Page
		if diff < 0 {
			diff = -diff
		}
		if diff > opts.MaxPageGap {
			return false
		}
	}
	return true
}

// absorb appends p's text to prev, seamlessly when their boxes stack
// within tolerance.
func absorb(prev, p *Paragraph, tolerance float64) {
	adjacent := prev.BBox.OverlapsHorizontally(p.BBox) &&
		math.Abs(prev.BBox.VerticalGap(p.BBox)) <= tolerance

	sep := "\n"
	if adjacent {
		sep = " "
	}
	prev.Text = strings.TrimRight(prev.Text, " \t\n") + sep + strings.TrimLeft(p.Text, " \t\n")
	prev.Tokens = EstimateTokens(prev.Text)
	prev.BBox = prev.BBox.Union(p.BBox)

	if prev.CharSpan != nil && p.CharSpan != nil {
		prev.CharSpan.End = p.CharSpan.End
	}
	if p.SectionPath != "" && len(p.SectionPath) > len(prev.SectionPath) {
		prev.SectionPath = p.SectionPath
	}
	prev.StableID = StableID(prev.DocID, prev.Page, prev.BBox, prev.Text)
}
