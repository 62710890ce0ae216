package structure

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docstruct/internal/textnorm"
)

// titleSimilarity scores how well a candidate line matches a section title,
// in [0,1]. Exact normalized match is 1.0, containment either way is worth
// at least 0.8, and everything else blends edit-distance ratio with keyword
// overlap.
func titleSimilarity(candidate, title string) float64 {
	a := textnorm.MatchKey(candidate)
	b := textnorm.MatchKey(title)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	ratio := editDistanceRatio(a, b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		if ratio < 0.8 {
			ratio = 0.8
		}
		return ratio
	}
	return 0.6*ratio + 0.4*keywordOverlap(a, b)
}

// editDistanceRatio is 1 minus the Levenshtein distance normalized by the
// longer string, computed over runes with a rolling row.
func editDistanceRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	dist := prev[len(rb)]
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	return 1.0 - float64(dist)/float64(longer)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// keywordOverlap is the Jaccard index of the two word sets.
func keywordOverlap(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

var keywordStopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"was": true, "were": true, "are": true,
}

var keywordRe = regexp.MustCompile(`[a-zA-Z]{3,}`)

// keywords extracts the meaningful lowercase words of a line: three or more
// letters, stopwords removed.
func keywords(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range keywordRe.FindAllString(strings.ToLower(s), -1) {
		if !keywordStopwords[w] {
			set[w] = true
		}
	}
	return set
}

// keywordJaccard is intersection over union of the keyword sets.
func keywordJaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// keywordCoverage is the share of the target's keywords present in the
// candidate.
func keywordCoverage(candidate, target map[string]bool) float64 {
	if len(target) == 0 {
		return 0
	}
	inter := 0
	for w := range target {
		if candidate[w] {
			inter++
		}
	}
	return float64(inter) / float64(len(target))
}

// sectionVariations maps canonical section names to spellings documents
// commonly use instead.
var sectionVariations = map[string][]string{
	"abstract":        {"summary", "overview"},
	"introduction":    {"intro", "background", "motivation"},
	"related work":    {"literature review", "prior work", "background", "state of the art"},
	"methodology":     {"methods", "approach", "technique", "framework"},
	"method":          {"methods", "methodology", "approach"},
	"results":         {"findings", "outcomes", "evaluation"},
	"discussion":      {"analysis", "interpretation"},
	"conclusion":      {"conclusions", "summary", "final remarks"},
	"references":      {"bibliography", "citations", "works cited"},
	"acknowledgments": {"acknowledgements", "thanks"},
	"appendix":        {"appendices", "supplementary material"},
}

// knownVariation reports whether the candidate is a recorded variant of
// the canonical name, or its plural or singular form.
func knownVariation(candidate, canonical string) bool {
	candidate = textnorm.MatchKey(candidate)
	canonical = textnorm.MatchKey(canonical)
	if candidate == canonical {
		return true
	}
	if candidate == canonical+"s" || candidate+"s" == canonical {
		return true
	}
	for _, v := range sectionVariations[canonical] {
		if candidate == v {
			return true
		}
	}
	return false
}
