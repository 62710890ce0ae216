// Package textnorm holds the text cleanup shared by the structure resolver
// and the paragraph segmenter: ligature folding, hyphenated line-break
// repair and whitespace collapsing.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Ligatures folded explicitly before NFKC so the replacements hold even for
// fonts that map them to private-use codepoints upstream.
var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
)

var (
	hyphenBreakRe = regexp.MustCompile(`(\w+)-\s*\n\s*(\w+)`)
	numberingRe   = regexp.MustCompile(`^\d+(\.\d+)*\.?\s*`)
	letterNumRe   = regexp.MustCompile(`^[A-Z](\.\d+)+\.?\s*`)
	matchPunctRe  = regexp.MustCompile(`[\s\-–—_:;,.()\[\]{}]+`)
	prefixRe      = regexp.MustCompile(`^\d+(\.\d+)*`)
)

// Normalize folds ligatures, applies NFKC and collapses all whitespace runs
// to single spaces.
func Normalize(s string) string {
	s = ligatures.Replace(s)
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Key is the canonical lowercase form used for title comparison and
// duplicate detection.
func Key(s string) string {
	return strings.ToLower(Normalize(s))
}

// MatchKey is the looser form used for fuzzy heading comparison: lowercase
// with punctuation runs folded to single spaces, so "1. Introduction" and
// "1 Introduction" compare equal.
func MatchKey(s string) string {
	s = strings.ToLower(Normalize(s))
	return strings.TrimSpace(matchPunctRe.ReplaceAllString(s, " "))
}

// NumberingPrefix returns the leading section number of a heading, such as
// "3" or "2.4.1", or "" when the heading is unnumbered.
func NumberingPrefix(s string) string {
	return prefixRe.FindString(strings.TrimSpace(s))
}

// FixHyphenBreaks joins words split by a hyphen at a line break, but only
// when the continuation starts lowercase: "seg-\nmentation" becomes
// "segmentation" while "pre-\nNewtonian" keeps its hyphen.
func FixHyphenBreaks(s string) string {
	return hyphenBreakRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := hyphenBreakRe.FindStringSubmatch(m)
		head, tail := parts[1], parts[2]
		if tail != "" && tail[0] >= 'a' && tail[0] <= 'z' {
			return head + tail
		}
		return head + "-" + tail
	})
}

// StripNumbering removes a leading section numbering prefix such as
// "3.", "2.4.1 " or "A.1 " from a heading.
func StripNumbering(s string) string {
	s = strings.TrimSpace(s)
	if out := numberingRe.ReplaceAllString(s, ""); out != s {
		return strings.TrimSpace(out)
	}
	return strings.TrimSpace(letterNumRe.ReplaceAllString(s, ""))
}
