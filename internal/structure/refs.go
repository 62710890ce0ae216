package structure

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/docstruct/internal/doc"
)

var (
	refEntryRe         = regexp.MustCompile(`^\s*(\[?\d+\]?\.?|\(\d+\))\s*(.+)$`)
	refDigitsRe        = regexp.MustCompile(`\d+`)
	authorYearRe       = regexp.MustCompile(`([A-Za-z\s,]+?)[.,]\s*\((\d{4}[a-z]?)\)`)
	quotedTitleRe      = regexp.MustCompile(`\.\s*"([^"]+)"`)
	arxivRe            = regexp.MustCompile(`(?i)(?:arxiv:|abs/)?(\d{4}\.\d{4,5}(?:v\d+)?)`)
	doiRe              = regexp.MustCompile(`(?i)(?:doi:)?\s*10\.\d+/\S+`)
	urlRe              = regexp.MustCompile(`https?://[^\s<>\[\]()"']+`)
	emailRe            = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	numberedCitationRe = regexp.MustCompile(`\[(\d+)\]`)
	authorYearCiteRe   = regexp.MustCompile(`\(([A-Za-z\s,]+?,\s*\d{4}[a-z]?)\)`)
)

// extractReferences pulls the bibliography text out of the references
// entry's page range and parses it into numbered entries.
func (r *Resolver) extractReferences(refEntry *Entry, all []*Entry, d *doc.ParsedDocument) []Reference {
	paragraphs := r.extractIntervals(d, refEntry, all, [][2]int{{refEntry.StartPage, refEntry.EndPage}})
	if len(paragraphs) == 0 {
		return nil
	}
	return parseReferences(strings.Join(paragraphs, "\n"))
}

// parseReferences splits bibliography text into entries. A line starting
// with a bracketed, dotted or parenthesized number opens a new entry;
// anything else continues the current one. Entries come back sorted by
// number.
func parseReferences(text string) []Reference {
	var refs []Reference
	num := 0
	var cur []string
	flush := func() {
		if num > 0 && len(cur) > 0 {
			refs = append(refs, parseReference(num, strings.Join(cur, " ")))
		}
		cur = nil
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := refEntryRe.FindStringSubmatch(line); m != nil {
			flush()
			num = refNumber(m[1], len(refs)+1)
			cur = []string{strings.TrimSpace(m[2])}
		} else if len(cur) > 0 {
			cur = append(cur, line)
		}
	}
	flush()
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })
	return refs
}

// refNumber digs the number out of marker forms like "[3]", "3." or "(3)".
func refNumber(marker string, fallback int) int {
	if digits := refDigitsRe.FindString(marker); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			return n
		}
	}
	return fallback
}

// parseReference extracts authors, year, a quoted title and links from one
// raw bibliography entry.
func parseReference(number int, raw string) Reference {
	ref := Reference{Number: number, RawText: strings.TrimSpace(raw)}
	ref.Links = extractLinks(raw)
	if m := authorYearRe.FindStringSubmatch(raw); m != nil {
		ref.Authors = strings.TrimSpace(m[1])
		ref.Year = m[2]
	}
	if m := quotedTitleRe.FindStringSubmatch(raw); m != nil {
		ref.Title = strings.TrimSpace(m[1])
	}
	return ref
}

// extractLinks finds arXiv identifiers, DOIs, URLs and email addresses,
// normalized to resolvable URLs and deduplicated.
func extractLinks(text string) []Link {
	var links []Link
	seen := make(map[string]bool)
	add := func(l Link) {
		if !seen[l.URL] {
			seen[l.URL] = true
			links = append(links, l)
		}
	}
	for _, m := range arxivRe.FindAllStringSubmatch(text, -1) {
		id := m[1]
		add(Link{Type: "arxiv", URL: "https://arxiv.org/abs/" + id, Title: "arXiv:" + id})
	}
	for _, m := range doiRe.FindAllString(text, -1) {
		d := strings.TrimSpace(m)
		if len(d) >= 4 && strings.EqualFold(d[:4], "doi:") {
			d = strings.TrimSpace(d[4:])
		}
		if !strings.HasPrefix(d, "10.") {
			continue
		}
		add(Link{Type: "doi", URL: "https://doi.org/" + d, Title: d})
	}
	for _, u := range urlRe.FindAllString(text, -1) {
		add(Link{Type: "url", URL: u, Title: u})
	}
	for _, e := range emailRe.FindAllString(text, -1) {
		add(Link{Type: "email", URL: "mailto:" + e, Title: e})
	}
	return links
}

// linkCitations finds numbered and author-year citation markers in section
// text and resolves them against the bibliography.
func (r *Resolver) linkCitations(text string, refs []Reference) []Citation {
	var citations []Citation
	for _, m := range numberedCitationRe.FindAllStringSubmatchIndex(text, -1) {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		c := Citation{
			Type:            "numbered",
			Text:            text[m[0]:m[1]],
			Start:           m[0],
			End:             m[1],
			ReferenceNumber: n,
		}
		for i := range refs {
			if refs[i].Number == n {
				c.Reference = &refs[i]
				break
			}
		}
		citations = append(citations, c)
	}
	for _, m := range authorYearCiteRe.FindAllStringSubmatchIndex(text, -1) {
		citations = append(citations, Citation{
			Type:      "author_year",
			Text:      text[m[0]:m[1]],
			Start:     m[0],
			End:       m[1],
			Reference: matchAuthorYear(text[m[2]:m[3]], refs),
		})
	}
	return citations
}

// matchAuthorYear resolves an author-year citation body against the
// bibliography: the year must appear verbatim and at least one author word
// longer than two characters must occur in the citation.
func matchAuthorYear(content string, refs []Reference) *Reference {
	lower := strings.ToLower(content)
	for i := range refs {
		ref := &refs[i]
		if ref.Authors == "" || ref.Year == "" {
			continue
		}
		if !strings.Contains(content, ref.Year) {
			continue
		}
		for _, part := range strings.Fields(strings.ToLower(ref.Authors)) {
			part = strings.Trim(part, ",.")
			if len(part) > 2 && strings.Contains(lower, part) {
				return ref
			}
		}
	}
	return nil
}
