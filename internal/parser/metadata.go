package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dgallion1/docstruct/internal/doc"
)

var bareNumberRe = regexp.MustCompile(`^\d+$`)

// Words that mark the end of the title region on a first page.
var titleStopWords = map[string]bool{
	"abstract":     true,
	"introduction": true,
	"references":   true,
	"keywords":     true,
}

// readMetadata reads the PDF info dictionary and falls back to first-page
// layout heuristics when the title is missing.
func readMetadata(r *pdf.Reader, d *doc.ParsedDocument) doc.DocumentMetadata {
	md := doc.DocumentMetadata{PageCount: d.PageCount}

	info := r.Trailer().Key("Info")
	if info.Kind() == pdf.Dict {
		md.Title = strings.TrimSpace(info.Key("Title").Text())
		md.Subject = strings.TrimSpace(info.Key("Subject").Text())
		md.Creator = strings.TrimSpace(info.Key("Creator").Text())
		md.Producer = strings.TrimSpace(info.Key("Producer").Text())
		md.CreationDate = strings.TrimSpace(info.Key("CreationDate").Text())
		md.ModDate = strings.TrimSpace(info.Key("ModDate").Text())
		md.Authors = parseAuthors(info.Key("Author").Text())
	}

	if md.Title == "" {
		md.Title = fallbackTitle(d.PageBlocks(1))
	}
	return md
}

// parseAuthors splits a raw Author string on the first separator found,
// trying the common conventions in order. Fragments of one character or
// less are noise; at most ten authors are kept.
func parseAuthors(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := []string{raw}
	for _, sep := range []string{";", ",", " and ", " & ", "\n"} {
		if strings.Contains(raw, sep) {
			parts = strings.Split(raw, sep)
			break
		}
	}

	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) <= 1 {
			continue
		}
		authors = append(authors, p)
		if len(authors) == 10 {
			break
		}
	}
	return authors
}

// fallbackTitle reconstructs a title from the first page: the largest-font
// lines near the top, accumulated until a section word appears or the font
// size drops off.
func fallbackTitle(blocks []doc.TextBlock) string {
	if len(blocks) == 0 {
		return ""
	}

	sorted := make([]doc.TextBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FontSize != sorted[j].FontSize {
			return sorted[i].FontSize > sorted[j].FontSize
		}
		return sorted[i].BBox.Y1 < sorted[j].BBox.Y1
	})

	var parts []string
	total := 0
	lastFont := 0.0

	for _, b := range sorted {
		text := strings.TrimSpace(b.Text)
		if len(text) < 10 || len(text) > 200 {
			continue
		}
		if bareNumberRe.MatchString(text) {
			continue
		}
		if titleStopWords[strings.ToLower(text)] {
			break
		}
		if len(parts) >= 2 && total >= 30 && lastFont-b.FontSize > 2.0 {
			break
		}
		parts = append(parts, text)
		total += len(text)
		lastFont = b.FontSize
	}

	title := strings.Join(parts, " ")
	if len(title) < 10 {
		return ""
	}
	return title
}
