package pipeline

import (
	"fmt"

	"github.com/dgallion1/docstruct/internal/structure"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// ValidateResult checks the structural invariants of a finished parse and
// returns one problem string per violation. An empty slice means the
// result is sound enough to hand to the writer.
func ValidateResult(res *Result) []string {
	if res == nil {
		return []string{"nil result"}
	}

	pageCount := 0
	if res.Document != nil {
		pageCount = res.Document.PageCount
	}

	var problems []string
	seen := make(map[string]int, len(res.Paragraphs))
	for i, p := range res.Paragraphs {
		if p.ParaIdx != i {
			problems = append(problems,
				fmt.Sprintf("paragraph %d: para_idx %d breaks the contiguous sequence", i, p.ParaIdx))
		}
		if i > 0 && p.Page < res.Paragraphs[i-1].Page {
			problems = append(problems,
				fmt.Sprintf("paragraph %d: page %d regresses below %d", i, p.Page, res.Paragraphs[i-1].Page))
		}
		if p.BBox.X2 < p.BBox.X1 || p.BBox.Y2 < p.BBox.Y1 {
			problems = append(problems, fmt.Sprintf("paragraph %d: inverted bbox", i))
		}
		if pageCount > 0 && (p.Page < 1 || p.Page > pageCount) {
			problems = append(problems,
				fmt.Sprintf("paragraph %d: page %d outside 1..%d", i, p.Page, pageCount))
		}

		key := textnorm.Key(p.Text)
		if key == "" {
			continue
		}
		if prev, ok := seen[key]; ok {
			problems = append(problems,
				fmt.Sprintf("paragraph %d: duplicate normalized text of paragraph %d", i, prev))
			continue
		}
		seen[key] = i
	}

	if res.TOCResult != nil {
		problems = append(problems, validateNesting(res.TOCResult.Sections)...)
	}
	return problems
}

// validateNesting checks that every child section's page range stays inside
// its parent's.
func validateNesting(sections []*structure.Section) []string {
	var problems []string
	for _, s := range structure.FlattenSections(sections) {
		for _, c := range s.Children {
			if c.StartPage < s.StartPage || c.EndPage > s.EndPage {
				problems = append(problems, fmt.Sprintf(
					"section %q: child %q pages %d-%d escape parent %d-%d",
					s.Title, c.Title, c.StartPage, c.EndPage, s.StartPage, s.EndPage))
			}
		}
	}
	return problems
}
