package pipeline

import (
	"strings"
	"testing"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/segment"
	"github.com/dgallion1/docstruct/internal/structure"
)

func validParagraph(idx, page int, text string) *segment.Paragraph {
	return &segment.Paragraph{
		ParaIdx: idx,
		Page:    page,
		Text:    text,
		BBox:    doc.BoundingBox{X1: 72, Y1: 100, X2: 540, Y2: 120},
		Type:    segment.TypeParagraph,
	}
}

func TestValidateResult_NilResult(t *testing.T) {
	problems := ValidateResult(nil)
	if len(problems) != 1 {
		t.Fatalf("problems = %v, want exactly one", problems)
	}
}

func TestValidateResult_SoundResultPasses(t *testing.T) {
	res := &Result{
		Document: &doc.ParsedDocument{PageCount: 2},
		Paragraphs: []*segment.Paragraph{
			validParagraph(0, 1, "first body text"),
			validParagraph(1, 2, "second body text"),
		},
	}
	if problems := ValidateResult(res); len(problems) != 0 {
		t.Errorf("unexpected problems: %v", problems)
	}
}

func TestValidateResult_BrokenIndexSequence(t *testing.T) {
	res := &Result{
		Document: &doc.ParsedDocument{PageCount: 1},
		Paragraphs: []*segment.Paragraph{
			validParagraph(0, 1, "first body text"),
			validParagraph(2, 1, "second body text"),
		},
	}
	problems := ValidateResult(res)
	if len(problems) != 1 || !strings.Contains(problems[0], "contiguous") {
		t.Errorf("problems = %v, want one contiguity violation", problems)
	}
}

func TestValidateResult_PageRegression(t *testing.T) {
	res := &Result{
		Document: &doc.ParsedDocument{PageCount: 2},
		Paragraphs: []*segment.Paragraph{
			validParagraph(0, 2, "first body text"),
			validParagraph(1, 1, "second body text"),
		},
	}
	problems := ValidateResult(res)
	if len(problems) != 1 || !strings.Contains(problems[0], "regresses") {
		t.Errorf("problems = %v, want one page regression", problems)
	}
}

func TestValidateResult_InvertedBBox(t *testing.T) {
	p := validParagraph(0, 1, "body text")
	p.BBox = doc.BoundingBox{X1: 540, Y1: 100, X2: 72, Y2: 120}
	res := &Result{
		Document:   &doc.ParsedDocument{PageCount: 1},
		Paragraphs: []*segment.Paragraph{p},
	}
	problems := ValidateResult(res)
	if len(problems) != 1 || !strings.Contains(problems[0], "inverted bbox") {
		t.Errorf("problems = %v, want one inverted bbox", problems)
	}
}

func TestValidateResult_PageOutOfRange(t *testing.T) {
	res := &Result{
		Document:   &doc.ParsedDocument{PageCount: 2},
		Paragraphs: []*segment.Paragraph{validParagraph(0, 5, "body text")},
	}
	problems := ValidateResult(res)
	if len(problems) != 1 || !strings.Contains(problems[0], "outside") {
		t.Errorf("problems = %v, want one out-of-range page", problems)
	}
}

func TestValidateResult_DuplicateNormalizedText(t *testing.T) {
	res := &Result{
		Document: &doc.ParsedDocument{PageCount: 1},
		Paragraphs: []*segment.Paragraph{
			validParagraph(0, 1, "The same   Body text."),
			validParagraph(1, 1, "the same body text."),
		},
	}
	problems := ValidateResult(res)
	if len(problems) != 1 || !strings.Contains(problems[0], "duplicate") {
		t.Errorf("problems = %v, want one duplicate", problems)
	}
}

func TestValidateResult_ChildEscapesParentPages(t *testing.T) {
	res := &Result{
		Document: &doc.ParsedDocument{PageCount: 10},
		TOCResult: &structure.Result{
			Sections: []*structure.Section{{
				Title:     "Methods",
				StartPage: 2,
				EndPage:   4,
				Children: []*structure.Section{{
					Title:     "Setup",
					StartPage: 3,
					EndPage:   6,
				}},
			}},
		},
	}
	problems := ValidateResult(res)
	if len(problems) != 1 || !strings.Contains(problems[0], "escape parent") {
		t.Errorf("problems = %v, want one nesting violation", problems)
	}
}
