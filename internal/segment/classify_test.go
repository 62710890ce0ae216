package segment

import (
	"testing"

	"github.com/dgallion1/docstruct/internal/doc"
)

func TestClassifyParagraph(t *testing.T) {
	s := NewSegmenter(DefaultConfig(), nil)
	pc := testPC()
	body := blk(1, 100, 112, "", 10, false)

	tests := []struct {
		name  string
		text  string
		first doc.TextBlock
		want  ParagraphType
	}{
		{"bullet list item", "• first bullet point of the list", body, TypeListItem},
		{"numbered list item", "1. Introduction to the topic", body, TypeListItem},
		{"lettered list item", "(a) enumerate the available options", body, TypeListItem},
		{"figure caption", "Figure 3: system overview diagram", body, TypeFigureCaption},
		{"inline figure reference", "see Fig. 4 for the block layout", body, TypeFigureCaption},
		{"table caption", "Table 2. accuracy comparison", body, TypeTable},
		{"references mention", "See the references section below", body, TypeReferenceItem},
		{"bibliography entry", "Smith, J. and Jones, K. vol. 3, pp. 45-67, 2020.", body, TypeReferenceItem},
		{"bold oversized header", "Boldly Formatted Heading Line", blk(1, 100, 112, "", 11.5, true), TypeHeader},
		{"small footer text", "page 8 of 12 draft copy", blk(1, 750, 758, "", 8, false), TypeFooter},
		{"plain body", "the quick brown fox jumps over the lazy dog", body, TypeParagraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.classifyParagraph(tt.text, tt.first, pc); got != tt.want {
				t.Errorf("classifyParagraph(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestLooksLikeReference(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"doi:10.1000/xyz arxiv:2001.00001", true},
		{"kumar et al. pp. 101-120", true},
		{"published in 1999. by someone", false},
		{"a plain sentence without citations", false},
	}
	for _, tt := range tests {
		if got := looksLikeReference(tt.text); got != tt.want {
			t.Errorf("looksLikeReference(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsCaption(t *testing.T) {
	if !isCaption("Figure 12: end to end latency") {
		t.Error("figure caption not detected")
	}
	if !isCaption("Table 1: dataset statistics") {
		t.Error("table caption not detected")
	}
	if isCaption("the figures of merit are discussed") {
		t.Error("prose mentioning figures misdetected as caption")
	}
}

func TestShouldKeep(t *testing.T) {
	s := NewSegmenter(DefaultConfig(), nil)

	tests := []struct {
		name string
		text string
		typ  ParagraphType
		want bool
	}{
		{"too short", "tiny", TypeParagraph, false},
		{"header without sentence", "Bold Heading Line", TypeHeader, false},
		{"header with sentence", "Overview: the system has three parts.", TypeHeader, true},
		{"bare lexicon title", "Introduction", TypeParagraph, false},
		{"bare numbering header", "2.1.3.4.5.", TypeHeader, false},
		{"bare subsection number", "12.13.14.15", TypeParagraph, false},
		{"bare appendix number", "A.123456789", TypeParagraph, false},
		{"normal paragraph", "the final paragraph keeps plenty of words around.", TypeParagraph, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Paragraph{Text: tt.text, Type: tt.typ}
			if got := s.shouldKeep(p); got != tt.want {
				t.Errorf("shouldKeep(%q, %s) = %v, want %v", tt.text, tt.typ, got, tt.want)
			}
		})
	}
}
