package structure

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/docstruct/internal/doc"
)

// paperDoc builds a five-page document with three bookmarked sections and a
// one-entry bibliography.
func paperDoc() *doc.ParsedDocument {
	return &doc.ParsedDocument{
		PageCount: 5,
		Bookmarks: []doc.BookmarkEntry{
			{Level: 1, Title: "Introduction", Page: 1},
			{Level: 1, Title: "Methods", Page: 3},
			{Level: 1, Title: "References", Page: 5},
		},
		Blocks: []doc.TextBlock{
			tb(1, 100, 112, "Introduction", 14, true),
			tb(1, 130, 142, "This work investigates segmentation of scholarly documents.", 10, false),
			tb(2, 90, 102, "Further background material follows here in detail.", 10, false),
			tb(3, 90, 102, "Methods", 14, true),
			tb(3, 120, 132, "Our system extends earlier pipelines [1] with coordinate cuts.", 10, false),
			tb(4, 90, 102, "Additional procedure details and ablations appear here.", 10, false),
			tb(5, 80, 92, "References", 14, true),
			tb(5, 120, 132, "[1] Smith, J. (2020). Deep Parsing. arXiv:2001.00001.", 10, false),
		},
	}
}

func TestResolve_SectionTreeAndPages(t *testing.T) {
	r := NewResolver(Config{}, nil)
	opts := DefaultOptions()
	opts.IncludeMissingSections = false

	res, err := r.Resolve(paperDoc(), opts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(res.Sections))
	}

	intro := res.Sections[0]
	if intro.Title != "Introduction" || intro.StartPage != 1 || intro.EndPage != 2 {
		t.Errorf("intro = %q pages %d-%d, want Introduction 1-2", intro.Title, intro.StartPage, intro.EndPage)
	}
	if len(intro.Paragraphs) != 2 {
		t.Fatalf("intro paragraphs = %v, want 2", intro.Paragraphs)
	}
	if !strings.HasPrefix(intro.Paragraphs[0], "This work investigates") {
		t.Errorf("intro text starts %q, heading cut failed", intro.Paragraphs[0])
	}

	refsSec := res.Sections[2]
	if len(refsSec.References) != 1 || refsSec.References[0].Number != 1 {
		t.Fatalf("references section = %+v, want one entry #1", refsSec.References)
	}
	if len(res.References) != 1 {
		t.Errorf("global references = %d, want 1", len(res.References))
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestResolve_CitationsLinkAcrossSections(t *testing.T) {
	r := NewResolver(Config{}, nil)
	opts := DefaultOptions()
	opts.IncludeMissingSections = false

	res, err := r.Resolve(paperDoc(), opts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	methods := res.Sections[1]
	if len(methods.Citations) != 1 {
		t.Fatalf("methods citations = %+v, want 1", methods.Citations)
	}
	c := methods.Citations[0]
	if c.Type != "numbered" || c.ReferenceNumber != 1 || c.Reference == nil {
		t.Errorf("citation = %+v, want resolved numbered #1", c)
	}
}

func TestResolve_NoStructure(t *testing.T) {
	r := NewResolver(Config{}, nil)
	d := &doc.ParsedDocument{PageCount: 3}

	_, err := r.Resolve(d, DefaultOptions())
	if !errors.Is(err, ErrStructureNotFound) {
		t.Fatalf("err = %v, want ErrStructureNotFound", err)
	}
}

func TestResolve_MissingAnchorWarns(t *testing.T) {
	r := NewResolver(Config{}, nil)
	d := &doc.ParsedDocument{
		PageCount: 2,
		Bookmarks: []doc.BookmarkEntry{{Level: 1, Title: "Phantom Section", Page: 1}},
		Blocks: []doc.TextBlock{
			tb(1, 500, 512, "zzzz qqqq xxxx yyyy", 9, false),
		},
	}
	opts := DefaultOptions()
	opts.IncludeMissingSections = false

	res, err := r.Resolve(d, opts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Phantom Section") {
		t.Errorf("warnings = %v, want one naming the section", res.Warnings)
	}
}

func TestResolve_OwnOnlyExcludesChildPages(t *testing.T) {
	d := &doc.ParsedDocument{
		PageCount: 4,
		Bookmarks: []doc.BookmarkEntry{
			{Level: 1, Title: "Methods", Page: 1},
			{Level: 2, Title: "Data", Page: 2},
			{Level: 1, Title: "Evaluation", Page: 3},
		},
		Blocks: []doc.TextBlock{
			tb(1, 100, 112, "Methods", 14, true),
			tb(1, 130, 142, "alpha segment describes the corpus construction.", 10, false),
			tb(2, 95, 107, "Data", 14, true),
			tb(2, 130, 142, "beta segment lists the tables and sizes.", 10, false),
			tb(3, 90, 102, "Evaluation", 14, true),
			tb(3, 120, 132, "gamma segment reports aggregate scores.", 10, false),
		},
	}
	r := NewResolver(Config{}, nil)
	opts := DefaultOptions()
	opts.IncludeMissingSections = false
	opts.OwnOnly = true

	res, err := r.Resolve(d, opts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	methods := res.Sections[0]
	if len(methods.Children) != 1 || methods.Children[0].Title != "Data" {
		t.Fatalf("methods children = %+v, want [Data]", methods.Children)
	}
	for _, p := range methods.OwnParagraphs {
		if strings.Contains(p, "beta segment") {
			t.Errorf("own text contains child content: %q", p)
		}
	}
	joined := strings.Join(methods.Paragraphs, " ")
	if !strings.Contains(joined, "beta segment") {
		t.Errorf("full text misses child content: %q", joined)
	}
}

func TestResolve_LevelRangeContainer(t *testing.T) {
	d := &doc.ParsedDocument{
		PageCount: 3,
		Bookmarks: []doc.BookmarkEntry{
			{Level: 1, Title: "Appendix", Page: 1},
			{Level: 2, Title: "A.1 Proofs", Page: 2},
		},
		Blocks: []doc.TextBlock{
			tb(1, 100, 112, "Appendix", 14, true),
			tb(2, 95, 107, "A.1 Proofs", 12, true),
			tb(2, 130, 142, "delta segment holds the lemma statements.", 10, false),
		},
	}
	r := NewResolver(Config{}, nil)
	opts := DefaultOptions()
	opts.IncludeMissingSections = false
	opts.MinLevel = 2
	opts.MaxLevel = 2

	res, err := r.Resolve(d, opts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Sections) != 1 {
		t.Fatalf("got %d roots, want container", len(res.Sections))
	}
	root := res.Sections[0]
	if root.Title != "Appendix" || len(root.Paragraphs) != 0 {
		t.Errorf("container = %q with %d paragraphs, want empty Appendix", root.Title, len(root.Paragraphs))
	}
	if len(root.Children) != 1 || root.Children[0].Title != "A.1 Proofs" {
		t.Fatalf("container children = %+v", root.Children)
	}
	if len(root.Children[0].Paragraphs) == 0 {
		t.Error("in-range child has no text")
	}
}

func TestSectionHelpers(t *testing.T) {
	sections := []*Section{
		{
			Level: 1, Title: "1 Methods", StartPage: 1, EndPage: 2,
			Children: []*Section{{Level: 2, Title: "1.1 Data", StartPage: 2, EndPage: 2}},
		},
		{Level: 1, Title: "2 Evaluation", StartPage: 3, EndPage: 4},
	}

	flat := FlattenSections(sections)
	if len(flat) != 3 {
		t.Fatalf("flattened %d sections, want 3", len(flat))
	}
	if flat[1].Title != "1.1 Data" {
		t.Errorf("depth-first order broken: %q", flat[1].Title)
	}

	if s := FindSection(sections, "data"); s == nil || s.Title != "1.1 Data" {
		t.Errorf("FindSection(data) = %+v", s)
	}
	if s := FindSection(sections, "Missing"); s != nil {
		t.Errorf("FindSection(Missing) = %+v, want nil", s)
	}

	pm := SectionPageMap(sections)
	want := map[int]string{1: "Methods", 2: "Data", 3: "Evaluation", 4: "Evaluation"}
	for page, title := range want {
		if pm[page] != title {
			t.Errorf("page %d -> %q, want %q", page, pm[page], title)
		}
	}
}
