package segment

import (
	"testing"

	"github.com/dgallion1/docstruct/internal/doc"
)

func TestCleanSectionTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3 experimental results of the study", "Experimental Results of the Study"},
		{"A.1 model training setup", "Model Training Setup"},
		{"IV. related work overview", "Related Work Overview"},
		{"Implementation", "Implementation"},
		{"3.", "3."},
		{"MIXED Case TITLE", "Mixed Case Title"},
		{"2 Background", "Background"},
	}
	for _, tt := range tests {
		if got := cleanSectionTitle(tt.in); got != tt.want {
			t.Errorf("cleanSectionTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSectionPathForHeader(t *testing.T) {
	if got := sectionPathForHeader("  2 Background Material "); got != "Background Material" {
		t.Errorf("got %q, want %q", got, "Background Material")
	}
}

func TestSectionSpansFromBookmarks(t *testing.T) {
	bms := []doc.BookmarkEntry{
		{Level: 1, Title: "1 Introduction", Page: 1},
		{Level: 2, Title: "1.1 Data", Page: 2},
		{Level: 1, Title: "2 Methods", Page: 4},
	}
	spans := sectionSpansFromBookmarks(bms)
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}

	tests := []struct {
		page int
		want string
	}{
		{1, "Introduction"},
		{2, "Data"},
		{3, "Data"},
		{4, "Methods"},
		{9, "Methods"},
		{0, ""},
	}
	for _, tt := range tests {
		if got := sectionForPage(spans, tt.page); got != tt.want {
			t.Errorf("sectionForPage(%d) = %q, want %q", tt.page, got, tt.want)
		}
	}
}

func TestSectionSpans_SamePageBookmarks(t *testing.T) {
	// Two bookmarks on one page: the earlier span collapses to an empty
	// range, so the later title wins.
	bms := []doc.BookmarkEntry{
		{Level: 1, Title: "Alpha", Page: 3},
		{Level: 1, Title: "Beta", Page: 3},
	}
	spans := sectionSpansFromBookmarks(bms)
	if got := sectionForPage(spans, 3); got != "Beta" {
		t.Errorf("sectionForPage(3) = %q, want %q", got, "Beta")
	}
}

func TestFixMissingSectionPaths(t *testing.T) {
	ps := []*Paragraph{
		{ParaIdx: 0, Text: "Title And Author Lines"},
		{ParaIdx: 1, Text: "overview of the first part.", SectionPath: "Intro"},
		{ParaIdx: 2, Text: "more prose follows on here."},
		{ParaIdx: 3, Text: "and yet more prose follows."},
		{ParaIdx: 4, Text: "the procedure works as follows.", SectionPath: "Methods"},
		{ParaIdx: 5, Text: "finally a closing remark stands."},
	}
	fixMissingSectionPaths(ps)

	want := []string{"Intro", "Intro", "Intro", "Intro", "Methods", "Methods"}
	for i, p := range ps {
		if p.SectionPath != want[i] {
			t.Errorf("section[%d] = %q, want %q", i, p.SectionPath, want[i])
		}
	}
}

func TestFixMissingSectionPaths_BackfillGuard(t *testing.T) {
	far := []*Paragraph{
		{ParaIdx: 7, Text: "Zebra patterns everywhere here."},
		{ParaIdx: 8, Text: "the numbers speak for themselves.", SectionPath: "Results"},
	}
	fixMissingSectionPaths(far)
	if far[0].SectionPath != "" {
		t.Errorf("unrelated paragraph backfilled to %q, want empty", far[0].SectionPath)
	}

	cont := []*Paragraph{
		{ParaIdx: 7, Text: "zebra patterns everywhere here."},
		{ParaIdx: 8, Text: "the numbers speak for themselves.", SectionPath: "Results"},
	}
	fixMissingSectionPaths(cont)
	if cont[0].SectionPath != "Results" {
		t.Errorf("lowercase continuation got %q, want %q", cont[0].SectionPath, "Results")
	}
}

func TestLikelySameSection(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		section string
		want    bool
	}{
		{"mentions section word", "the results here improve", "Results Overview", true},
		{"unrelated capitalized", "Totally Unrelated Prose", "Methods", false},
		{"lowercase continuation", "starts lowercase anyway", "Anything", true},
		{"empty section", "whatever text", "", false},
		{"short section words ignored", "We go on and on.", "Of In At", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Paragraph{Text: tt.text}
			if got := likelySameSection(p, tt.section); got != tt.want {
				t.Errorf("likelySameSection(%q, %q) = %v, want %v", tt.text, tt.section, got, tt.want)
			}
		})
	}
}
