package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/segment"
	"github.com/dgallion1/docstruct/internal/structure"
)

// prose builds a body block long enough to stay out of heading discovery
// and above the short-merge token threshold.
func prose(tag string) string {
	line := "the " + tag + " prose keeps flowing across the page without naming any outline cues and it simply continues along. "
	return strings.TrimSpace(strings.Repeat(line, 5))
}

// tocDoc is a three page document with a usable outline: two level-1
// bookmarks whose headings are printed on their pages.
func tocDoc() *doc.ParsedDocument {
	return &doc.ParsedDocument{
		PageCount: 3,
		FileHash:  "cafe01",
		Bookmarks: []doc.BookmarkEntry{
			{Level: 1, Title: "1 Introduction", Page: 1},
			{Level: 1, Title: "2 Methods", Page: 2},
		},
		Blocks: []doc.TextBlock{
			{Text: "1 Introduction", BBox: doc.BoundingBox{X1: 72, Y1: 90, X2: 220, Y2: 104}, Page: 1, FontSize: 14, Bold: true},
			{Text: prose("alpha"), BBox: doc.BoundingBox{X1: 72, Y1: 120, X2: 540, Y2: 300}, Page: 1, FontSize: 10},
			{Text: "2 Methods", BBox: doc.BoundingBox{X1: 72, Y1: 90, X2: 200, Y2: 104}, Page: 2, FontSize: 14, Bold: true},
			{Text: prose("beta"), BBox: doc.BoundingBox{X1: 72, Y1: 120, X2: 540, Y2: 300}, Page: 2, FontSize: 10},
			{Text: prose("gamma"), BBox: doc.BoundingBox{X1: 72, Y1: 100, X2: 540, Y2: 280}, Page: 3, FontSize: 10},
		},
	}
}

// plainDoc has text but no outline and no heading-shaped lines.
func plainDoc() *doc.ParsedDocument {
	return &doc.ParsedDocument{
		PageCount: 1,
		FileHash:  "beef02",
		Blocks: []doc.TextBlock{
			{Text: prose("delta"), BBox: doc.BoundingBox{X1: 72, Y1: 100, X2: 540, Y2: 300}, Page: 1, FontSize: 10},
			{Text: prose("epsilon"), BBox: doc.BoundingBox{X1: 72, Y1: 320, X2: 540, Y2: 520}, Page: 1, FontSize: 10},
		},
	}
}

// emptyDoc defeats every strategy.
func emptyDoc() *doc.ParsedDocument {
	return &doc.ParsedDocument{PageCount: 1, FileHash: "dead03"}
}

func TestParse_TOCStrategy(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)
	res, err := c.Parse(tocDoc(), StrategyTOC)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.StrategyUsed != StrategyTOC {
		t.Fatalf("StrategyUsed = %q, want %q", res.StrategyUsed, StrategyTOC)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	if res.TOCResult == nil {
		t.Fatal("TOCResult = nil, want section tree")
	}
	if len(res.TOCResult.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(res.TOCResult.Sections))
	}
	intro, methods := res.TOCResult.Sections[0], res.TOCResult.Sections[1]
	if intro.Title != "1 Introduction" || intro.StartPage != 1 || intro.EndPage != 1 {
		t.Errorf("intro section = %q pages %d-%d, want 1 Introduction pages 1-1",
			intro.Title, intro.StartPage, intro.EndPage)
	}
	if methods.Title != "2 Methods" || methods.StartPage != 2 || methods.EndPage != 3 {
		t.Errorf("methods section = %q pages %d-%d, want 2 Methods pages 2-3",
			methods.Title, methods.StartPage, methods.EndPage)
	}

	if len(res.Paragraphs) != 3 {
		t.Fatalf("paragraphs = %d, want 3", len(res.Paragraphs))
	}
	wantSections := []string{"1 Introduction", "2 Methods", "2 Methods"}
	wantPages := []int{1, 2, 2}
	for i, p := range res.Paragraphs {
		if p.ParaIdx != i {
			t.Errorf("paragraph %d: ParaIdx = %d", i, p.ParaIdx)
		}
		if p.SectionPath != wantSections[i] {
			t.Errorf("paragraph %d: SectionPath = %q, want %q", i, p.SectionPath, wantSections[i])
		}
		if p.Page != wantPages[i] {
			t.Errorf("paragraph %d: Page = %d, want %d", i, p.Page, wantPages[i])
		}
		if p.DocID != "cafe01" {
			t.Errorf("paragraph %d: DocID = %q", i, p.DocID)
		}
		if p.FontSize != tocFontSize {
			t.Errorf("paragraph %d: FontSize = %v, want %v", i, p.FontSize, tocFontSize)
		}
	}
}

func TestParse_TOCStableIDsIdempotent(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)

	first, err := c.Parse(tocDoc(), StrategyTOC)
	if err != nil {
		t.Fatalf("first Parse() error = %v", err)
	}
	second, err := c.Parse(tocDoc(), StrategyTOC)
	if err != nil {
		t.Fatalf("second Parse() error = %v", err)
	}
	if len(first.Paragraphs) != len(second.Paragraphs) {
		t.Fatalf("paragraph counts differ: %d vs %d", len(first.Paragraphs), len(second.Paragraphs))
	}
	for i := range first.Paragraphs {
		if first.Paragraphs[i].StableID != second.Paragraphs[i].StableID {
			t.Errorf("paragraph %d: stable IDs differ across runs", i)
		}
	}
}

func TestParse_FallsBackToStandard(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)
	res, err := c.Parse(plainDoc(), StrategyAuto)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.StrategyUsed != StrategyStandard {
		t.Fatalf("StrategyUsed = %q, want %q", res.StrategyUsed, StrategyStandard)
	}
	if res.TOCResult != nil {
		t.Error("TOCResult present on a standard result")
	}
	if len(res.Paragraphs) == 0 {
		t.Fatal("no paragraphs from the standard strategy")
	}
	for i, p := range res.Paragraphs {
		if p.ParaIdx != i {
			t.Errorf("paragraph %d: ParaIdx = %d", i, p.ParaIdx)
		}
		if p.DocID != "beef02" {
			t.Errorf("paragraph %d: DocID = %q", i, p.DocID)
		}
	}

	if len(res.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want exactly one", res.Warnings)
	}
	if !strings.HasPrefix(res.Warnings[0], "toc: ") {
		t.Errorf("warning = %q, want toc prefix", res.Warnings[0])
	}
	if !strings.Contains(res.Warnings[0], structure.ErrStructureNotFound.Error()) {
		t.Errorf("warning = %q, want the structure failure named", res.Warnings[0])
	}
}

func TestParse_TOCRequestFallsBackToo(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)
	res, err := c.Parse(plainDoc(), StrategyTOC)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.StrategyUsed != StrategyStandard {
		t.Errorf("StrategyUsed = %q, want %q", res.StrategyUsed, StrategyStandard)
	}
}

func TestParse_AllStrategiesFail(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)
	_, err := c.Parse(emptyDoc(), StrategyAuto)
	if err == nil {
		t.Fatal("Parse() error = nil, want chain exhaustion")
	}
	if !errors.Is(err, ErrAllStrategiesFailed) {
		t.Errorf("errors.Is(err, ErrAllStrategiesFailed) = false for %v", err)
	}
	var stratErr *StrategyError
	if !errors.As(err, &stratErr) {
		t.Fatalf("errors.As(*StrategyError) = false for %v", err)
	}
	if len(stratErr.Warnings) != 2 {
		t.Fatalf("Warnings = %v, want one per attempt", stratErr.Warnings)
	}
	if !strings.HasPrefix(stratErr.Warnings[0], "toc: ") {
		t.Errorf("first warning = %q, want toc attempt", stratErr.Warnings[0])
	}
	if !strings.HasPrefix(stratErr.Warnings[1], "standard: ") {
		t.Errorf("second warning = %q, want standard attempt", stratErr.Warnings[1])
	}
	if stratErr.Unwrap() == nil {
		t.Error("Unwrap() = nil, want the last error")
	}
}

func TestParse_StandardChainHasNoFallback(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)
	_, err := c.Parse(emptyDoc(), StrategyStandard)
	if err == nil {
		t.Fatal("Parse() error = nil, want failure")
	}
	var stratErr *StrategyError
	if !errors.As(err, &stratErr) {
		t.Fatalf("errors.As(*StrategyError) = false for %v", err)
	}
	if len(stratErr.Warnings) != 1 {
		t.Errorf("Warnings = %v, want the single standard attempt", stratErr.Warnings)
	}
}

func TestParse_UnknownStrategy(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)
	_, err := c.Parse(plainDoc(), Strategy("bogus"))
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Errorf("Parse() error = %v, want unknown strategy", err)
	}
}

func TestTOCParagraphs_Conversion(t *testing.T) {
	long1, long2, long3 := prose("one"), prose("two"), prose("three")
	sections := []*structure.Section{
		{
			Level: 1, Title: "1 Introduction", StartPage: 1, EndPage: 2,
			Paragraphs: []string{"short", long1},
			Children: []*structure.Section{
				{Level: 2, Title: "1.1 Setup", StartPage: 2, EndPage: 2, Paragraphs: []string{long2}},
			},
		},
		{Level: 1, Title: "2 Methods", StartPage: 3, EndPage: 3, Paragraphs: []string{long3}},
	}

	out := tocParagraphs(sections, "doc1")
	if len(out) != 3 {
		t.Fatalf("paragraphs = %d, want 3 (short text skipped)", len(out))
	}

	want := []struct {
		text    string
		section string
		page    int
		y1, y2  float64
	}{
		{long1, "1 Introduction", 1, 100, 120},
		{long2, "1.1 Setup", 2, 120, 140},
		{long3, "2 Methods", 3, 140, 160},
	}
	for i, w := range want {
		p := out[i]
		if p.Text != w.text {
			t.Errorf("paragraph %d: wrong text", i)
		}
		if p.SectionPath != w.section {
			t.Errorf("paragraph %d: SectionPath = %q, want %q", i, p.SectionPath, w.section)
		}
		if p.Page != w.page {
			t.Errorf("paragraph %d: Page = %d, want %d", i, p.Page, w.page)
		}
		if p.ParaIdx != i {
			t.Errorf("paragraph %d: ParaIdx = %d", i, p.ParaIdx)
		}
		wantBox := doc.BoundingBox{X1: tocBoxLeft, Y1: w.y1, X2: tocBoxRight, Y2: w.y2}
		if p.BBox != wantBox {
			t.Errorf("paragraph %d: BBox = %+v, want %+v", i, p.BBox, wantBox)
		}
		if p.StableID != segment.StableID("doc1", w.page, wantBox, w.text) {
			t.Errorf("paragraph %d: stable ID not derived from the shared formula", i)
		}
		if p.Tokens != segment.EstimateTokens(w.text) {
			t.Errorf("paragraph %d: Tokens = %d, want %d", i, p.Tokens, segment.EstimateTokens(w.text))
		}
		if p.Type != segment.TypeParagraph {
			t.Errorf("paragraph %d: Type = %q", i, p.Type)
		}
	}
}

func TestTOCParagraphs_ShortMergeWithinSection(t *testing.T) {
	sections := []*structure.Section{
		{
			Level: 1, Title: "3 Results", StartPage: 2, EndPage: 2,
			Paragraphs: []string{"first short claim stated here.", "second short continuation follows."},
		},
	}

	out := tocParagraphs(sections, "doc2")
	out = segment.MergeShortParagraphs(out, segment.StructureMergeOptions())
	if len(out) != 1 {
		t.Fatalf("paragraphs = %d, want 1 after the short merge", len(out))
	}
	p := out[0]
	wantText := "first short claim stated here. second short continuation follows."
	if p.Text != wantText {
		t.Errorf("merged text = %q, want %q", p.Text, wantText)
	}
	if p.Tokens != segment.EstimateTokens(wantText) {
		t.Errorf("Tokens = %d, want re-estimate %d", p.Tokens, segment.EstimateTokens(wantText))
	}
	wantBox := doc.BoundingBox{X1: tocBoxLeft, Y1: 100, X2: tocBoxRight, Y2: 140}
	if p.BBox != wantBox {
		t.Errorf("BBox = %+v, want union %+v", p.BBox, wantBox)
	}
	if p.StableID != segment.StableID("doc2", 2, wantBox, wantText) {
		t.Error("stable ID not recomputed after merge")
	}
}

func TestTOCParagraphs_NoCrossSectionMerge(t *testing.T) {
	sections := []*structure.Section{
		{Level: 1, Title: "A", StartPage: 1, EndPage: 1, Paragraphs: []string{"first short claim stated here."}},
		{Level: 1, Title: "B", StartPage: 2, EndPage: 2, Paragraphs: []string{"second short continuation follows."}},
	}

	out := tocParagraphs(sections, "doc3")
	out = segment.MergeShortParagraphs(out, segment.StructureMergeOptions())
	if len(out) != 2 {
		t.Fatalf("paragraphs = %d, want 2 across section boundary", len(out))
	}
}

func TestRecommendStrategy(t *testing.T) {
	if got := RecommendStrategy(nil); got != StrategyStandard {
		t.Errorf("RecommendStrategy(nil) = %q", got)
	}
	two := &doc.ParsedDocument{Bookmarks: make([]doc.BookmarkEntry, 2)}
	if got := RecommendStrategy(two); got != StrategyStandard {
		t.Errorf("RecommendStrategy(2 bookmarks) = %q, want %q", got, StrategyStandard)
	}
	three := &doc.ParsedDocument{Bookmarks: make([]doc.BookmarkEntry, 3)}
	if got := RecommendStrategy(three); got != StrategyTOC {
		t.Errorf("RecommendStrategy(3 bookmarks) = %q, want %q", got, StrategyTOC)
	}
}

func TestAvailableStrategies(t *testing.T) {
	avail := AvailableStrategies()
	for _, s := range []Strategy{StrategyAuto, StrategyTOC, StrategyStandard} {
		if !avail[s] {
			t.Errorf("strategy %q unavailable", s)
		}
	}
}

func TestParseWithAllStrategies(t *testing.T) {
	c := NewCoordinator(config.Config{}, nil)

	results := c.ParseWithAllStrategies(tocDoc())
	if len(results) != 2 {
		t.Fatalf("results = %d, want both strategies", len(results))
	}
	for strat, res := range results {
		if res.StrategyUsed != strat {
			t.Errorf("result under %q claims %q", strat, res.StrategyUsed)
		}
		if len(res.Paragraphs) == 0 {
			t.Errorf("strategy %q produced no paragraphs", strat)
		}
	}

	if results := c.ParseWithAllStrategies(emptyDoc()); len(results) != 0 {
		t.Errorf("results for empty document = %d, want none", len(results))
	}
}

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"auto", StrategyAuto, false},
		{"TOC", StrategyTOC, false},
		{" Standard ", StrategyStandard, false},
		{"magic", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseStrategy(%q) error = nil, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStrategy(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
