package structure

import "testing"

func TestTitleSimilarity_ExactAfterNormalization(t *testing.T) {
	if got := titleSimilarity("1. Introduction", "1 Introduction"); got != 1.0 {
		t.Errorf("similarity = %v, want 1.0", got)
	}
	if got := titleSimilarity("INTRODUCTION", "Introduction"); got != 1.0 {
		t.Errorf("case-folded similarity = %v, want 1.0", got)
	}
}

func TestTitleSimilarity_ContainmentFloor(t *testing.T) {
	got := titleSimilarity("3 Results and Discussion", "Results")
	if got < 0.8 {
		t.Errorf("containment similarity = %v, want >= 0.8", got)
	}
}

func TestTitleSimilarity_Unrelated(t *testing.T) {
	got := titleSimilarity("per-token throughput measurements", "Acknowledgments")
	if got >= 0.5 {
		t.Errorf("similarity = %v, want < 0.5", got)
	}
}

func TestTitleSimilarity_Empty(t *testing.T) {
	if got := titleSimilarity("", "Introduction"); got != 0 {
		t.Errorf("similarity = %v, want 0", got)
	}
}

func TestEditDistanceRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1.0},
		{"abc", "abd", 1.0 - 1.0/3.0},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"kitten", "sitting", 1.0 - 3.0/7.0},
	}
	for _, tt := range tests {
		got := editDistanceRatio(tt.a, tt.b)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("editDistanceRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestKeywordOverlap(t *testing.T) {
	if got := keywordOverlap("related work", "prior related work"); got != 2.0/3.0 {
		t.Errorf("overlap = %v, want 2/3", got)
	}
	if got := keywordOverlap("alpha beta", "gamma delta"); got != 0 {
		t.Errorf("disjoint overlap = %v, want 0", got)
	}
}

func TestKeywords_FiltersStopwordsAndShortWords(t *testing.T) {
	got := keywords("The analysis of it")
	if got["the"] || got["of"] || got["it"] {
		t.Errorf("stopwords or short words kept: %v", got)
	}
	if !got["analysis"] {
		t.Errorf("missing keyword in %v", got)
	}
}

func TestKnownVariation(t *testing.T) {
	tests := []struct {
		candidate, canonical string
		want                 bool
	}{
		{"Bibliography", "References", true},
		{"Literature Review", "Related Work", true},
		{"Conclusions", "Conclusion", true},
		{"Methods", "Method", true},
		{"Epilogue", "Conclusion", false},
	}
	for _, tt := range tests {
		if got := knownVariation(tt.candidate, tt.canonical); got != tt.want {
			t.Errorf("knownVariation(%q, %q) = %v, want %v", tt.candidate, tt.canonical, got, tt.want)
		}
	}
}
