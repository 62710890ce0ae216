package pipeline

import (
	"testing"
	"time"
)

func TestParseStats_Empty(t *testing.T) {
	s := NewParseStats(time.Hour)
	snap := s.Snapshot()
	if snap.Count != 0 || snap.MinMs != 0 || snap.P99Ms != 0 {
		t.Errorf("empty snapshot not zero: %+v", snap)
	}
}

func TestParseStats_Aggregates(t *testing.T) {
	s := NewParseStats(time.Hour)
	for _, ms := range []int64{40, 10, 30, 20} {
		s.Record(ms)
	}

	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Fatalf("Count = %d, want 4", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 40 {
		t.Errorf("Min/Max = %d/%d, want 10/40", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 25 {
		t.Errorf("AvgMs = %v, want 25", snap.AvgMs)
	}
	// Interpolated rank over [10 20 30 40]: index 1.5.
	if snap.P50Ms != 25 {
		t.Errorf("P50Ms = %v, want 25", snap.P50Ms)
	}
}

func TestParseStats_NegativeClampedToZero(t *testing.T) {
	s := NewParseStats(time.Hour)
	s.Record(-5)
	if got := s.Snapshot().MinMs; got != 0 {
		t.Errorf("MinMs = %d, want 0", got)
	}
}

func TestParseStats_WindowPrunesOldSamples(t *testing.T) {
	s := NewParseStats(10 * time.Millisecond)
	s.Record(100)
	time.Sleep(25 * time.Millisecond)
	s.Record(50)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("Count = %d, want 1 after window expiry", snap.Count)
	}
	if snap.MaxMs != 50 {
		t.Errorf("MaxMs = %d, want 50", snap.MaxMs)
	}
}

func TestPercentile_Table(t *testing.T) {
	sorted := []int64{10, 20, 30, 40, 50}
	tests := []struct {
		pct  float64
		want float64
	}{
		{0, 10},
		{50, 30},
		{100, 50},
		{25, 20},
		{95, 48},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.pct); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}
