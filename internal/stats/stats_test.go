package stats

import (
	"math"
	"testing"

	"tsdash/internal/models"
)

func TestSummarize(t *testing.T) {
	s := &models.Series{Name: "latency"}
	for i := 1; i <= 100; i++ {
		s.Samples = append(s.Samples, models.Point(float64(i), float64(i)))
	}

	sum := Summarize(s)
	if sum.Count != 100 {
		t.Errorf("Expected count 100, got %d", sum.Count)
	}
	if sum.Min != 1 || sum.Max != 100 {
		t.Errorf("Expected min 1 max 100, got %v %v", sum.Min, sum.Max)
	}
	if sum.Mean != 50.5 {
		t.Errorf("Expected mean 50.5, got %v", sum.Mean)
	}
	if math.Abs(sum.P50-50.5) > 2 {
		t.Errorf("Expected p50 near 50.5, got %v", sum.P50)
	}
	if math.Abs(sum.P95-95) > 2 {
		t.Errorf("Expected p95 near 95, got %v", sum.P95)
	}
	if !sum.HasLast || sum.Last != 100 {
		t.Errorf("Expected last 100, got %v (%v)", sum.Last, sum.HasLast)
	}
}

func TestSummarizeSkipsMissing(t *testing.T) {
	s := &models.Series{Samples: []models.Sample{models.Point(1, 4), models.Gap(2), models.Point(3, 8), models.Gap(4)}}
	sum := Summarize(s)
	if sum.Count != 2 || sum.Mean != 6 {
		t.Errorf("Expected 2 values with mean 6, got %d and %v", sum.Count, sum.Mean)
	}
	if _, ok := sum.Value(Last); ok {
		t.Error("Expected last to be missing when the final sample is null")
	}
	if v, ok := sum.Value(Max); !ok || v != 8 {
		t.Errorf("Expected max 8, got %v (%v)", v, ok)
	}
}

func TestEmptySummary(t *testing.T) {
	sum := Summarize(&models.Series{})
	for _, st := range []Stat{Last, Mean, Min, Max, P50, P95} {
		if _, ok := sum.Value(st); ok {
			t.Errorf("Expected %s missing on empty series", st)
		}
	}
}

func TestParseStat(t *testing.T) {
	tests := []struct {
		in      string
		want    Stat
		wantErr bool
	}{
		{"", Last, false},
		{"p95", P95, false},
		{"avg", Mean, false},
		{"median", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStat(%q): unexpected error state %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseStat(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
