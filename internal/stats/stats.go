// Package stats summarizes series values for single-value widgets.
package stats

import (
	"fmt"
	"math"

	"github.com/influxdata/tdigest"

	"tsdash/internal/models"
)

// Summary holds aggregate values over the defined samples of a series
type Summary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Last  float64 `json:"last"`
	// HasLast is false when the final sample has no value
	HasLast bool `json:"hasLast"`
}

// Summarize aggregates the series. Quantiles come from a t-digest so large
// series stay cheap to summarize.
func Summarize(s *models.Series) Summary {
	var sum Summary
	td := tdigest.New()
	total := 0.0
	for _, v := range s.Values() {
		if sum.Count == 0 {
			sum.Min, sum.Max = v, v
		}
		sum.Min = math.Min(sum.Min, v)
		sum.Max = math.Max(sum.Max, v)
		total += v
		td.Add(v, 1)
		sum.Count++
	}
	if sum.Count > 0 {
		sum.Mean = total / float64(sum.Count)
		sum.P50 = td.Quantile(0.5)
		sum.P95 = td.Quantile(0.95)
	}
	sum.Last, sum.HasLast = s.LastValue()
	return sum
}

// Stat names one figure of a summary
type Stat string

const (
	Last Stat = "last"
	Mean Stat = "avg"
	Min  Stat = "min"
	Max  Stat = "max"
	P50  Stat = "p50"
	P95  Stat = "p95"
)

// ParseStat validates a stat name; empty selects Last
func ParseStat(name string) (Stat, error) {
	switch st := Stat(name); st {
	case "":
		return Last, nil
	case Last, Mean, Min, Max, P50, P95:
		return st, nil
	default:
		return "", fmt.Errorf("unknown stat %q", name)
	}
}

// Value picks a stat from the summary. False when the series has no value
// for it.
func (s Summary) Value(st Stat) (float64, bool) {
	if st == Last || st == "" {
		return s.Last, s.HasLast
	}
	if s.Count == 0 {
		return 0, false
	}
	switch st {
	case Mean:
		return s.Mean, true
	case Min:
		return s.Min, true
	case Max:
		return s.Max, true
	case P50:
		return s.P50, true
	case P95:
		return s.P95, true
	}
	return 0, false
}
