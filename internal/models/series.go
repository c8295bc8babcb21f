package models

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"
)

// Sample is one (x, y) point of a series. A nil Y means "no value".
type Sample struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

// Point builds a sample with a defined value
func Point(x, y float64) Sample {
	return Sample{X: x, Y: &y}
}

// Gap builds a sample with no value at x
func Gap(x float64) Sample {
	return Sample{X: x}
}

// UnmarshalJSON accepts x as a number or an RFC3339 timestamp (converted to
// Unix milliseconds) and treats any non-numeric y as missing. Samples with an
// unusable x are kept as NaN and removed by Series.Normalize.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var raw struct {
		X json.RawMessage `json:"x"`
		Y json.RawMessage `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Y = nil
	x, ok := parseDomainValue(raw.X)
	if !ok {
		// dropped by Normalize
		s.X = math.NaN()
		return nil
	}
	s.X = x

	if y, err := strconv.ParseFloat(string(bytes.TrimSpace(raw.Y)), 64); err == nil {
		s.Y = &y
	}
	return nil
}

func parseDomainValue(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			return TimeToDomain(t), true
		}
		v, err := strconv.ParseFloat(str, 64)
		return v, err == nil
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	return v, err == nil
}

// TimeToDomain converts a timestamp to the domain unit used by time charts (Unix ms)
func TimeToDomain(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// DomainToTime converts a time-chart domain value back to a timestamp
func DomainToTime(v float64) time.Time {
	return time.UnixMilli(int64(v)).UTC()
}

// Series is one named, colored, x-ordered sequence of samples
type Series struct {
	Name    string   `json:"name"`
	Title   string   `json:"title,omitempty"`
	Color   string   `json:"color,omitempty"`
	Samples []Sample `json:"datapoints"`
}

// DisplayTitle returns the title, falling back to the name
func (s *Series) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

// Normalize sorts samples by x and keeps only the last sample for a repeated x,
// restoring the strictly increasing invariant for malformed input.
func (s *Series) Normalize() {
	kept := s.Samples[:0]
	for _, sm := range s.Samples {
		if !math.IsNaN(sm.X) {
			kept = append(kept, sm)
		}
	}
	s.Samples = kept
	if len(s.Samples) < 2 {
		return
	}
	sort.SliceStable(s.Samples, func(i, j int) bool { return s.Samples[i].X < s.Samples[j].X })
	out := s.Samples[:1]
	for _, sm := range s.Samples[1:] {
		if sm.X == out[len(out)-1].X {
			out[len(out)-1] = sm
			continue
		}
		out = append(out, sm)
	}
	s.Samples = out
}

// search returns the leftmost insertion point for x
func (s *Series) search(x float64) int {
	return sort.Search(len(s.Samples), func(i int) bool { return s.Samples[i].X >= x })
}

// ValueAt returns the y of the sample whose x equals x exactly. There is no
// interpolation between samples.
func (s *Series) ValueAt(x float64) (float64, bool) {
	i := s.search(x)
	if i >= len(s.Samples) || s.Samples[i].X != x || s.Samples[i].Y == nil {
		return 0, false
	}
	return *s.Samples[i].Y, true
}

// LastValue returns the y of the final sample, if it has one
func (s *Series) LastValue() (float64, bool) {
	if len(s.Samples) == 0 {
		return 0, false
	}
	last := s.Samples[len(s.Samples)-1]
	if last.Y == nil {
		return 0, false
	}
	return *last.Y, true
}

// Values returns the defined y values in x order
func (s *Series) Values() []float64 {
	out := make([]float64, 0, len(s.Samples))
	for _, sm := range s.Samples {
		if sm.Y != nil {
			out = append(out, *sm.Y)
		}
	}
	return out
}
