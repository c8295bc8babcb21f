package models

import "math"

// Palette holds the color tokens assigned to series by insertion order
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Extent is a [Min, Max] interval. Valid is false for the empty ([null, null]) extent.
type Extent struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"valid"`
}

// Span returns Max-Min, or 0 for an invalid extent
func (e Extent) Span() float64 {
	if !e.Valid {
		return 0
	}
	return e.Max - e.Min
}

func (e Extent) include(v float64) Extent {
	if !e.Valid {
		return Extent{Min: v, Max: v, Valid: true}
	}
	e.Min = math.Min(e.Min, v)
	e.Max = math.Max(e.Max, v)
	return e
}

// Chart is a named collection of series. Insertion order drives color
// assignment and legend order. Domain and range are recomputed on every change.
type Chart struct {
	Name        string
	Annotations []Annotation

	series []*Series
	index  map[string]int
	domain Extent
	rng    Extent
}

// NewChart creates an empty chart
func NewChart(name string) *Chart {
	return &Chart{Name: name, index: make(map[string]int)}
}

// Series returns the series in insertion order. The slice is a copy; the
// series themselves must only be changed through the chart.
func (c *Chart) Series() []*Series {
	out := make([]*Series, len(c.series))
	copy(out, c.series)
	return out
}

// Len returns the number of series
func (c *Chart) Len() int {
	return len(c.series)
}

// Lookup finds a series by name
func (c *Chart) Lookup(name string) (*Series, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.series[i], true
}

// AddSeries appends a series, or replaces the samples of an existing one with
// the same name. Empty title and color keep the existing or assigned values.
func (c *Chart) AddSeries(s Series) *Series {
	if existing, ok := c.Lookup(s.Name); ok {
		if s.Title != "" {
			existing.Title = s.Title
		}
		if s.Color != "" {
			existing.Color = s.Color
		}
		existing.Samples = append([]Sample(nil), s.Samples...)
		existing.Normalize()
		c.recompute()
		return existing
	}

	added := s
	if added.Color == "" {
		added.Color = Palette[len(c.series)%len(Palette)]
	}
	added.Samples = append([]Sample(nil), s.Samples...)
	added.Normalize()
	c.index[added.Name] = len(c.series)
	c.series = append(c.series, &added)
	c.recompute()
	return &added
}

// SetSamples replaces the samples of a named series. Returns false for an unknown name.
func (c *Chart) SetSamples(name string, samples []Sample) bool {
	s, ok := c.Lookup(name)
	if !ok {
		return false
	}
	s.Samples = append([]Sample(nil), samples...)
	s.Normalize()
	c.recompute()
	return true
}

// RemoveSeries drops a series. Colors already assigned to the others are kept.
func (c *Chart) RemoveSeries(name string) bool {
	i, ok := c.index[name]
	if !ok {
		return false
	}
	c.series = append(c.series[:i], c.series[i+1:]...)
	delete(c.index, name)
	for j := i; j < len(c.series); j++ {
		c.index[c.series[j].Name] = j
	}
	c.recompute()
	return true
}

// Domain is the x extent over all samples
func (c *Chart) Domain() Extent {
	return c.domain
}

// Range is the y extent over all defined values
func (c *Chart) Range() Extent {
	return c.rng
}

func (c *Chart) recompute() {
	var domain, rng Extent
	for _, s := range c.series {
		for _, sm := range s.Samples {
			domain = domain.include(sm.X)
			if sm.Y != nil && !math.IsNaN(*sm.Y) {
				rng = rng.include(*sm.Y)
			}
		}
	}
	c.domain, c.rng = domain, rng
}

// Merge applies a snapshot: known series get their datapoints replaced,
// unknown ones are added only when addUnknown is set. Title and color absent
// from the snapshot are preserved. Returns the number of series touched.
func (c *Chart) Merge(snap *Snapshot, addUnknown bool) int {
	if snap == nil {
		return 0
	}
	touched := 0
	for _, m := range snap.Metrics {
		if s, ok := c.Lookup(m.Name); ok {
			if m.Title != "" {
				s.Title = m.Title
			}
			if m.Color != "" {
				s.Color = m.Color
			}
			s.Samples = append([]Sample(nil), m.Datapoints...)
			s.Normalize()
			touched++
			continue
		}
		if addUnknown {
			c.AddSeries(Series{Name: m.Name, Title: m.Title, Color: m.Color, Samples: m.Datapoints})
			touched++
		}
	}
	c.recompute()
	return touched
}
