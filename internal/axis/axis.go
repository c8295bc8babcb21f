package axis

import (
	"math"

	"tsdash/internal/scale"
)

// Orientation says which edge of the plot area an axis is drawn on
type Orientation int

const (
	Bottom Orientation = iota
	Left
)

// Tick is one rendered tick: its domain value, pixel position along the axis,
// label and current opacity.
type Tick struct {
	Value   float64 `json:"value"`
	Pixel   float64 `json:"pixel"`
	Label   string  `json:"label"`
	Opacity float64 `json:"opacity"`
}

// Axis holds the ticks produced by the last update. Opacity changes made by
// hover suppression survive until Restore or the next update.
type Axis struct {
	Orientation Orientation
	Format      Formatter
	LabelPx     float64

	ticks []Tick
}

// New creates an axis. A nil formatter falls back to FormatNumber.
func New(o Orientation, format Formatter, labelPx float64) *Axis {
	if format == nil {
		format = FormatNumber
	}
	return &Axis{Orientation: o, Format: format, LabelPx: labelPx}
}

// Update replans the ticks for the domain [start, end] sampled every step,
// positioned through s. Invalid input (non-positive step, reversed or
// non-finite domain, no room on screen) clears the ticks.
func (a *Axis) Update(start, end, step float64, s *scale.Linear) []Tick {
	a.ticks = a.ticks[:0]
	r0, r1 := s.Range()
	avail := math.Abs(r1 - r0)
	if step <= 0 || end < start || avail <= 0 || !finite(start) || !finite(end) || !finite(step) {
		return a.Ticks()
	}
	for _, v := range Plan(start, end, step, avail, a.LabelPx) {
		a.ticks = append(a.ticks, a.tick(v, s))
	}
	return a.Ticks()
}

// SetValues positions a precomputed set of tick values, keeping only those
// inside the scale domain.
func (a *Axis) SetValues(values []float64, s *scale.Linear) []Tick {
	a.ticks = a.ticks[:0]
	r0, r1 := s.Range()
	if r0 == r1 {
		return a.Ticks()
	}
	d0, d1 := s.Domain()
	lo, hi := math.Min(d0, d1), math.Max(d0, d1)
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		a.ticks = append(a.ticks, a.tick(v, s))
	}
	return a.Ticks()
}

func (a *Axis) tick(v float64, s *scale.Linear) Tick {
	return Tick{Value: v, Pixel: s.Forward(v), Label: a.Format(v), Opacity: 1}
}

// Ticks returns a copy of the current ticks
func (a *Axis) Ticks() []Tick {
	out := make([]Tick, len(a.ticks))
	copy(out, a.ticks)
	return out
}

// Len returns the number of ticks
func (a *Axis) Len() int {
	return len(a.ticks)
}

// Suppress hides every tick closer than distance pixels to px and returns
// how many were hidden.
func (a *Axis) Suppress(px, distance float64) int {
	hidden := 0
	for i := range a.ticks {
		if math.Abs(a.ticks[i].Pixel-px) < distance {
			a.ticks[i].Opacity = 0
			hidden++
			continue
		}
		a.ticks[i].Opacity = 1
	}
	return hidden
}

// Restore makes every tick fully visible again
func (a *Axis) Restore() {
	for i := range a.ticks {
		a.ticks[i].Opacity = 1
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
