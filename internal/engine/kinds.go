package engine

import (
	"fmt"
	"math"
	"strconv"

	"tsdash/internal/models"
	"tsdash/internal/scale"
	"tsdash/internal/scene"
)

// Frame is what a chart kind needs to draw one render pass
type Frame struct {
	Chart   *models.Chart
	X, Y    *scale.Linear
	Dims    models.Dimensions
	Options Options
}

// Plot returns the pixel bounds of the plot area
func (f *Frame) Plot() (left, top, right, bottom float64) {
	m := f.Dims.Margin
	left, top = m.Left, m.Top
	return left, top, left + math.Max(0, f.Dims.InnerWidth()), top + math.Max(0, f.Dims.InnerHeight())
}

// BucketWidth is the pixel width of one bucket on the x scale
func (f *Frame) BucketWidth() float64 {
	d0, _ := f.X.Domain()
	return math.Abs(f.X.Forward(d0+f.Options.BucketSize) - f.X.Forward(d0))
}

// Kind draws one family of chart (line, histogram, pie) into the series
// layer. Scales, ticks, legend and hover handling are shared by the engine.
type Kind interface {
	Name() string
	// Axes reports whether the kind is drawn against x and y axes
	Axes() bool
	// Extents returns the x and y scale domains for the chart
	Extents(c *models.Chart, step float64) (x, y models.Extent)
	// Draw reconciles the series layer with the current chart
	Draw(layer *scene.Node, f *Frame)
	// Anchor is where the hover dot of series i sits for a value y at x
	Anchor(f *Frame, i int, x, y float64) scene.Point
}

// KindFor resolves a kind by name
func KindFor(name string, opts Options) (Kind, error) {
	switch name {
	case "", "line":
		return &Line{Mode: opts.LineMode}, nil
	case "histogram", "bar":
		return &Histogram{}, nil
	case "pie":
		return &Pie{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown chart kind %q", ErrInvalidOptions, name)
	}
}

func names(series []*models.Series) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Name
	}
	return out
}

// Line draws one path per series. Missing values break the path.
type Line struct {
	Mode LineMode
}

func (l *Line) Name() string { return "line" }

func (l *Line) Axes() bool { return true }

func (l *Line) Extents(c *models.Chart, step float64) (models.Extent, models.Extent) {
	return c.Domain(), c.Range()
}

func (l *Line) Draw(layer *scene.Node, f *Frame) {
	series := f.Chart.Series()
	paths := layer.Join(names(series), scene.Path)
	for i, s := range series {
		var runs [][]scene.Point
		var run []scene.Point
		for _, sm := range s.Samples {
			if sm.Y == nil {
				if len(run) > 0 {
					runs = append(runs, run)
					run = nil
				}
				continue
			}
			run = append(run, scene.Point{X: f.X.Forward(sm.X), Y: f.Y.Forward(*sm.Y)})
		}
		if len(run) > 0 {
			runs = append(runs, run)
		}

		p := paths[i]
		p.Style = scene.Style{Stroke: s.Color, StrokeWidth: 1.5}
		if l.Mode == Dotted {
			p.Commands = scene.Polyline(runs)
			p.Style.Dash = []float64{2, 3}
		} else {
			p.Commands = scene.Smooth(runs)
		}
	}
}

func (l *Line) Anchor(f *Frame, i int, x, y float64) scene.Point {
	return scene.Point{X: f.X.Forward(x), Y: f.Y.Forward(y)}
}

// Histogram draws one bar per bucket and series, series side by side
// within a bucket.
type Histogram struct{}

func (h *Histogram) Name() string { return "histogram" }

func (h *Histogram) Axes() bool { return true }

// Extents widens the x domain by one bucket so the last bar fits and always
// includes zero in the y domain.
func (h *Histogram) Extents(c *models.Chart, step float64) (models.Extent, models.Extent) {
	x, y := c.Domain(), c.Range()
	if x.Valid {
		x.Max += step
	}
	if y.Valid {
		y.Min = math.Min(y.Min, 0)
		y.Max = math.Max(y.Max, 0)
	}
	return x, y
}

func (h *Histogram) barWidth(f *Frame) float64 {
	n := f.Chart.Len()
	if n == 0 {
		return 0
	}
	return f.BucketWidth() / float64(n)
}

func (h *Histogram) baseline(f *Frame) float64 {
	d0, d1 := f.Y.Domain()
	return f.Y.Forward(math.Max(math.Min(0, math.Max(d0, d1)), math.Min(d0, d1)))
}

func (h *Histogram) Draw(layer *scene.Node, f *Frame) {
	series := f.Chart.Series()
	groups := layer.Join(names(series), scene.Group)
	w := h.barWidth(f)
	base := h.baseline(f)

	for i, s := range series {
		var keys []string
		var values []models.Sample
		for _, sm := range s.Samples {
			if sm.Y == nil {
				continue
			}
			keys = append(keys, strconv.FormatFloat(sm.X, 'f', -1, 64))
			values = append(values, sm)
		}

		bars := groups[i].Join(keys, scene.Rect)
		for j, sm := range values {
			top := f.Y.Forward(*sm.Y)
			b := bars[j]
			b.X = f.X.Forward(sm.X) + float64(i)*w
			b.Y = math.Min(top, base)
			b.W = math.Max(0, w-1)
			b.H = math.Abs(base - top)
			b.Style = scene.Style{Fill: s.Color}
		}
	}
}

func (h *Histogram) Anchor(f *Frame, i int, x, y float64) scene.Point {
	w := h.barWidth(f)
	return scene.Point{X: f.X.Forward(x) + float64(i)*w + w/2, Y: f.Y.Forward(y)}
}

// Pie draws one slice per series, sized by the series' last value.
// Series without a positive last value get an empty slice.
type Pie struct {
	// Inner radius as a fraction of the outer one, for donuts
	Hole float64
}

func (p *Pie) Name() string { return "pie" }

func (p *Pie) Axes() bool { return false }

func (p *Pie) Extents(c *models.Chart, step float64) (models.Extent, models.Extent) {
	return c.Domain(), c.Range()
}

func (p *Pie) center(f *Frame) (cx, cy, r float64) {
	left, top, right, bottom := f.Plot()
	return (left + right) / 2, (top + bottom) / 2, math.Min(right-left, bottom-top) / 2
}

func (p *Pie) Draw(layer *scene.Node, f *Frame) {
	series := f.Chart.Series()
	arcs := layer.Join(names(series), scene.Arc)

	values := make([]float64, len(series))
	total := 0.0
	for i, s := range series {
		if v, ok := s.LastValue(); ok && v > 0 {
			values[i] = v
			total += v
		}
	}

	cx, cy, r := p.center(f)
	angle := -math.Pi / 2
	for i, s := range series {
		sweep := 0.0
		if total > 0 {
			sweep = 2 * math.Pi * values[i] / total
		}
		a := arcs[i]
		a.X, a.Y, a.R, a.Inner = cx, cy, r, r*p.Hole
		a.Start, a.Sweep = angle, sweep
		a.Style = scene.Style{Fill: s.Color, Stroke: "#ffffff", StrokeWidth: 1}
		angle += sweep
	}
}

func (p *Pie) Anchor(f *Frame, i int, x, y float64) scene.Point {
	cx, cy, _ := p.center(f)
	return scene.Point{X: cx, Y: cy}
}
