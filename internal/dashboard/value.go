package dashboard

import (
	"math"

	"tsdash/internal/engine"
	"tsdash/internal/models"
	"tsdash/internal/scene"
	"tsdash/internal/stats"
)

// Value is the single-value widget kind: one big number computed from the
// first series, with a min / avg / max line underneath.
type Value struct {
	Stat stats.Stat
}

func (v *Value) Name() string { return "value" }

func (v *Value) Axes() bool { return false }

func (v *Value) Extents(c *models.Chart, step float64) (models.Extent, models.Extent) {
	return c.Domain(), c.Range()
}

// Current returns the displayed figure of the first series
func (v *Value) Current(c *models.Chart) (float64, bool) {
	series := c.Series()
	if len(series) == 0 {
		return 0, false
	}
	return stats.Summarize(series[0]).Value(v.Stat)
}

func (v *Value) Draw(layer *scene.Node, f *engine.Frame) {
	left, top, right, bottom := f.Plot()
	cx, cy := (left+right)/2, (top+bottom)/2
	size := math.Max(12, math.Min(48, (bottom-top)/3))

	opts := f.Options
	text := opts.DefaultDisplayValue
	color := "#999999"
	var summary stats.Summary
	if series := f.Chart.Series(); len(series) > 0 {
		summary = stats.Summarize(series[0])
		color = series[0].Color
		if n, ok := summary.Value(v.Stat); ok {
			text = opts.Format(n)
		}
	}

	big := layer.Child("value", scene.Text)
	big.X, big.Y = cx, cy+size/3
	big.Text = text
	big.Style = scene.Style{Fill: color, FontSize: size, Anchor: scene.AnchorMiddle}

	line := layer.Child("summary", scene.Text)
	line.X, line.Y = cx, cy+size/3+16
	line.Text = ""
	if summary.Count > 0 {
		line.Text = "min " + opts.Format(summary.Min) + "  avg " + opts.Format(summary.Mean) + "  max " + opts.Format(summary.Max)
	}
	line.Style = scene.Style{Fill: "#666666", FontSize: 10, Anchor: scene.AnchorMiddle}
}

func (v *Value) Anchor(f *engine.Frame, i int, x, y float64) scene.Point {
	left, top, right, bottom := f.Plot()
	return scene.Point{X: (left + right) / 2, Y: (top + bottom) / 2}
}
