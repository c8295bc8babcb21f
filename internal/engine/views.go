package engine

import (
	"strconv"

	"tsdash/internal/axis"
	"tsdash/internal/models"
	"tsdash/internal/scene"
)

// LegendEntry is the displayed state of one series in the legend
type LegendEntry struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Color   string  `json:"color"`
	Value   string  `json:"value"`
	Raw     float64 `json:"raw"`
	Defined bool    `json:"defined"`
}

const (
	legendItemWidth = 140
	swatchSize      = 8
	dotRadius       = 3.5
	axisColor       = "#666666"
	labelFontSize   = 10
)

func formatKey(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Legend returns the legend entries in series order: the value at the hover
// position while hovered, the last value otherwise, and the default display
// value when there is none.
func (e *Engine) Legend() []LegendEntry {
	series := e.chart.Series()
	out := make([]LegendEntry, len(series))
	for i, s := range series {
		v, ok := e.valueFor(s)
		entry := LegendEntry{Name: s.Name, Title: s.DisplayTitle(), Color: s.Color, Value: e.opts.DefaultDisplayValue}
		if ok {
			entry.Value = e.FormatValue(v)
			entry.Raw = v
			entry.Defined = true
		}
		out[i] = entry
	}
	return out
}

func (e *Engine) valueFor(s *models.Series) (float64, bool) {
	if e.pos != nil {
		return s.ValueAt(e.pos.DomainX)
	}
	return s.LastValue()
}

// FormatValue formats a series value with the configured precision and unit
func (e *Engine) FormatValue(v float64) string {
	return e.opts.Format(v)
}

// axesView draws both axes from the current tick state, so tick opacity
// follows hover suppression.
type axesView struct{ e *Engine }

func (v *axesView) Hover(models.HoverPosition) { v.render() }
func (v *axesView) Unhover()                   { v.render() }

func (v *axesView) render() {
	e := v.e
	left, top, right, bottom := e.frame().Plot()
	show := e.kind.Axes()

	xl := e.layer(layerXAxis)
	yl := e.layer(layerYAxis)
	if !show {
		xl.Clear()
		yl.Clear()
		return
	}

	base := xl.Child("domain", scene.Line)
	base.X, base.Y, base.X2, base.Y2 = left, bottom, right, bottom
	base.Style = scene.Style{Stroke: axisColor, StrokeWidth: 1}
	drawTicks(xl.Child("ticks", scene.Group), e.xAxis.Ticks(), func(t axis.Tick, mark, label *scene.Node) {
		mark.X, mark.Y, mark.X2, mark.Y2 = t.Pixel, bottom, t.Pixel, bottom+5
		label.X, label.Y = t.Pixel, bottom+16
		label.Style.Anchor = scene.AnchorMiddle
	})

	side := yl.Child("domain", scene.Line)
	side.X, side.Y, side.X2, side.Y2 = left, top, left, bottom
	side.Style = scene.Style{Stroke: axisColor, StrokeWidth: 1}
	drawTicks(yl.Child("ticks", scene.Group), e.yAxis.Ticks(), func(t axis.Tick, mark, label *scene.Node) {
		mark.X, mark.Y, mark.X2, mark.Y2 = left-5, t.Pixel, left, t.Pixel
		label.X, label.Y = left-8, t.Pixel+3
		label.Style.Anchor = scene.AnchorEnd
	})
}

func drawTicks(layer *scene.Node, ticks []axis.Tick, place func(t axis.Tick, mark, label *scene.Node)) {
	keys := make([]string, len(ticks))
	for i, t := range ticks {
		keys[i] = formatKey(t.Value)
	}
	for i, g := range layer.Join(keys, scene.Group) {
		t := ticks[i]
		g.Opacity = t.Opacity
		mark := g.Child("mark", scene.Line)
		mark.Style = scene.Style{Stroke: axisColor, StrokeWidth: 1}
		label := g.Child("label", scene.Text)
		label.Text = t.Label
		label.Style = scene.Style{Fill: axisColor, FontSize: labelFontSize}
		place(t, mark, label)
	}
}

// markerView draws the vertical hover rule and its time label
type markerView struct{ e *Engine }

func (v *markerView) Hover(models.HoverPosition) { v.render() }
func (v *markerView) Unhover()                   { v.render() }

func (v *markerView) render() {
	e := v.e
	layer := e.layer(layerMarker)
	if e.pos == nil || !e.kind.Axes() {
		layer.Clear()
		return
	}
	_, top, _, bottom := e.frame().Plot()
	x := e.pos.Pixel.X

	rule := layer.Child("rule", scene.Line)
	rule.X, rule.Y, rule.X2, rule.Y2 = x, top, x, bottom
	rule.Style = scene.Style{Stroke: "#333333", StrokeWidth: 1}

	label := layer.Child("label", scene.Text)
	label.X, label.Y = x, bottom+16
	label.Text = e.xAxis.Format(e.pos.DomainX)
	label.Style = scene.Style{Fill: "#000000", FontSize: labelFontSize, Anchor: scene.AnchorMiddle}
}

// dotsView draws one dot per series that has a value at the hover position
type dotsView struct{ e *Engine }

func (v *dotsView) Hover(models.HoverPosition) { v.render() }
func (v *dotsView) Unhover()                   { v.render() }

func (v *dotsView) render() {
	e := v.e
	layer := e.layer(layerDots)
	if e.pos == nil || !e.kind.Axes() {
		layer.Clear()
		return
	}

	f := e.frame()
	type dot struct {
		at    scene.Point
		color string
	}
	var keys []string
	var dots []dot
	for i, s := range e.chart.Series() {
		y, ok := s.ValueAt(e.pos.DomainX)
		if !ok {
			continue
		}
		keys = append(keys, s.Name)
		dots = append(dots, dot{at: e.kind.Anchor(f, i, e.pos.DomainX, y), color: s.Color})
	}
	for i, c := range layer.Join(keys, scene.Circle) {
		c.X, c.Y, c.R = dots[i].at.X, dots[i].at.Y, dotRadius
		c.Style = scene.Style{Fill: dots[i].color, Stroke: "#ffffff", StrokeWidth: 1}
	}
}

// legendView draws a swatch and "title value" label per series above the plot
type legendView struct{ e *Engine }

func (v *legendView) Hover(models.HoverPosition) { v.render() }
func (v *legendView) Unhover()                   { v.render() }

func (v *legendView) render() {
	e := v.e
	entries := e.Legend()
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Name
	}

	left, top, _, _ := e.frame().Plot()
	y := top - 8
	for i, g := range e.layer(layerLegend).Join(keys, scene.Group) {
		entry := entries[i]
		x := left + float64(i)*legendItemWidth

		sw := g.Child("swatch", scene.Rect)
		sw.X, sw.Y, sw.W, sw.H = x, y-swatchSize, swatchSize, swatchSize
		sw.Style = scene.Style{Fill: entry.Color}

		label := g.Child("label", scene.Text)
		label.X, label.Y = x+swatchSize+4, y
		label.Text = entry.Title + " " + entry.Value
		label.Style = scene.Style{Fill: "#222222", FontSize: labelFontSize}
	}
}
