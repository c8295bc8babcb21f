// Package engine renders a chart model into a retained scene and keeps the
// scene in sync with pointer hover.
//
// An Engine is not safe for concurrent use; the dashboard drives every
// engine from a single event loop.
package engine

import (
	"math"
	"time"

	"tsdash/internal/axis"
	"tsdash/internal/hover"
	"tsdash/internal/logger"
	"tsdash/internal/models"
	"tsdash/internal/scale"
	"tsdash/internal/scene"
)

// State is the render state of an engine
type State int

const (
	Empty State = iota
	Rendered
	Hovered
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Rendered:
		return "rendered"
	case Hovered:
		return "hovered"
	default:
		return "unknown"
	}
}

// Top level scene layers, in draw order
const (
	layerAnnotations = "annotations"
	layerXAxis       = "x-axis"
	layerYAxis       = "y-axis"
	layerSeries      = "series"
	layerMarker      = "marker"
	layerDots        = "dots"
	layerLegend      = "legend"
)

// Engine renders one chart. It reads the chart but never modifies it.
type Engine struct {
	chart *models.Chart
	kind  Kind
	opts  Options
	dims  models.Dimensions

	xt           *scale.Time
	xs, ys       *scale.Linear
	xAxis, yAxis *axis.Axis
	hover        *hover.Coordinator
	surface      *scene.Scene

	state State
	pos   *models.HoverPosition

	onChange  []func()
	onHover   []func(models.HoverPosition)
	onUnhover []func()

	log *logger.Logger
}

// New creates an engine in the Empty state. Nothing is drawn until Render.
func New(chart *models.Chart, kind Kind, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Location == nil {
		opts.Location = DefaultOptions().Location
	}
	e := &Engine{
		chart:   chart,
		kind:    kind,
		opts:    opts,
		dims:    models.Dimensions{Margin: opts.Margin},
		xt:      &scale.Time{},
		ys:      scale.NewLinear(0, 0, 0, 0),
		xAxis:   axis.New(axis.Bottom, nil, opts.LabelWidth),
		yAxis:   axis.New(axis.Left, axis.FormatNumber, opts.LabelHeight),
		surface: scene.New(0, 0),
		log:     logger.WithComponent("engine").With(logger.Fields{"chart": chart.Name, "kind": kind.Name()}),
	}
	e.xs = &e.xt.Linear
	for _, key := range []string{layerAnnotations, layerXAxis, layerYAxis, layerSeries, layerMarker, layerDots, layerLegend} {
		e.surface.Root.Child(key, scene.Group)
	}

	e.hover = hover.New(source{e}, e.xAxis, opts.CollisionDistance)
	// state first so the views below see the new position
	e.hover.Subscribe(hover.Funcs{OnHover: e.enterHover, OnUnhover: e.leaveHover})
	e.hover.Subscribe(&axesView{e})
	e.hover.Subscribe(&markerView{e})
	e.hover.Subscribe(&dotsView{e})
	e.hover.Subscribe(&legendView{e})
	e.hover.Subscribe(hover.Funcs{OnHover: e.emitHover, OnUnhover: e.emitUnhover})
	return e, nil
}

// source exposes the engine geometry to the hover coordinator
type source struct{ e *Engine }

func (s source) XScale() *scale.Linear { return s.e.xs }

func (s source) GridOrigin() (float64, bool) {
	d := s.e.chart.Domain()
	return d.Min, d.Valid
}

func (s source) Step() float64 { return s.e.opts.BucketSize }

// OnChange registers a callback run after every render pass
func (e *Engine) OnChange(fn func()) { e.onChange = append(e.onChange, fn) }

// OnHover registers a callback run for every pointer move
func (e *Engine) OnHover(fn func(models.HoverPosition)) { e.onHover = append(e.onHover, fn) }

// OnUnhover registers a callback run when the pointer leaves
func (e *Engine) OnUnhover(fn func()) { e.onUnhover = append(e.onUnhover, fn) }

// State returns the current render state
func (e *Engine) State() State { return e.state }

// Chart returns the rendered chart
func (e *Engine) Chart() *models.Chart { return e.chart }

// Kind returns the chart kind
func (e *Engine) Kind() Kind { return e.kind }

// Options returns the engine options
func (e *Engine) Options() Options { return e.opts }

// Scene returns the drawing surface
func (e *Engine) Scene() *scene.Scene { return e.surface }

// Dimensions returns the current element size and margins
func (e *Engine) Dimensions() models.Dimensions { return e.dims }

// XTicks returns the rendered x axis ticks with their current opacity
func (e *Engine) XTicks() []axis.Tick { return e.xAxis.Ticks() }

// YTicks returns the rendered y axis ticks
func (e *Engine) YTicks() []axis.Tick { return e.yAxis.Ticks() }

// HoverPosition returns the active hover position, if any
func (e *Engine) HoverPosition() (models.HoverPosition, bool) {
	if e.pos == nil {
		return models.HoverPosition{}, false
	}
	return *e.pos, true
}

// HoverTime returns the timestamp under the hover marker. Only time axes
// have one.
func (e *Engine) HoverTime() (time.Time, bool) {
	if e.pos == nil || !e.opts.TimeAxis {
		return time.Time{}, false
	}
	return e.xt.InverseTime(e.pos.Pixel.X), true
}

// Resize sets the element size used by the next render
func (e *Engine) Resize(width, height float64) {
	e.dims.Width, e.dims.Height = width, height
	e.surface.Width, e.surface.Height = width, height
}

func (e *Engine) frame() *Frame {
	return &Frame{Chart: e.chart, X: e.xs, Y: e.ys, Dims: e.dims, Options: e.opts}
}

// Render runs a full pass: scales, axes, series, annotations, legend and,
// while hovered, the hover overlay. Rendering twice without a data change
// leaves the scene unchanged.
func (e *Engine) Render() {
	// a chart that lost its data has nothing left to hover
	if e.pos != nil && !e.chart.Domain().Valid {
		e.pos = nil
		e.state = Rendered
		e.xAxis.Restore()
	}

	f := e.frame()
	left, top, right, bottom := f.Plot()

	xExt, yExt := e.kind.Extents(e.chart, e.opts.BucketSize)
	if yExt.Valid && yExt.Min == yExt.Max {
		yExt.Min, yExt.Max = yExt.Min-1, yExt.Max+1
	}
	e.xs.SetDomain(xExt.Min, xExt.Max)
	e.xs.SetRange(left, right)
	e.ys.SetDomain(yExt.Min, yExt.Max)
	e.ys.SetRange(bottom, top)

	if e.kind.Axes() && xExt.Valid {
		if e.opts.TimeAxis {
			e.xAxis.Format = axis.TimeFormatter(e.opts.BucketSize, xExt.Span(), e.opts.Location)
		}
		e.xAxis.Update(xExt.Min, xExt.Max, e.opts.BucketSize, e.xs)
	} else {
		e.xAxis.SetValues(nil, e.xs)
	}
	if e.kind.Axes() && yExt.Valid {
		count := int(math.Floor((bottom - top) / e.opts.LabelHeight))
		e.yAxis.SetValues(axis.Nice(yExt.Min, yExt.Max, count), e.ys)
	} else {
		e.yAxis.SetValues(nil, e.ys)
	}

	if e.pos != nil && e.pos.Valid {
		e.pos.Pixel.X = e.xs.Forward(e.pos.DomainX)
		e.xAxis.Suppress(e.pos.Pixel.X, e.opts.CollisionDistance)
	}

	root := e.surface.Root
	series, _ := root.Find(layerSeries)
	e.kind.Draw(series, f)
	e.drawAnnotations()
	(&axesView{e}).render()
	(&markerView{e}).render()
	(&dotsView{e}).render()
	(&legendView{e}).render()

	if e.state == Empty {
		e.state = Rendered
	}
	e.log.Debug("Rendered chart", logger.Fields{
		"series":  e.chart.Len(),
		"x_ticks": e.xAxis.Len(),
		"nodes":   root.Count(),
		"state":   e.state.String(),
	})
	for _, fn := range e.onChange {
		fn()
	}
}

// PointerMove handles a pointer at (px, py) in element coordinates. Before
// the first render there is nothing to hover and the position is invalid.
func (e *Engine) PointerMove(px, py float64) models.HoverPosition {
	if e.state == Empty {
		return models.HoverPosition{Pixel: models.Pixel{X: px, Y: py}}
	}
	return e.hover.PointerMove(px, py)
}

// PointerLeave clears the hover overlay
func (e *Engine) PointerLeave() {
	if e.state == Empty {
		return
	}
	e.hover.PointerLeave()
}

func (e *Engine) enterHover(pos models.HoverPosition) {
	if !pos.Valid {
		e.pos = nil
		e.state = Rendered
		return
	}
	e.pos = &pos
	e.state = Hovered
}

func (e *Engine) leaveHover() {
	e.pos = nil
	e.state = Rendered
}

func (e *Engine) emitHover(pos models.HoverPosition) {
	for _, fn := range e.onHover {
		fn(pos)
	}
}

func (e *Engine) emitUnhover() {
	for _, fn := range e.onUnhover {
		fn()
	}
}

func (e *Engine) layer(key string) *scene.Node {
	n, _ := e.surface.Root.Find(key)
	return n
}

// drawAnnotations draws a dashed rule for every annotation inside the domain
func (e *Engine) drawAnnotations() {
	layer := e.layer(layerAnnotations)
	d := e.chart.Domain()
	if !e.kind.Axes() || !d.Valid {
		layer.Clear()
		return
	}

	var keys []string
	var visible []models.Annotation
	for _, a := range e.chart.Annotations {
		if a.Time < d.Min || a.Time > d.Max {
			continue
		}
		keys = append(keys, formatKey(a.Time))
		visible = append(visible, a)
	}

	_, top, _, bottom := e.frame().Plot()
	for i, g := range layer.Join(keys, scene.Group) {
		x := e.xs.Forward(visible[i].Time)
		rule := g.Child("rule", scene.Line)
		rule.X, rule.Y, rule.X2, rule.Y2 = x, top, x, bottom
		rule.Style = scene.Style{Stroke: "#888888", StrokeWidth: 1, Dash: []float64{4, 4}}

		label := g.Child("label", scene.Text)
		label.X, label.Y = x+3, top+10
		label.Text = visible[i].Title
		label.Style = scene.Style{Fill: "#555555", FontSize: 9}
	}
}
