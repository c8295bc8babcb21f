// Package hover turns raw pointer positions into snapped domain positions and
// fans them out to the views that follow the pointer.
package hover

import (
	"tsdash/internal/axis"
	"tsdash/internal/models"
	"tsdash/internal/scale"
)

// DefaultCollisionDistance is how close, in pixels, a tick may be to the
// hover marker before it is hidden
const DefaultCollisionDistance = 60

// Source supplies the current chart geometry. It is read on every pointer
// event, so a re-render between events is picked up without notification.
type Source interface {
	XScale() *scale.Linear
	// GridOrigin returns the chart domain minimum; false when there is no data
	GridOrigin() (float64, bool)
	Step() float64
}

// Listener receives hover transitions
type Listener interface {
	Hover(pos models.HoverPosition)
	Unhover()
}

// Funcs adapts plain functions to a Listener. Nil fields are skipped.
type Funcs struct {
	OnHover   func(models.HoverPosition)
	OnUnhover func()
}

func (f Funcs) Hover(pos models.HoverPosition) {
	if f.OnHover != nil {
		f.OnHover(pos)
	}
}

func (f Funcs) Unhover() {
	if f.OnUnhover != nil {
		f.OnUnhover()
	}
}

// Coordinator maps pointer events to hover positions. It keeps no state
// between events besides its listeners.
type Coordinator struct {
	src       Source
	ticks     *axis.Axis
	distance  float64
	listeners []Listener
}

// New creates a coordinator. ticks is the axis whose labels are hidden near
// the marker and may be nil. A negative distance selects the default.
func New(src Source, ticks *axis.Axis, distance float64) *Coordinator {
	if distance < 0 {
		distance = DefaultCollisionDistance
	}
	return &Coordinator{src: src, ticks: ticks, distance: distance}
}

// Subscribe registers a listener. Listeners are called in registration order.
func (c *Coordinator) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

// Resolve computes the hover position for a pointer at (px, py) without
// notifying anyone.
func (c *Coordinator) Resolve(px, py float64) models.HoverPosition {
	origin, ok := c.src.GridOrigin()
	if !ok {
		return models.HoverPosition{Pixel: models.Pixel{X: px, Y: py}}
	}
	xs := c.src.XScale()
	x := xs.Inverse(px)
	if step := c.src.Step(); step > 0 {
		x = scale.Snap(x, origin, step)
	}
	return models.HoverPosition{
		DomainX: x,
		Valid:   true,
		Pixel:   models.Pixel{X: xs.Forward(x), Y: py},
	}
}

// PointerMove resolves the pointer, updates tick suppression and broadcasts
// the position.
func (c *Coordinator) PointerMove(px, py float64) models.HoverPosition {
	pos := c.Resolve(px, py)
	if c.ticks != nil {
		if pos.Valid {
			c.ticks.Suppress(pos.Pixel.X, c.distance)
		} else {
			c.ticks.Restore()
		}
	}
	for _, l := range c.listeners {
		l.Hover(pos)
	}
	return pos
}

// PointerLeave restores every tick and broadcasts unhover
func (c *Coordinator) PointerLeave() {
	if c.ticks != nil {
		c.ticks.Restore()
	}
	for _, l := range c.listeners {
		l.Unhover()
	}
}
