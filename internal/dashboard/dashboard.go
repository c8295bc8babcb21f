// Package dashboard builds widgets from a layout and owns the event loop
// that serializes every access to their charts.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"tsdash/internal/engine"
	"tsdash/internal/logger"
	"tsdash/internal/models"
)

// ErrStopped is returned by Do once the event loop has exited
var ErrStopped = errors.New("dashboard stopped")

// Dashboard is a set of widgets driven by one event loop. Chart state is
// only touched from closures run by Run, so it needs no locking.
type Dashboard struct {
	Title string
	Notes string

	widgets []*Widget
	byID    map[string]*Widget

	reqs    chan func()
	stopped chan struct{}
	log     *logger.Logger
}

// New builds every widget of the layout and renders it once. Widget ids must
// be unique.
func New(layout *Layout, reg *Registry, defaults engine.Options) (*Dashboard, error) {
	d := &Dashboard{
		Title:   layout.Title,
		Notes:   layout.Notes,
		byID:    make(map[string]*Widget, len(layout.Widgets)),
		reqs:    make(chan func()),
		stopped: make(chan struct{}),
		log:     logger.WithComponent("dashboard"),
	}
	for _, spec := range layout.Widgets {
		if _, ok := d.byID[spec.ID]; ok {
			return nil, fmt.Errorf("%w: id %q used twice", ErrDuplicateWidget, spec.ID)
		}
		w, err := newWidget(spec, reg, defaults)
		if err != nil {
			return nil, err
		}
		w.engine.Render()
		d.widgets = append(d.widgets, w)
		d.byID[spec.ID] = w
	}
	d.log.Info("Dashboard created", logger.Fields{"title": d.Title, "widgets": len(d.widgets)})
	return d, nil
}

// Widgets returns the widgets in layout order
func (d *Dashboard) Widgets() []*Widget {
	out := make([]*Widget, len(d.widgets))
	copy(out, d.widgets)
	return out
}

// Widget finds a widget by id
func (d *Dashboard) Widget(id string) (*Widget, error) {
	w, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWidget, id)
	}
	return w, nil
}

// Run executes queued closures until ctx is done
func (d *Dashboard) Run(ctx context.Context) error {
	defer close(d.stopped)
	d.log.Debug("Event loop started")
	for {
		select {
		case fn := <-d.reqs:
			fn()
		case <-ctx.Done():
			d.log.Debug("Event loop stopped")
			return ctx.Err()
		}
	}
}

// Do runs fn on the event loop and waits for its result. It blocks until Run
// is started.
func (d *Dashboard) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	select {
	case d.reqs <- func() { done <- fn() }:
	case <-d.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply merges a snapshot into one widget on the event loop
func (d *Dashboard) Apply(ctx context.Context, id string, snap *models.Snapshot) error {
	return d.Do(ctx, func() error {
		w, err := d.Widget(id)
		if err != nil {
			return err
		}
		n := w.Apply(snap)
		d.log.Debug("Snapshot applied", logger.Fields{"widget": id, "series": n})
		return nil
	})
}

// Annotate replaces the annotations of every widget drawn against a time axis
func (d *Dashboard) Annotate(ctx context.Context, anns []models.Annotation) error {
	return d.Do(ctx, func() error {
		for _, w := range d.widgets {
			if w.engine.Kind().Axes() {
				w.SetAnnotations(anns)
			}
		}
		return nil
	})
}
