package dashboard

import (
	"fmt"

	"tsdash/internal/engine"
	"tsdash/internal/models"
)

// Widget is one chart of the dashboard: its model and the engine drawing it
type Widget struct {
	Spec WidgetSpec

	chart      *models.Chart
	engine     *engine.Engine
	addUnknown bool
}

func newWidget(spec WidgetSpec, reg *Registry, defaults engine.Options) (*Widget, error) {
	entry, err := reg.Lookup(spec.Kind)
	if err != nil {
		return nil, fmt.Errorf("widget %s: %w", spec.ID, err)
	}
	opts := spec.Options.Apply(defaults)
	kind, err := entry.Build(spec, opts)
	if err != nil {
		return nil, err
	}

	chart := models.NewChart(spec.ID)
	for _, s := range spec.Series {
		chart.AddSeries(models.Series{Name: s.Name, Title: s.Title, Color: s.Color})
	}

	eng, err := engine.New(chart, kind, opts)
	if err != nil {
		return nil, fmt.Errorf("widget %s: %w", spec.ID, err)
	}
	eng.Resize(spec.Width, spec.Height)

	addUnknown := entry.AddUnknown
	if spec.AddUnknown != nil {
		addUnknown = *spec.AddUnknown
	} else if len(spec.Series) == 0 {
		// nothing predeclared, so take whatever the endpoint sends
		addUnknown = true
	}
	return &Widget{Spec: spec, chart: chart, engine: eng, addUnknown: addUnknown}, nil
}

// ID returns the widget id
func (w *Widget) ID() string { return w.Spec.ID }

// Title returns the display title
func (w *Widget) Title() string { return w.Spec.Title }

// Chart returns the widget model
func (w *Widget) Chart() *models.Chart { return w.chart }

// Engine returns the widget renderer
func (w *Widget) Engine() *engine.Engine { return w.engine }

// Apply merges a snapshot into the chart and re-renders. Returns the number
// of series updated.
func (w *Widget) Apply(snap *models.Snapshot) int {
	n := w.chart.Merge(snap, w.addUnknown)
	w.engine.Render()
	return n
}

// RemoveSeries drops a series from the chart and re-renders
func (w *Widget) RemoveSeries(name string) error {
	if !w.chart.RemoveSeries(name) {
		return fmt.Errorf("%w: %q in widget %s", ErrUnknownSeries, name, w.ID())
	}
	w.engine.Render()
	return nil
}

// SetAnnotations replaces the chart annotations and re-renders
func (w *Widget) SetAnnotations(anns []models.Annotation) {
	w.chart.Annotations = append([]models.Annotation(nil), anns...)
	w.engine.Render()
}
