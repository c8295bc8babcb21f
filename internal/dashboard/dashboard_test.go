package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tsdash/internal/engine"
	"tsdash/internal/models"
	"tsdash/internal/scene"
)

const testLayout = `
title: Service overview
notes: "**Production** metrics"
widgets:
  - id: cpu
    title: CPU
    series:
      - name: user
        title: User time
        color: "#ff0000"
  - id: requests
    kind: histogram
    options:
      bucket_size: 30000
  - id: p95
    kind: value
    stat: p95
    options:
      unit: ms
      precision: 0
`

func newTestDashboard(t *testing.T) *Dashboard {
	t.Helper()
	layout, err := ParseLayout([]byte(testLayout))
	if err != nil {
		t.Fatalf("Failed to parse layout: %v", err)
	}
	d, err := New(layout, DefaultRegistry(), engine.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create dashboard: %v", err)
	}
	return d
}

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout([]byte(testLayout))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if layout.Title != "Service overview" || len(layout.Widgets) != 3 {
		t.Fatalf("Unexpected layout %+v", layout)
	}
	cpu := layout.Widgets[0]
	if cpu.Kind != "line" || cpu.Width != defaultWidth || cpu.Height != defaultHeight {
		t.Errorf("Expected widget defaults, got %+v", cpu)
	}
	opts := layout.Widgets[1].Options.Apply(engine.DefaultOptions())
	if opts.BucketSize != 30000 {
		t.Errorf("Expected bucket size override, got %v", opts.BucketSize)
	}

	if _, err := ParseLayout([]byte("widgets:\n  - kind: line\n")); err == nil {
		t.Error("Expected error for widget without id")
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte(testLayout), 0644); err != nil {
		t.Fatalf("Failed to write layout: %v", err)
	}
	if _, err := LoadLayout(path); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := LoadLayout(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	entries := append(DefaultEntries(), DefaultEntries()[0])
	if _, err := NewRegistry(entries...); !errors.Is(err, ErrDuplicateWidget) {
		t.Errorf("Expected ErrDuplicateWidget, got %v", err)
	}

	reg := DefaultRegistry()
	_, err := reg.Lookup("radar")
	if !errors.Is(err, ErrUnknownWidget) {
		t.Errorf("Expected ErrUnknownWidget, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "known: histogram, line, pie, value") {
		t.Errorf("Expected known kinds in error, got %v", err)
	}
	kinds := reg.Kinds()
	if len(kinds) != 4 || kinds[0] != "histogram" {
		t.Errorf("Expected sorted kinds, got %v", kinds)
	}
}

func TestDashboardRejectsDuplicateIDs(t *testing.T) {
	layout := &Layout{Widgets: []WidgetSpec{
		{ID: "a", Kind: "line", Width: 100, Height: 100},
		{ID: "a", Kind: "pie", Width: 100, Height: 100},
	}}
	if _, err := New(layout, DefaultRegistry(), engine.DefaultOptions()); !errors.Is(err, ErrDuplicateWidget) {
		t.Errorf("Expected ErrDuplicateWidget, got %v", err)
	}
}

func TestDashboardUnknownKind(t *testing.T) {
	layout := &Layout{Widgets: []WidgetSpec{{ID: "a", Kind: "radar", Width: 100, Height: 100}}}
	if _, err := New(layout, DefaultRegistry(), engine.DefaultOptions()); !errors.Is(err, ErrUnknownWidget) {
		t.Errorf("Expected ErrUnknownWidget, got %v", err)
	}
}

func TestWidgetsStartRendered(t *testing.T) {
	d := newTestDashboard(t)
	for _, w := range d.Widgets() {
		if w.Engine().State() != engine.Rendered {
			t.Errorf("Expected widget %s rendered, got %s", w.ID(), w.Engine().State())
		}
	}
	cpu, err := d.Widget("cpu")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s, ok := cpu.Chart().Lookup("user"); !ok || s.Color != "#ff0000" {
		t.Error("Expected predeclared series")
	}
	if _, err := d.Widget("nope"); !errors.Is(err, ErrUnknownWidget) {
		t.Errorf("Expected ErrUnknownWidget, got %v", err)
	}
}

func TestApplyOnEventLoop(t *testing.T) {
	d := newTestDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- d.Run(ctx) }()

	snap := &models.Snapshot{Metrics: []models.MetricPayload{
		{Name: "user", Datapoints: []models.Sample{models.Point(0, 1), models.Point(60000, 2)}},
		{Name: "system", Datapoints: []models.Sample{models.Point(0, 5)}},
	}}
	if err := d.Apply(ctx, "cpu", snap); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var legend []engine.LegendEntry
	err := d.Do(ctx, func() error {
		w, _ := d.Widget("cpu")
		legend = w.Engine().Legend()
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(legend) != 1 || legend[0].Value != "2.00" || legend[0].Title != "User time" {
		t.Errorf("Expected predeclared series only with value 2.00, got %+v", legend)
	}

	if err := d.Apply(ctx, "missing", snap); !errors.Is(err, ErrUnknownWidget) {
		t.Errorf("Expected ErrUnknownWidget, got %v", err)
	}

	cancel()
	select {
	case <-loopDone:
	case <-time.After(time.Second):
		t.Fatal("Expected event loop to stop")
	}
	if err := d.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}

func TestUndeclaredWidgetsAddSeries(t *testing.T) {
	d := newTestDashboard(t)
	w, _ := d.Widget("requests")
	n := w.Apply(&models.Snapshot{Metrics: []models.MetricPayload{
		{Name: "2xx", Datapoints: []models.Sample{models.Point(0, 10)}},
		{Name: "5xx", Datapoints: []models.Sample{models.Point(0, 1)}},
	}})
	if n != 2 || w.Chart().Len() != 2 {
		t.Errorf("Expected 2 series added, got %d (%d)", n, w.Chart().Len())
	}
}

func TestValueWidget(t *testing.T) {
	d := newTestDashboard(t)
	w, _ := d.Widget("p95")

	text := func() string {
		n, ok := w.Engine().Scene().Root.Lookup("series/value")
		if !ok {
			t.Fatal("Expected value text node")
		}
		return n.Text
	}
	if got := text(); got != "-" {
		t.Errorf("Expected default display value, got %q", got)
	}

	var samples []models.Sample
	for i := 1; i <= 100; i++ {
		samples = append(samples, models.Point(float64(i*1000), float64(i)))
	}
	w.Apply(&models.Snapshot{Metrics: []models.MetricPayload{{Name: "latency", Datapoints: samples}}})

	if got := text(); got != "95 ms" && got != "96 ms" {
		t.Errorf("Expected p95 near 95 ms, got %q", got)
	}
	summary, _ := w.Engine().Scene().Root.Lookup("series/summary")
	if summary.Text == "" || summary.Style.Anchor != scene.AnchorMiddle {
		t.Errorf("Expected summary line, got %+v", summary)
	}
	if pos := w.Engine().PointerMove(10, 10); pos.Valid {
		if _, ok := w.Engine().Scene().Root.Lookup("marker/rule"); ok {
			t.Error("Expected no marker on a value widget")
		}
	}
}

func TestAnnotateOnlyAxisWidgets(t *testing.T) {
	d := newTestDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	anns := []models.Annotation{{Time: 30000, Title: "deploy"}}
	if err := d.Annotate(ctx, anns); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cpu, _ := d.Widget("cpu")
	value, _ := d.Widget("p95")
	if len(cpu.Chart().Annotations) != 1 {
		t.Error("Expected annotations on the line widget")
	}
	if len(value.Chart().Annotations) != 0 {
		t.Error("Expected no annotations on the value widget")
	}
}
