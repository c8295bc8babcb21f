package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tsdash/internal/config"
	"tsdash/internal/dashboard"
	"tsdash/internal/engine"
	"tsdash/internal/fetchers"
	"tsdash/internal/logger"
	"tsdash/internal/models"
)

const appLayout = `
title: App test
widgets:
  - id: cpu
    series:
      - name: user
  - id: latency
    kind: value
    stat: max
    metrics_url: http://metrics.local/q/latency
`

func newTestApp(t *testing.T) *app {
	t.Helper()
	layout, err := dashboard.ParseLayout([]byte(appLayout))
	if err != nil {
		t.Fatalf("Failed to parse layout: %v", err)
	}
	d, err := dashboard.New(layout, dashboard.DefaultRegistry(), engine.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create dashboard: %v", err)
	}
	return &app{
		cfg:  &config.Config{MetricsURL: "http://metrics.local/api/"},
		dash: d,
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := &config.Config{
		BucketSize:          60000,
		LineMode:            "dotted",
		CollisionDistance:   12,
		DefaultDisplayValue: "n/a",
		LabelWidth:          50,
		MarginTop:           1,
		MarginRight:         2,
		MarginBottom:        3,
		MarginLeft:          4,
	}
	opts := engineOptions(cfg)
	if opts.BucketSize != 60000 || opts.LineMode != engine.Dotted {
		t.Errorf("Expected bucket 60000 and dotted mode, got %v %v", opts.BucketSize, opts.LineMode)
	}
	if opts.DefaultDisplayValue != "n/a" || opts.CollisionDistance != 12 {
		t.Errorf("Unexpected display options %+v", opts)
	}
	if opts.Margin != (models.Margin{Top: 1, Right: 2, Bottom: 3, Left: 4}) {
		t.Errorf("Expected margins 1 2 3 4, got %+v", opts.Margin)
	}
}

func TestTargets(t *testing.T) {
	a := newTestApp(t)
	targets := a.targets()
	expected := []fetchers.Target{
		{ID: "cpu", URL: "http://metrics.local/api/cpu"},
		{ID: "latency", URL: "http://metrics.local/q/latency"},
	}
	if len(targets) != len(expected) {
		t.Fatalf("Expected %d targets, got %d", len(expected), len(targets))
	}
	for i := range expected {
		if targets[i] != expected[i] {
			t.Errorf("Expected %+v, got %+v", expected[i], targets[i])
		}
	}
}

func TestAnnotationsNotConfigured(t *testing.T) {
	a := newTestApp(t)
	anns, ok, err := a.annotations(context.Background())
	if err != nil || ok || anns != nil {
		t.Errorf("Expected no annotations without a feed, got %v %v %v", anns, ok, err)
	}
}

func TestApplySnapshotFile(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "cpu.json")
	body := `{"metrics":[{"name":"user","datapoints":[{"x":0,"y":1},{"x":1000,"y":2.5}]}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}

	if err := a.applySnapshotFile("", path); err == nil {
		t.Error("Expected error without a widget id")
	}
	if err := a.applySnapshotFile("nope", path); err == nil {
		t.Error("Expected error for unknown widget")
	}
	if err := a.applySnapshotFile("cpu", path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	w, _ := a.dash.Widget("cpu")
	if got := w.Engine().Legend()[0].Value; got != "2.50" {
		t.Errorf("Expected last value 2.50, got %s", got)
	}

	var out bytes.Buffer
	printWidget(&out, w)
	for _, want := range []string{"Cpu", "2.50", "1.00"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected inspect output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestRootCommand(t *testing.T) {
	cmd := createRootCommand()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "render", "inspect"} {
		if !names[want] {
			t.Errorf("Expected %s subcommand", want)
		}
	}
	if cmd.PersistentFlags().Lookup("dashboard") == nil {
		t.Error("Expected persistent dashboard flag")
	}
}

func TestLogsGoToStderr(t *testing.T) {
	original := logger.GetGlobalLogger()
	logger.SetGlobalLogger(logger.NewDefault())
	defer logger.SetGlobalLogger(original)

	var stderr bytes.Buffer
	cmd := createRootCommand()
	cmd.SetErr(&stderr)
	cmd.PersistentPreRun(cmd, nil)

	logger.WithComponent("tsdash").Info("frames written")
	if !strings.Contains(stderr.String(), "frames written") {
		t.Errorf("Expected log line on stderr, got %q", stderr.String())
	}
}
