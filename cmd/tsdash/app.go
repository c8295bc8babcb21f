package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tsdash/internal/config"
	"tsdash/internal/dashboard"
	"tsdash/internal/engine"
	"tsdash/internal/fetchers"
	"tsdash/internal/logger"
	"tsdash/internal/mocks"
	"tsdash/internal/models"
)

// app is the wiring shared by every command
type app struct {
	cfg     *config.Config
	dash    *dashboard.Dashboard
	source  fetchers.SnapshotSource
	fetcher *fetchers.DataFetcher
	mock    *mocks.MockService
	log     *logger.Logger
}

// newApp loads configuration, the dashboard layout and the snapshot source.
// dashboardFile overrides DASHBOARD_FILE when set.
func newApp(ctx context.Context, dashboardFile string) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if dashboardFile != "" {
		cfg.DashboardFile = dashboardFile
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}

	layout, err := dashboard.LoadLayout(cfg.DashboardFile)
	if err != nil {
		return nil, err
	}
	d, err := dashboard.New(layout, dashboard.DefaultRegistry(), engineOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	a := &app{cfg: cfg, dash: d, log: logger.WithComponent("tsdash")}
	if cfg.MockupMode {
		a.mock = mocks.NewMockService(cfg.MocksDir, time.Duration(cfg.BucketSize)*time.Millisecond)
		a.source = a.mock
		a.log.Info("Mockup mode enabled", logger.Fields{"dir": cfg.MocksDir})
	} else {
		a.fetcher = fetchers.NewDataFetcher(cfg.FetchTimeout, cfg.FetchRetries)
		a.source = a.fetcher
	}
	return a, nil
}

// engineOptions maps the environment configuration onto engine defaults
func engineOptions(cfg *config.Config) engine.Options {
	opts := engine.DefaultOptions()
	opts.BucketSize = cfg.BucketSize
	opts.LineMode = engine.LineMode(cfg.LineMode)
	opts.CollisionDistance = cfg.CollisionDistance
	opts.DefaultDisplayValue = cfg.DefaultDisplayValue
	opts.LabelWidth = cfg.LabelWidth
	opts.Margin = models.Margin{
		Top:    cfg.MarginTop,
		Right:  cfg.MarginRight,
		Bottom: cfg.MarginBottom,
		Left:   cfg.MarginLeft,
	}
	return opts
}

// targets resolves the query URL of every widget: its own metrics_url, or
// METRICS_URL joined with the widget id
func (a *app) targets() []fetchers.Target {
	var out []fetchers.Target
	for _, w := range a.dash.Widgets() {
		url := w.Spec.MetricsURL
		if url == "" {
			url = strings.TrimRight(a.cfg.MetricsURL, "/") + "/" + w.ID()
		}
		out = append(out, fetchers.Target{ID: w.ID(), URL: url})
	}
	return out
}

// annotations loads the annotation feed, if one is configured
func (a *app) annotations(ctx context.Context) ([]models.Annotation, bool, error) {
	if a.mock != nil {
		anns, err := a.mock.LoadAnnotations()
		return anns, true, err
	}
	if a.cfg.AnnotationsURL == "" {
		return nil, false, nil
	}
	anns, err := a.fetcher.FetchAnnotations(ctx, a.cfg.AnnotationsURL)
	return anns, true, err
}

// loadOnce fetches every widget and the annotations a single time and
// applies them directly. Only used before any event loop is running.
func (a *app) loadOnce(ctx context.Context) error {
	snaps, err := fetchers.FetchAll(ctx, a.source, a.targets())
	if err != nil {
		return err
	}
	for id, snap := range snaps {
		w, err := a.dash.Widget(id)
		if err != nil {
			return err
		}
		w.Apply(snap)
	}

	anns, ok, err := a.annotations(ctx)
	if err != nil {
		a.log.Warn("Annotations unavailable", logger.Fields{"error": err.Error()})
	} else if ok {
		for _, w := range a.dash.Widgets() {
			if w.Engine().Kind().Axes() {
				w.SetAnnotations(anns)
			}
		}
	}
	return nil
}
