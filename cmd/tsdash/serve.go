package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"tsdash/internal/fetchers"
	"tsdash/internal/logger"
	"tsdash/internal/server"
	"tsdash/internal/storage"
)

func createServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the metrics endpoints and serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, dashboardFile)
	if err != nil {
		return err
	}

	st, err := storage.NewStorageClient(ctx, a.cfg)
	if err != nil {
		return err
	}
	srv, err := server.NewServer(a.cfg, a.dash, st)
	if err != nil {
		return err
	}
	defer srv.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.dash.Run(ctx)
	}()

	for _, p := range a.pollers() {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(ctx)
		}()
	}

	a.log.Info("Dashboard serving", logger.Fields{"widgets": len(a.dash.Widgets()), "port": a.cfg.Port})
	err = srv.Run(ctx)
	stop()
	wg.Wait()
	return err
}

// pollers creates one poller per widget and one for the annotation feed.
// Each poller hands its result to the dashboard event loop.
func (a *app) pollers() []*fetchers.Poller {
	var out []*fetchers.Poller
	for _, t := range a.targets() {
		t := t
		out = append(out, fetchers.NewPoller(t.ID, a.cfg.PollInterval, func(ctx context.Context) error {
			snap, err := a.source.FetchSnapshot(ctx, t.URL)
			if err != nil {
				return err
			}
			return a.dash.Apply(ctx, t.ID, snap)
		}))
	}

	if a.mock != nil || a.cfg.AnnotationsURL != "" {
		out = append(out, fetchers.NewPoller("annotations", a.cfg.PollInterval, func(ctx context.Context) error {
			anns, _, err := a.annotations(ctx)
			if err != nil {
				return err
			}
			return a.dash.Annotate(ctx, anns)
		}))
	}
	return out
}
