package fetchers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tsdash/internal/logger"
)

// Task is one poll: fetch and hand the result on
type Task func(ctx context.Context) error

// Poller runs a task on a fixed interval. A tick that fires while the
// previous run is still in flight is skipped, so results are handed on in
// the order they were requested.
type Poller struct {
	Name     string
	Interval time.Duration
	Task     Task

	inFlight atomic.Bool
	runs     atomic.Int64
	skipped  atomic.Int64
	failures atomic.Int64
	wg       sync.WaitGroup
	log      *logger.Logger
}

// NewPoller creates a poller for task
func NewPoller(name string, interval time.Duration, task Task) *Poller {
	return &Poller{
		Name:     name,
		Interval: interval,
		Task:     task,
		log:      logger.WithComponent("poller").With(logger.Fields{"poller": name}),
	}
}

// Run polls immediately and then on every tick until ctx is done. It waits
// for the run in flight before returning.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	p.log.Info("Polling started", logger.Fields{"interval": p.Interval.String()})
	p.trigger(ctx)
	for {
		select {
		case <-ticker.C:
			p.trigger(ctx)
		case <-ctx.Done():
			p.log.Info("Polling stopped", logger.Fields{"runs": p.runs.Load(), "skipped": p.skipped.Load()})
			return
		}
	}
}

// trigger starts a run unless one is in flight
func (p *Poller) trigger(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.log.Debug("Previous poll still in flight, skipping tick")
		return false
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		p.runs.Add(1)
		if err := p.Task(ctx); err != nil {
			p.failures.Add(1)
			// the chart keeps its last rendered frame
			p.log.Warn("Poll failed", logger.Fields{"error": err.Error()})
		}
	}()
	return true
}

// Stats returns how many runs were started, skipped and failed
func (p *Poller) Stats() (runs, skipped, failures int64) {
	return p.runs.Load(), p.skipped.Load(), p.failures.Load()
}
