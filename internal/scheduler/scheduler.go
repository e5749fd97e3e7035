// Package scheduler runs the pipeline on a cron grid for deployments
// without an external scheduler.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is one pipeline batch. Satisfied by pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler wraps robfig/cron and manages the run loop.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string
	log    *slog.Logger
}

// DefaultSpec fires at minute 5 of every even UTC hour, which keeps every
// run inside the first half-hour so the deep-run slots at 00/08/16 UTC are
// never missed to scheduler jitter.
const DefaultSpec = "5 */2 * * *"

// New creates a Scheduler with the given cron spec.
func New(runner Runner, spec string, log *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		runner: runner,
		spec:   spec,
		log:    log,
	}
}

// Start registers the job and starts the loop. One batch runs immediately
// so a fresh deployment does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", "spec", s.spec)

	go s.runOnce(ctx)
	return nil
}

// Stop shuts the loop down and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.runner.Run(ctx); err != nil {
		s.log.Error("pipeline run", "error", err)
	}
}
