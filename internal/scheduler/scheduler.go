package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a unit of scheduled work. Errors are logged, never fatal.
type Task func(ctx context.Context) error

// Scheduler drives the trading cadences. Cycles never overlap: a tick that
// arrives while the previous run of the same task is still going is
// skipped, which keeps the scout loop cooperative and non-reentrant.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		ctx: ctx,
	}
}

// Every registers a task to run at a fixed interval.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler.Every: %s: interval must be positive", name)
	}
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		if err := task(s.ctx); err != nil {
			slog.Error("scheduled task failed", "task", name, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler.Every: register %s: %w", name, err)
	}
	return nil
}

// Start begins dispatching tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop stops dispatching and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}
