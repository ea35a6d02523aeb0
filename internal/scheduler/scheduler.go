// Package scheduler triggers the automatic status change on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registrations/internal/clock"
	"github.com/Shivanand-hulikatti/seminar-registrations/internal/service"
	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single status change run.
const jobTimeout = 5 * time.Minute

// StatusRunner is implemented by service.StatusChangeService.
type StatusRunner interface {
	Run(ctx context.Context, now time.Time) (service.StatusChangeResult, error)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// Scheduler owns the cron instance.
type Scheduler struct {
	cron   *cron.Cron
	runner StatusRunner
	clock  clock.Clock
	logger *slog.Logger
}

// New registers the status change job under schedule, a standard five-field
// cron expression or a descriptor such as "@every 1h". Overlapping runs are
// skipped.
func New(schedule string, runner StatusRunner, clk clock.Clock, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		clock:  clk,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job or ctx, whichever ends
// first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := s.clock.Now()
	result, err := s.runner.Run(ctx, start)
	if err != nil {
		s.logger.Error("status change run failed", "error", err)
		return
	}
	s.logger.Info("status change run finished",
		"checked", result.Checked,
		"confirmed", result.Confirmed,
		"canceled", result.Canceled,
		"duration", time.Since(start),
	)
}
