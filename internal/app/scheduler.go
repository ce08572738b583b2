/**
 * @description
 * Optional embedded cron trigger. Deployments that cannot call the HTTP
 * trigger endpoint from an external scheduler can let the process drive the
 * batch runner itself on a cron schedule.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron instance that periodically invokes the batch runner.
type Scheduler struct {
	cron     *cron.Cron
	runner   *Runner
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a scheduler that runs the batch on the given cron
// expression (the platform convention is once per minute).
func NewScheduler(runner *Runner, logger *slog.Logger, scheduleExpr string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		runner:   runner,
		logger:   logger,
		schedule: scheduleExpr,
	}
}

// Start registers the batch job and starts the cron loop.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runBatch); err != nil {
		s.logger.Error("failed to schedule recurring donation job", "schedule", s.schedule, "error", err)
		return
	}
	s.logger.Info("scheduled recurring donation job", "schedule", s.schedule)
	s.cron.Start()
}

// Stop gracefully stops the cron loop; the returned context is done once any
// in-flight batch has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runBatch() {
	ctx := context.Background()
	report, err := s.runner.RunOnce(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("recurring donation batch failed", "error", err)
		return
	}
	s.logger.Info("recurring donation batch report",
		"processed", report.ProcessedCount,
		"storage_failures", report.StorageFailures,
		"skipped", report.Skipped,
	)
}
