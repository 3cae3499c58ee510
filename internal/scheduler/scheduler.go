// Package scheduler runs the recurring task generation jobs on a cron
// schedule inside the server process.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/domain"
)

// GenerationRunner is the part of the recurrence generator the scheduler
// drives.
type GenerationRunner interface {
	GenerateDaily(ctx context.Context, targetDate time.Time) ([]*domain.Task, error)
	GenerateWeekly(ctx context.Context, targetDate time.Time) ([]*domain.Task, error)
}

// Scheduler wraps a cron runner that triggers instance generation once per
// day at the configured time.
type Scheduler struct {
	cron   *cron.Cron
	runner GenerationRunner
	logger *slog.Logger
}

// New creates a Scheduler driving the given runner.
// If logger is nil, a default logger will be used.
func New(runner GenerationRunner, logger *slog.Logger) *Scheduler {
	if runner == nil {
		panic("runner cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		logger: logger.With(slog.String("component", "scheduler")),
	}
}

// Register adds the daily generation job at the configured time of day.
// The job runs both the daily and weekly passes for the current date.
func (s *Scheduler) Register(cfg config.SchedulerConfig) error {
	spec := fmt.Sprintf("%d %d * * *", cfg.GenerationMinute, cfg.GenerationHour)

	_, err := s.cron.AddFunc(spec, s.runGeneration)
	if err != nil {
		return fmt.Errorf("failed to register generation job: %w", err)
	}

	s.logger.Info("generation job registered",
		slog.Int("hour", cfg.GenerationHour),
		slog.Int("minute", cfg.GenerationMinute))
	return nil
}

// Start begins running registered jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runGeneration() {
	ctx := context.Background()
	today := time.Now()

	daily, err := s.runner.GenerateDaily(ctx, today)
	if err != nil {
		s.logger.Error("scheduled daily generation failed",
			slog.String("error", err.Error()))
	}

	weekly, err := s.runner.GenerateWeekly(ctx, today)
	if err != nil {
		s.logger.Error("scheduled weekly generation failed",
			slog.String("error", err.Error()))
	}

	s.logger.Info("scheduled generation complete",
		slog.Int("daily_created", len(daily)),
		slog.Int("weekly_created", len(weekly)))
}
