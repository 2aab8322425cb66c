package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"animarr/internal/config"
	"animarr/internal/jobs"
	"animarr/internal/logging"
	"animarr/internal/services"
	"animarr/internal/store"
)

// Scheduler triggers recurring jobs at the configured intervals. Scheduled
// and manual runs share the Runner and its per-type locks, so a scheduled
// tick that lands while the same job is active is skipped.
type Scheduler struct {
	runner *jobs.Runner
	cron   *cron.Cron
	logger *slog.Logger

	catalogSyncInterval time.Duration
	feedScanInterval    time.Duration
}

// New builds a Scheduler from configuration.
func New(cfg *config.Config, runner *jobs.Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		runner:              runner,
		cron:                cron.New(),
		logger:              logger.With(logging.FieldComponent, "scheduler"),
		catalogSyncInterval: time.Duration(cfg.Scheduler.CatalogSyncInterval) * time.Second,
		feedScanInterval:    time.Duration(cfg.Scheduler.FeedScanInterval) * time.Second,
	}
}

// Start registers the recurring entries and begins ticking. The context
// bounds every triggered run.
func (s *Scheduler) Start(ctx context.Context) error {
	entries := []struct {
		jobType  store.JobType
		interval time.Duration
	}{
		{store.JobSyncCatalog, s.catalogSyncInterval},
		{store.JobScanFeed, s.feedScanInterval},
	}

	for _, entry := range entries {
		jobType := entry.jobType
		spec := fmt.Sprintf("@every %s", entry.interval)
		if _, err := s.cron.AddFunc(spec, func() {
			s.trigger(ctx, jobType)
		}); err != nil {
			return services.Wrap(services.ErrConfiguration, "scheduler", "register entry",
				fmt.Sprintf("%s %s", jobType, spec), err)
		}
		s.logger.Info("entry registered", "job_type", string(jobType), "interval", entry.interval.String())
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) trigger(ctx context.Context, jobType store.JobType) {
	execution, err := s.runner.Run(ctx, jobType, store.TriggerScheduled, jobs.Params{})
	if err != nil {
		if errors.Is(err, services.ErrAlreadyRunning) {
			s.logger.Info("skipping tick, job already active", "job_type", string(jobType))
			return
		}
		s.logger.Error("scheduled run failed to start", "job_type", string(jobType), "error", err)
		return
	}
	s.logger.Info("scheduled run finished",
		"job_type", string(jobType),
		logging.FieldExecutionID, execution.ID,
		"status", string(execution.Status),
	)
}

// Stop halts the ticker and waits for in-flight scheduled runs.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}
