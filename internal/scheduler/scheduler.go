// Package scheduler drives the aggregation jobs on fixed cadences: daily
// statistics first, then the weekly and monthly roll-ups, then rankings. The
// ordering is enforced by the cron specs themselves (daily at 01:00, weekly at
// 02:00 Mondays, monthly at 03:00 on the 1st, rankings at 04:00), all
// evaluated in the configured timezone.
package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"paperless-analytics/internal/common/config"
	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/logger"
)

// Jobs is the aggregation surface the scheduler invokes. Empty date arguments
// make each job default to its previous complete period.
type Jobs interface {
	AggregateDaily(ctx context.Context, date string) error
	AggregateWeekly(ctx context.Context, weekStart string) error
	AggregateMonthly(ctx context.Context, month string) error
	UpdateBranchRankings(ctx context.Context) error
}

// Scheduler runs the aggregation jobs on cron cadences and serves manual
// triggers from the admin endpoint through the same locking path.
type Scheduler struct {
	cron       *cron.Cron
	jobs       Jobs
	lock       *jobLock
	jobTimeout time.Duration
	logger     logger.Logger
}

// New builds a stopped scheduler. Call Start to begin dispatching.
func New(cfg config.SchedulerConfig, loc *time.Location, jobs Jobs, redisClient *redis.Client, log logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		jobs:       jobs,
		lock:       newJobLock(redisClient, time.Duration(cfg.LockTTL)*time.Millisecond),
		jobTimeout: time.Duration(cfg.JobTimeout) * time.Millisecond,
		logger:     log.WithFields(map[string]interface{}{"component": "scheduler"}),
	}

	entries := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{cfg.DailySpec, "daily", func(ctx context.Context) error { return jobs.AggregateDaily(ctx, "") }},
		{cfg.WeeklySpec, "weekly", func(ctx context.Context) error { return jobs.AggregateWeekly(ctx, "") }},
		{cfg.MonthlySpec, "monthly", func(ctx context.Context) error { return jobs.AggregateMonthly(ctx, "") }},
		{cfg.RankingsSpec, "rankings", func(ctx context.Context) error { return jobs.UpdateBranchRankings(ctx) }},
	}
	for _, e := range entries {
		e := e
		if _, err := s.cron.AddFunc(e.spec, func() {
			if err := s.runLocked(context.Background(), e.name, e.run); err != nil {
				s.logger.Error("scheduled job failed", map[string]interface{}{
					"job":   e.name,
					"error": err,
				})
			}
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start begins cron dispatch in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", nil)
	s.cron.Start()
}

// Stop halts dispatch and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped", nil)
}

// Trigger runs one job synchronously on behalf of the admin endpoint. The
// date argument is passed through to the job; rankings ignore it.
func (s *Scheduler) Trigger(ctx context.Context, jobType, date string) error {
	switch jobType {
	case "daily":
		return s.runLocked(ctx, "daily", func(ctx context.Context) error { return s.jobs.AggregateDaily(ctx, date) })
	case "weekly":
		return s.runLocked(ctx, "weekly", func(ctx context.Context) error { return s.jobs.AggregateWeekly(ctx, date) })
	case "monthly":
		return s.runLocked(ctx, "monthly", func(ctx context.Context) error { return s.jobs.AggregateMonthly(ctx, date) })
	case "rankings":
		return s.runLocked(ctx, "rankings", func(ctx context.Context) error { return s.jobs.UpdateBranchRankings(ctx) })
	default:
		return apperrors.NewInvalidAggregationTypeError(jobType)
	}
}

func (s *Scheduler) runLocked(ctx context.Context, name string, run func(ctx context.Context) error) error {
	acquired, err := s.lock.Acquire(ctx, name)
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if !acquired {
		s.logger.Warn("job already running, skipping", map[string]interface{}{"job": name})
		return apperrors.NewJobLockedError(name)
	}
	defer s.lock.Release(ctx, name)

	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	started := time.Now()
	err = run(ctx)
	s.logger.Info("job finished", map[string]interface{}{
		"job":      name,
		"duration": time.Since(started).String(),
		"success":  err == nil,
	})
	return err
}
