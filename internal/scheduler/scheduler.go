package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/robfig/cron/v3"
)

type ProjectSweeper interface {
	CloseExpired(ctx context.Context, now time.Time) ([]string, error)
}

type StaleRequeuer interface {
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type Config struct {
	DeadlineSweepSpec string
	StaleRequeueSpec  string
	LockTTL           time.Duration
	TaskTimeout       time.Duration
}

// Scheduler runs the periodic maintenance tasks of the worker process.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	projects ProjectSweeper
	jobs     StaleRequeuer
	log      *slog.Logger
	now      func() time.Time

	// Listings is the cache shared with the API; swept projects must drop out of it.
	Listings cache.Store
	Metrics  *observability.Prom

	// OnExpired is called with the ids the deadline sweep moved, if set.
	OnExpired func(ids []string)
}

func New(cfg Config, projects ProjectSweeper, jobs StaleRequeuer, log *slog.Logger) *Scheduler {
	if cfg.DeadlineSweepSpec == "" {
		cfg.DeadlineSweepSpec = "@every 1m"
	}
	if cfg.StaleRequeueSpec == "" {
		cfg.StaleRequeueSpec = "@every 30s"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}

	return &Scheduler{
		// overlapping runs of the same task are skipped
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:      cfg,
		projects: projects,
		jobs:     jobs,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.DeadlineSweepSpec, func() { s.SweepDeadlines(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.StaleRequeueSpec, func() { s.RequeueStale(context.Background()) }); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started", "deadline_sweep", s.cfg.DeadlineSweepSpec, "stale_requeue", s.cfg.StaleRequeueSpec)
	return nil
}

// Stop waits for running tasks to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepDeadlines moves open projects whose deadline passed to under_review.
func (s *Scheduler) SweepDeadlines(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancel()

	ids, err := s.projects.CloseExpired(ctx, s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "scheduler.deadline_sweep_failed", "err", err)
		return 0
	}

	if len(ids) > 0 {
		s.log.InfoContext(ctx, "scheduler.deadline_sweep", "moved", len(ids))
		cache.InvalidateListings(ctx, s.Listings)
		s.Metrics.ProjectsSwept(len(ids))
		if s.OnExpired != nil {
			s.OnExpired(ids)
		}
	}
	return len(ids)
}

// RequeueStale releases jobs left in processing by a crashed worker.
func (s *Scheduler) RequeueStale(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancel()

	n, err := s.jobs.RequeueStaleProcessing(ctx, s.cfg.LockTTL)
	if err != nil {
		s.log.ErrorContext(ctx, "scheduler.requeue_stale_failed", "err", err)
		return 0
	}

	if n > 0 {
		s.log.WarnContext(ctx, "scheduler.requeued_stale_jobs", "count", n)
	}
	return n
}
