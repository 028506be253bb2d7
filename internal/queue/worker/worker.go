package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/observability"
)

// ErrPermanent marks a failure that retrying cannot fix. Wrap it to dead-letter a job immediately.
var ErrPermanent = errors.New("permanent job failure")

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
}

// Handler executes one job. Returning nil marks the job done.
type Handler func(ctx context.Context, j job.Job) error

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	JobTimeout    time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	log      *slog.Logger
	metrics  *observability.JobMetrics
	prom     *observability.Prom
	handlers map[string]Handler

	readyMu sync.RWMutex
	ready   bool

	now func() time.Time
}

func New(cfg Config, repo JobsRepository, log *slog.Logger, metrics *observability.JobMetrics, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if metrics == nil {
		metrics = observability.NewJobMetrics()
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		log:      log,
		metrics:  metrics,
		prom:     prom,
		handlers: make(map[string]Handler),
		now:      time.Now,
	}
}

// Handle registers h for jobType. Call before Run.
func (w *Worker) Handle(jobType string, h Handler) {
	w.handlers[jobType] = h
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) IsReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

// Run polls the queue with cfg.Concurrency loops until ctx is cancelled,
// then waits up to ShutdownGrace for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	// jobs keep running on their own context so a shutdown signal does not abort them mid-send
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, jobCtx, slot)
		}(i)
	}

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker draining", "grace", w.cfg.ShutdownGrace.String())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		cancelJobs()
		<-done
		return fmt.Errorf("worker: shutdown grace %s exceeded", w.cfg.ShutdownGrace)
	}
}

func (w *Worker) loop(ctx, jobCtx context.Context, slot int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// drain while there is work, then go back to waiting on the ticker
		for ctx.Err() == nil {
			processed, err := w.ProcessOne(jobCtx)
			if err != nil {
				w.log.Error("worker.process_failed", "slot", slot, "err", err)
			}
			if !processed {
				break
			}
		}
	}
}
