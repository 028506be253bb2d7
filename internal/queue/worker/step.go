package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/jobs"
)

// ProcessOne claims and executes at most one job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.metrics.IncClaimed()
	start := w.now()

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	err = w.execute(ctx, j)
	elapsed := w.now().Sub(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.prom.ObserveJob(j.Type, result, elapsed)
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.metrics.IncDone(j.Type)
	w.prom.ObserveJob(j.Type, "done", elapsed)
	w.log.InfoContext(ctx, "job.done", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "duration_ms", elapsed.Milliseconds())

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) (err error) {
	h, ok := w.handlers[j.Type]
	if !ok {
		return fmt.Errorf("%w: no handler for job type %q", ErrPermanent, j.Type)
	}

	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: handler panic: %v", ErrPermanent, r)
		}
	}()

	return h(runCtx, j)
}

// handleFailure reschedules with backoff, or dead-letters when the error is permanent
// or attempts are exhausted. It returns the result label for metrics.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) string {
	msg := cause.Error()

	permanent := errors.Is(cause, ErrPermanent) || jobs.Permanent(cause)

	if permanent || j.Attempts+1 >= j.MaxAttempts {
		w.metrics.IncDeadLettered(j.Type)
		w.log.ErrorContext(ctx, "job.dead_lettered", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "permanent", permanent, "err", msg)

		if err := w.repo.MarkFailed(ctx, j.ID, msg); err != nil {
			w.log.ErrorContext(ctx, "job.mark_failed_error", "job_id", j.ID, "err", err)
		}
		return "failed"
	}

	delay := ExponentialBackoff(j.Attempts)
	w.metrics.IncRetried(j.Type)
	w.log.WarnContext(ctx, "job.retry_scheduled", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts+1, "delay", delay.String(), "err", msg)

	if err := w.repo.Reschedule(ctx, j.ID, w.now().Add(delay), msg); err != nil {
		w.log.ErrorContext(ctx, "job.reschedule_error", "job_id", j.ID, "err", err)
	}
	return "retry"
}
