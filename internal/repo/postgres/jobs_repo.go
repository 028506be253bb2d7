package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrJobNotFailed = errors.New("job is not failed")

type JobsRepo struct {
	base
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{base{pool: pool, prom: prom}}
}

const insertJobSQL = `INSERT INTO jobs(
	id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error,
	idempotency_key, priority, user_id, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
)
ON CONFLICT (idempotency_key) DO NOTHING`

func insertJob(ctx context.Context, q querier, j job.Job) error {
	_, err := q.Exec(ctx, insertJobSQL,
		j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts, j.RunAt, j.LockedAt, j.LockedBy,
		j.LastError, j.IdempotencyKey, j.Priority, j.UserID, j.CreatedAt, j.UpdatedAt)
	return err
}

// CreateTx enqueues inside the caller's transaction so the job commits with the business row.
func (r *JobsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.observe("jobs.create_tx", func() error {
		return insertJob(ctx, tx, j)
	})
	if err != nil {
		return job.Job{}, err
	}
	return j, nil
}

const jobColumns = `id, type, payload, status, attempts, max_attempts, run_at, locked_at, locked_by,
	last_error, idempotency_key, priority, user_id, created_at, updated_at`

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	var status string

	err := row.Scan(
		&j.ID, &j.Type, &j.Payload, &status,
		&j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy,
		&j.LastError, &j.IdempotencyKey, &j.Priority, &j.UserID,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}
		return job.Job{}, err
	}

	j.Status = job.Status(status)
	return j, nil
}

// execOne runs a single-row update and maps zero affected rows to ErrJobNotFound.
func (r *JobsRepo) execOne(ctx context.Context, op, sql string, args ...any) error {
	return r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return job.ErrJobNotFound
		}
		return nil
	})
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.execOne(ctx, "jobs.mark_failed", `
		UPDATE jobs
		SET status = 'failed',
		    attempts = attempts + 1,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, id, errMsg)
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.execOne(ctx, "jobs.mark_done", `
		UPDATE jobs
		SET status = 'done',
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`, id)
}

// Reschedule puts a failed attempt back in the queue at runAt.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return r.execOne(ctx, "jobs.reschedule", `
		UPDATE jobs
		SET status = 'pending',
		    attempts = attempts + 1,
		    run_at = $2,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $3,
		    updated_at = NOW()
		WHERE id = $1
	`, id, runAt, errMsg)
}

// ClaimNext claims the next runnable job with a single SKIP LOCKED statement.
// ErrJobNotFound means the queue is empty.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job

	err := r.observe("jobs.claim_next", func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx, `
			WITH next AS (
				SELECT id
				FROM jobs
				WHERE status = 'pending'
				  AND run_at <= NOW()
				  AND attempts < max_attempts
				ORDER BY priority DESC, run_at ASC, created_at ASC
				FOR UPDATE SKIP LOCKED
				LIMIT 1
			)
			UPDATE jobs
			SET status = 'processing',
			    locked_at = NOW(),
			    locked_by = $1,
			    updated_at = NOW()
			WHERE id = (SELECT id FROM next)
			RETURNING `+jobColumns,
			workerID,
		))
		return err
	})

	return j, err
}

// RequeueStaleProcessing releases jobs whose lock is older than lockTTL, e.g. after a worker crash.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 30
	}

	var rows int64
	err := r.observe("jobs.requeue_stale", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    locked_at = NULL,
			    locked_by = NULL,
			    updated_at = NOW()
			WHERE status = 'processing'
			  AND locked_at IS NOT NULL
			  AND locked_at < NOW() - ($1 * INTERVAL '1 second')
		`, secs)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})

	return rows, err
}

// ListCursor pages jobs by (updated_at, id) descending.
func (r *JobsRepo) ListCursor(ctx context.Context, status *string, limit int, after *utils.Cursor) (items []job.Job, nextCursor *string, err error) {
	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPos))
		args = append(args, *status)
		argsPos++
	}

	if after != nil {
		conds = append(conds, fmt.Sprintf("(updated_at, id) < ($%d, $%d)", argsPos, argsPos+1))
		args = append(args, after.At, after.ID)
		argsPos += 2
	}

	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", argsPos)
	args = append(args, limit+1)

	items = make([]job.Job, 0, limit)

	err = r.observe("jobs.admin.list_cursor", func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			j, err := scanJob(rows)
			if err != nil {
				return err
			}
			items = append(items, j)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}

	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]

		cur, encErr := utils.EncodeCursor(last.UpdatedAt, last.ID)
		if encErr != nil {
			return nil, nil, encErr
		}
		nextCursor = &cur
	}

	return items, nextCursor, nil
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	err := r.observe("jobs.admin.get_by_id", func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
		return err
	})
	return j, err
}

// Retry requeues a single failed job. Jobs in any other state are left alone.
func (r *JobsRepo) Retry(ctx context.Context, id string) error {
	var status string

	err := r.observe("jobs.admin.retry.check_status", func() error {
		return r.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&status)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.ErrJobNotFound
		}
		return err
	}

	if status != string(job.StatusFailed) {
		return ErrJobNotFailed
	}

	return r.execOne(ctx, "jobs.admin.retry.requeue", `
		UPDATE jobs
		SET status = 'pending',
		    attempts = 0,
		    run_at = NOW(),
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'failed'
	`, id)
}

// RetryManyFailed requeues up to limit failed jobs, most recent first.
func (r *JobsRepo) RetryManyFailed(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var n int64
	err := r.observe("jobs.admin.retry_many_failed", func() error {
		tag, err := r.pool.Exec(ctx, `
			WITH picked AS (
				SELECT id
				FROM jobs
				WHERE status = 'failed'
				ORDER BY updated_at DESC
				LIMIT $1
			)
			UPDATE jobs
			SET status = 'pending',
			    attempts = 0,
			    run_at = NOW(),
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE id IN (SELECT id FROM picked)
		`, limit)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}
