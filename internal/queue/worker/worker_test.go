package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/jobs"
)

type fakeRepo struct {
	mu          sync.Mutex
	queue       []job.Job
	done        []string
	failed      map[string]string
	rescheduled map[string]time.Time
}

func newFakeRepo(js ...job.Job) *fakeRepo {
	return &fakeRepo{
		queue:       js,
		failed:      map[string]string{},
		rescheduled: map[string]time.Time{},
	}
}

func (f *fakeRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return job.Job{}, job.ErrJobNotFound
	}
	j := f.queue[0]
	f.queue = f.queue[1:]
	j.Status = job.StatusProcessing
	return j, nil
}

func (f *fakeRepo) MarkDone(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, id)
	return nil
}

func (f *fakeRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = errMsg
	return nil
}

func (f *fakeRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescheduled[id] = runAt
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJob(id, typ string, attempts, max int) job.Job {
	j := job.New(job.CreateRequest{Type: typ, Payload: []byte(`{}`), MaxAttempts: max})
	j.ID = id
	j.Attempts = attempts
	return j
}

func TestProcessOne_EmptyQueue(t *testing.T) {
	w := New(Config{WorkerID: "w1"}, newFakeRepo(), testLogger(), nil, nil)

	processed, err := w.ProcessOne(context.Background())
	if err != nil || processed {
		t.Fatalf("expected (false, nil), got (%v, %v)", processed, err)
	}
}

func TestProcessOne_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		job         job.Job
		handlerErr  error
		wantDone    bool
		wantFailed  bool
		wantRetried bool
	}{
		{name: "success", job: newJob("j1", "bid.submitted", 0, 5), wantDone: true},
		{name: "transient error retries", job: newJob("j2", "bid.submitted", 0, 5), handlerErr: errors.New("smtp timeout"), wantRetried: true},
		{name: "last attempt dead letters", job: newJob("j3", "bid.submitted", 4, 5), handlerErr: errors.New("smtp timeout"), wantFailed: true},
		{name: "permanent error dead letters", job: newJob("j4", "bid.submitted", 0, 5), handlerErr: jobs.ErrInvalidJobPayload, wantFailed: true},
		{name: "unknown type dead letters", job: newJob("j5", "unknown.type", 0, 5), wantFailed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(tt.job)
			w := New(Config{WorkerID: "w1"}, repo, testLogger(), nil, nil)
			w.Handle("bid.submitted", func(ctx context.Context, j job.Job) error { return tt.handlerErr })

			processed, err := w.ProcessOne(context.Background())
			if err != nil || !processed {
				t.Fatalf("expected (true, nil), got (%v, %v)", processed, err)
			}

			if got := len(repo.done) == 1; got != tt.wantDone {
				t.Fatalf("done=%v, want %v", got, tt.wantDone)
			}
			if _, got := repo.failed[tt.job.ID]; got != tt.wantFailed {
				t.Fatalf("failed=%v, want %v", got, tt.wantFailed)
			}
			if _, got := repo.rescheduled[tt.job.ID]; got != tt.wantRetried {
				t.Fatalf("retried=%v, want %v", got, tt.wantRetried)
			}
		})
	}
}

func TestProcessOne_HandlerPanicIsPermanent(t *testing.T) {
	repo := newFakeRepo(newJob("j1", "bid.submitted", 0, 5))
	w := New(Config{WorkerID: "w1"}, repo, testLogger(), nil, nil)
	w.Handle("bid.submitted", func(ctx context.Context, j job.Job) error { panic("boom") })

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.failed["j1"]; !ok {
		t.Fatalf("panicking job should be dead-lettered")
	}
	if s := w.Metrics().Snapshot(); s.DeadLettered != 1 || s.Claimed != 1 {
		t.Fatalf("unexpected metrics %+v", s)
	}
}

func TestRun_DrainsAndStops(t *testing.T) {
	repo := newFakeRepo(newJob("j1", "bid.submitted", 0, 5), newJob("j2", "bid.submitted", 0, 5))
	w := New(Config{WorkerID: "w1", PollInterval: 5 * time.Millisecond, Concurrency: 2}, repo, testLogger(), nil, nil)

	var mu sync.Mutex
	seen := 0
	w.Handle("bid.submitted", func(ctx context.Context, j job.Job) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := seen
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("jobs not processed in time, seen=%d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	if !w.IsReady() {
		t.Fatalf("worker should report ready while running")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if w.IsReady() {
		t.Fatalf("worker should not be ready after shutdown")
	}
}

func TestExponentialBackoff(t *testing.T) {
	if d := ExponentialBackoff(0); d < 2*time.Second || d >= 2*time.Second+250*time.Millisecond {
		t.Fatalf("attempt 0 delay out of range: %s", d)
	}
	if d := ExponentialBackoff(2); d < 8*time.Second || d >= 8*time.Second+250*time.Millisecond {
		t.Fatalf("attempt 2 delay out of range: %s", d)
	}
	if d := ExponentialBackoff(50); d < 5*time.Minute || d >= 5*time.Minute+250*time.Millisecond {
		t.Fatalf("delay should be capped: %s", d)
	}
}
