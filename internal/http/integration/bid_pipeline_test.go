package integration_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/tenderhub/internal/jobs"
	"github.com/geocoder89/tenderhub/internal/notifications"
	"github.com/geocoder89/tenderhub/internal/queue/worker"
	"github.com/geocoder89/tenderhub/internal/repo/postgres"
)

func TestBidPipeline_SubmitQueuesReceiptAndWorkerDelivers(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	adminToken, _ := env.login(t, env.cfg.AdminEmail, env.cfg.AdminPassword)

	deadline := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)
	w, _ := env.do(http.MethodPost, "/api/projects",
		`{"title":"Courtroom repaint","description":"two halls","project_type":"maintenance","budget":9000,"deadline":"`+deadline+`"}`, adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create project got %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		ProjectID string `json:"project_id"`
	}
	mustReadJSON(t, w, &created)

	w, _ = env.do(http.MethodPost, "/api/auth/register",
		`{"username":"painter","email":"painter@example.com","password":"password123","company_name":"Painter SARL"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register got %d body=%s", w.Code, w.Body.String())
	}
	candToken, _ := env.login(t, "painter@example.com", "password123")

	bidBody := `{"proposed_amount":8500,"proposed_timeline":"4 weeks"}`
	w, _ = env.do(http.MethodPost, "/api/projects/"+created.ProjectID+"/bids", bidBody, candToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit bid got %d body=%s", w.Code, w.Body.String())
	}
	var submitted struct {
		BidID string `json:"bid_id"`
	}
	mustReadJSON(t, w, &submitted)

	w, _ = env.do(http.MethodPost, "/api/projects/"+created.ProjectID+"/bids", bidBody, candToken)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate bid got %d body=%s", w.Code, w.Body.String())
	}

	var bidCount int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bids WHERE project_id = $1`, created.ProjectID).Scan(&bidCount); err != nil {
		t.Fatalf("select project: %v", err)
	}
	if bidCount != 1 {
		t.Fatalf("bid_count=%d, want 1", bidCount)
	}

	// run the queued receipt through the worker
	jobsRepo := postgres.NewJobsRepo(env.pool, nil)
	notes := jobs.NewBidNotifications(
		postgres.NewBidsRepo(env.pool, nil, jobsRepo),
		postgres.NewNotificationDeliveriesRepo(env.pool, nil),
		notifications.NewLogNotifier(env.log, notifications.LogNotifierConfig{}),
		env.log,
	)

	wk := worker.New(worker.Config{
		PollInterval:  10 * time.Millisecond,
		WorkerID:      "test-worker",
		Concurrency:   1,
		ShutdownGrace: time.Second,
	}, jobsRepo, env.log, nil, nil)
	wk.Handle(jobs.JobBidSubmitted.String(), notes.HandleBidSubmitted)
	wk.Handle(jobs.JobBidStatusChanged.String(), notes.HandleBidStatusChanged)

	processed, err := wk.ProcessOne(ctx)
	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if !processed {
		t.Fatalf("expected a job to be processed")
	}

	var status string
	err = env.pool.QueryRow(ctx,
		`SELECT status FROM notification_deliveries WHERE kind = 'bid.receipt' AND bid_id = $1`, submitted.BidID).Scan(&status)
	if err != nil {
		t.Fatalf("select delivery: %v", err)
	}
	if status != "sent" {
		t.Fatalf("delivery status=%q, want sent", status)
	}

	// accepting the bid queues a status notice and leaves the project open
	w, _ = env.do(http.MethodPut, "/api/admin/bids/"+submitted.BidID+"/status", `{"status":"accepted"}`, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("update status got %d body=%s", w.Code, w.Body.String())
	}

	var projectStatus string
	if err := env.pool.QueryRow(ctx, `SELECT status FROM projects WHERE id = $1`, created.ProjectID).Scan(&projectStatus); err != nil {
		t.Fatalf("select project: %v", err)
	}
	if projectStatus != "open" {
		t.Fatalf("project status=%q, want open", projectStatus)
	}
}
