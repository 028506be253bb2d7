package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/db"
	"github.com/geocoder89/tenderhub/internal/jobs"
	"github.com/geocoder89/tenderhub/internal/notifications"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/geocoder89/tenderhub/internal/queue/worker"
	"github.com/geocoder89/tenderhub/internal/redisclient"
	"github.com/geocoder89/tenderhub/internal/repo/postgres"
	"github.com/geocoder89/tenderhub/internal/scheduler"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const serviceName = "tenderhub-worker"

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env, serviceName)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL, 10)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	bidsRepo := postgres.NewBidsRepo(pool, prom, jobsRepo)
	projectsRepo := postgres.NewProjectsRepo(pool, prom)
	deliveriesRepo := postgres.NewNotificationDeliveriesRepo(pool, prom)

	// without Redis the API keeps a process-local cache this worker cannot reach
	var (
		feed     ws.Publisher = ws.NopPublisher{}
		listings cache.Store
	)
	if rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}); rc != nil {
		defer rc.Close()
		feed = ws.NewRedisRelay(rc.Raw(), log)
		listings = cache.NewRedis(rc.Raw(), cache.Namespace, 30*time.Second, log)
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log, notifications.LogNotifierConfig{}),
		notifications.ProtectedNotifierConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 3,
			Cooldown:         15 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)
	bidNotes := jobs.NewBidNotifications(bidsRepo, deliveriesRepo, notifier, log)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  250 * time.Millisecond,
		WorkerID:      workerID,
		Concurrency:   cfg.WorkerConcurrency,
		ShutdownGrace: 10 * time.Second,
		JobTimeout:    30 * time.Second,
	}, jobsRepo, log, nil, prom)

	w.Handle(jobs.JobBidSubmitted.String(), bidNotes.HandleBidSubmitted)
	w.Handle(jobs.JobBidStatusChanged.String(), bidNotes.HandleBidStatusChanged)

	sched := scheduler.New(scheduler.Config{
		DeadlineSweepSpec: cfg.DeadlineSweepSpec,
	}, projectsRepo, jobsRepo, log)
	sched.Listings = listings
	sched.Metrics = prom
	sched.OnExpired = func(ids []string) {
		feed.Publish(context.Background(), ws.NewEvent(ws.EventProjectsExpired, map[string]any{
			"project_ids": ids,
			"count":       len(ids),
		}))
	}

	healthSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler: w.HealthHandler(pool, reg, func() gin.H {
			return gin.H{"notifier_state": notifier.State()}
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("worker has started", "worker_id", workerID, "concurrency", cfg.WorkerConcurrency)
		return w.Run(gctx)
	})

	g.Go(func() error {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		log.Info("worker health server listening", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		return healthSrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped with error", "err", err)
	}

	log.Info("worker shutdown complete")
}
