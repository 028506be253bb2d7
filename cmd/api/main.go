package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/tenderhub/internal/auth"
	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/db"
	httpx "github.com/geocoder89/tenderhub/internal/http"
	"github.com/geocoder89/tenderhub/internal/http/handlers"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/geocoder89/tenderhub/internal/redisclient"
	"github.com/geocoder89/tenderhub/internal/repo/postgres"
	"github.com/geocoder89/tenderhub/internal/storage"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const serviceName = "tenderhub-api"

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.Env, cfg.OTELEndpoint)
	if err != nil {
		log.Warn("tracing disabled", "err", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	pool, err := db.NewPool(ctx, cfg.DBURL, 20)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	if created, err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	} else if created {
		log.Info("bootstrap admin created", "email", cfg.AdminEmail)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	files, err := storage.NewDocumentStore(cfg.UploadDir, cfg.MaxUploadBytes())
	if err != nil {
		log.Error("upload dir unavailable", "err", err)
		os.Exit(1)
	}

	checks := map[string]handlers.Check{
		"postgres": pool.Ping,
	}

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var (
		store cache.Store  = cache.New(30 * time.Second)
		feed  ws.Publisher = hub
	)

	rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})

	if rc != nil {
		defer rc.Close()

		pctx, cancel := config.WithTimeout(2 * time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn("redis unreachable at start, continuing", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		checks["redis"] = rc.Ping
		store = cache.NewRedis(rc.Raw(), cache.Namespace, 30*time.Second, log)

		relay := ws.NewRedisRelay(rc.Raw(), log)
		feed = relay
		go func() {
			if err := relay.Forward(ctx, hub); err != nil {
				log.Error("feed relay stopped", "err", err)
			}
		}()
	}

	limiter, err := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute, rawRedis(rc), log)
	if err != nil {
		log.Error("rate limiter setup failed", "err", err)
		os.Exit(1)
	}

	jobsRepo := postgres.NewJobsRepo(pool, prom)
	usersRepo := postgres.NewUsersRepo(pool, prom)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:           cfg,
		Log:           log,
		ServiceName:   serviceName,
		Prom:          prom,
		Metrics:       reg,
		JWT:           auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Users:         usersRepo,
		RefreshTokens: postgres.NewRefreshTokensRepo(pool, prom),
		Projects:      postgres.NewProjectsRepo(pool, prom),
		Bids:          postgres.NewBidsRepo(pool, prom, jobsRepo),
		Documents:     postgres.NewDocumentsRepo(pool, prom),
		Dashboard:     postgres.NewDashboardRepo(pool, prom),
		Jobs:          jobsRepo,
		Files:         files,
		Cache:         store,
		Feed:          feed,
		Hub:           hub,
		RateLimiter:   limiter,
		Checks:        checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second, // multipart uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}

func rawRedis(rc *redisclient.Client) *redis.Client {
	if rc == nil {
		return nil
	}
	return rc.Raw()
}
