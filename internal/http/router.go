package http

import (
	"log/slog"

	"github.com/geocoder89/tenderhub/internal/auth"
	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/http/handlers"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the API needs. Optional parts (Prom, Metrics, Hub, RateLimiter)
// may be nil; the matching middleware or route is then left out.
type Deps struct {
	Cfg         config.Config
	Log         *slog.Logger
	ServiceName string

	Prom    *observability.Prom
	Metrics prometheus.Gatherer

	JWT           *auth.Manager
	Users         handlers.UserStore
	RefreshTokens handlers.RefreshTokenStore
	Projects      handlers.ProjectsStore
	Bids          handlers.BidsStore
	Documents     handlers.DocumentsStore
	Dashboard     handlers.StatsReader
	Jobs          handlers.AdminJobsRepo
	Files         handlers.DocumentStorage

	Cache       cache.Store
	Feed        ws.Publisher
	Hub         *ws.Hub
	RateLimiter *limiter.Limiter
	Checks      map[string]handlers.Check
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" && d.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.HTTPMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	r.Use(middlewares.Locale(d.Cfg.DefaultLanguage))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes()))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "not_found")
	})

	feed := d.Feed
	if feed == nil {
		feed = ws.NopPublisher{}
	}
	store := d.Cache
	if store == nil {
		store = cache.New(0)
	}

	// platform routes
	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.JWT)
	requireAuth := authMW.RequireAuth()
	adminOnly := authMW.RequireRole(user.RoleAdmin)
	candidateOnly := authMW.RequireRole(user.RoleCandidate)
	jsonOnly := middlewares.RequireJSON(false)
	jsonOrUpload := middlewares.RequireJSON(true)

	authH := handlers.NewAuthHandler(d.Users, d.JWT, d.RefreshTokens, d.Cfg, d.Log)
	projectsH := handlers.NewProjectsHandler(d.Projects, d.Files, store, feed, d.Log)
	bidsH := handlers.NewBidsHandler(d.Bids, d.Projects, d.Users, d.Files, store, feed, d.Prom, d.Log)
	docsH := handlers.NewDocumentsHandler(d.Documents, d.Bids, d.Files, store, d.Prom, d.Log)
	dashH := handlers.NewDashboardHandler(d.Dashboard, store, d.Cfg.StatsCacheTTL(), d.Log)
	jobsH := handlers.NewAdminJobsHandler(d.Jobs, d.Log)
	metaH := handlers.NewMetaHandler(d.Cfg.DefaultLanguage)

	api := r.Group("/api")
	api.GET("/health", health.API)

	meta := api.Group("/meta")
	meta.GET("/app", metaH.App)
	meta.GET("/labels", metaH.Labels)

	authGroup := api.Group("/auth")
	if d.RateLimiter != nil {
		authGroup.Use(middlewares.RateLimit(d.RateLimiter, middlewares.KeyByIP, d.Log))
	}
	authGroup.POST("/register", jsonOnly, authH.Register)
	authGroup.POST("/login", jsonOnly, authH.Login)
	authGroup.POST("/refresh", authH.Refresh)
	authGroup.POST("/logout", authH.Logout)
	authGroup.GET("/me", requireAuth, authH.Me)

	// public catalogue
	api.GET("/projects", projectsH.List)
	api.GET("/projects/:id", projectsH.Get)

	api.POST("/projects", requireAuth, adminOnly, jsonOnly, projectsH.Create)
	api.PUT("/projects/:id", requireAuth, adminOnly, jsonOnly, projectsH.Update)
	api.DELETE("/projects/:id", requireAuth, adminOnly, projectsH.Delete)

	// uploads are limited per caller, after auth so the key is the user id
	var uploadLimit gin.HandlerFunc = func(ctx *gin.Context) { ctx.Next() }
	if d.RateLimiter != nil {
		uploadLimit = middlewares.RateLimit(d.RateLimiter, middlewares.KeyByUserOrIP, d.Log)
	}

	api.POST("/projects/:id/bids", requireAuth, candidateOnly, uploadLimit, jsonOrUpload, bidsH.Submit)

	bids := api.Group("/bids", requireAuth)
	bids.GET("/mine", candidateOnly, bidsH.Mine)
	bids.GET("/:id", bidsH.Get)
	bids.GET("/:id/documents", docsH.ListByBid)
	bids.POST("/:id/documents", candidateOnly, uploadLimit, jsonOrUpload, docsH.Upload)

	api.GET("/documents/:id/download", requireAuth, docsH.Download)

	// the feed authenticates with ?token= since browsers cannot set headers on upgrade
	if d.Hub != nil {
		feedH := handlers.NewFeedHandler(d.Hub, d.Cfg.CORSOrigins, d.Log)
		api.GET("/admin/ws", authMW.RequireAuthOrQuery(), adminOnly, feedH.Serve)
	}

	admin := api.Group("/admin", requireAuth, adminOnly)
	admin.GET("/dashboard", dashH.Stats)
	admin.GET("/bids", bidsH.AdminList)
	admin.PUT("/bids/:id/status", jsonOnly, bidsH.UpdateStatus)
	admin.PUT("/documents/:id/verify", jsonOnly, docsH.Verify)

	admin.GET("/jobs", jobsH.List)
	admin.GET("/jobs/:id", jobsH.GetByID)
	admin.POST("/jobs/:id/retry", jobsH.Retry)
	admin.POST("/jobs/reprocess-dead", jobsH.ReprocessDead)

	return r
}
