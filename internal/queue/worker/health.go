package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and in-process job counters for the worker process.
// When metrics is non-nil its collectors are exposed at /metrics for scraping.
func (w *Worker) HealthHandler(db Pinger, metrics prometheus.Gatherer, extra func() gin.H) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// readiness: polling loops are running and the database answers
	r.GET("/readyz", func(c *gin.Context) {
		if !w.IsReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})))
	}

	r.GET("/stats", func(c *gin.Context) {
		s := w.metrics.Snapshot()
		body := gin.H{
			"worker_id":       w.cfg.WorkerID,
			"claimed":         s.Claimed,
			"done":            s.Done,
			"failed":          s.Failed,
			"retried":         s.Retried,
			"dead_lettered":   s.DeadLettered,
			"duration_count":  s.DurationCount,
			"avg_duration_ms": s.AverageDuration.Milliseconds(),
			"max_duration_ms": s.MaxDuration.Milliseconds(),
			"by_type":         s.ByType,
		}
		if extra != nil {
			for k, v := range extra() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})

	return r
}
