package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check is one readiness dependency. A nil Check is skipped.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
}

// create a new instance of the health handler
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// GET /api/health is what the front-end polls.
func (h *HealthHandler) API(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	results := gin.H{}
	ready := true

	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check(cctx); err != nil {
			ready = false
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": results})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
}
