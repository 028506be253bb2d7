package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/dashboard"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

type StatsReader interface {
	Stats(ctx context.Context) (dashboard.Stats, error)
}

type DashboardHandler struct {
	repo  StatsReader
	cache cache.Store
	ttl   time.Duration
	group singleflight.Group
	log   *slog.Logger
}

func NewDashboardHandler(repo StatsReader, store cache.Store, ttl time.Duration, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		repo:  repo,
		cache: store,
		ttl:   ttl,
		log:   log,
	}
}

// GET /api/admin/dashboard

func (h *DashboardHandler) Stats(ctx *gin.Context) {
	if s, ok := cache.GetJSON[dashboard.Stats](ctx.Request.Context(), h.cache, utils.DashboardStatsKey); ok {
		ctx.Header("X-Cache", "HIT")
		ctx.JSON(http.StatusOK, s)
		return
	}

	// concurrent misses share one aggregate query
	v, err, _ := h.group.Do(utils.DashboardStatsKey, func() (any, error) {
		cctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()

		s, err := h.repo.Stats(cctx)
		if err != nil {
			return nil, err
		}
		cache.SetJSON(cctx, h.cache, utils.DashboardStatsKey, s, h.ttl)
		return s, nil
	})
	if err != nil {
		RespondInternal(ctx, h.log, "dashboard.stats", err)
		return
	}

	ctx.Header("X-Cache", "MISS")
	ctx.JSON(http.StatusOK, v.(dashboard.Stats))
}
