package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/repo/postgres"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type AdminJobsRepo interface {
	ListCursor(ctx context.Context, status *string, limit int, after *utils.Cursor) (items []job.Job, nextCursor *string, err error)
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
	RetryManyFailed(ctx context.Context, limit int) (int64, error)
}

type AdminJobsHandler struct {
	repo AdminJobsRepo
	log  *slog.Logger
}

func NewAdminJobsHandler(repo AdminJobsRepo, log *slog.Logger) *AdminJobsHandler {
	return &AdminJobsHandler{
		repo: repo,
		log:  log,
	}
}

var jobStatuses = map[string]bool{
	string(job.StatusPending):    true,
	string(job.StatusProcessing): true,
	string(job.StatusDone):       true,
	string(job.StatusFailed):     true,
}

// GET /api/admin/jobs?status=failed&limit=50&cursor=

func (h *AdminJobsHandler) List(ctx *gin.Context) {
	limit := 20
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "limit", "min": 1, "max": 100})
			return
		}
		limit = n
	}

	var statusPtr *string
	if s := ctx.Query("status"); s != "" {
		if !jobStatuses[s] {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "status"})
			return
		}
		statusPtr = &s
	}

	var after *utils.Cursor
	if raw := ctx.Query("cursor"); raw != "" {
		cur, err := utils.DecodeCursor(raw)
		if err != nil {
			RespondBadRequest(ctx, "invalid_cursor", nil)
			return
		}
		after = &cur
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, next, err := h.repo.ListCursor(cctx, statusPtr, limit, after)
	if err != nil {
		RespondInternal(ctx, h.log, "jobs.list", err)
		return
	}
	if items == nil {
		items = []job.Job{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"limit":       limit,
		"count":       len(items),
		"items":       items,
		"has_more":    next != nil,
		"next_cursor": next,
	})
}

// GET /api/admin/jobs/:id

func (h *AdminJobsHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")
	ctx.Set(middlewares.CtxJobID, id)

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	j, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			RespondNotFound(ctx, "job_not_found")
			return
		}
		RespondInternal(ctx, h.log, "jobs.get", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, j)
}

// POST /api/admin/jobs/:id/retry

func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	id := ctx.Param("id")
	ctx.Set(middlewares.CtxJobID, id)

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.repo.Retry(cctx, id); err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			RespondNotFound(ctx, "job_not_found")
		case errors.Is(err, postgres.ErrJobNotFailed):
			RespondConflict(ctx, "job_not_failed")
		default:
			RespondInternal(ctx, h.log, "jobs.retry", err)
		}
		return
	}

	RespondMessage(ctx, http.StatusOK, "job_requeued", gin.H{
		"job_id": id,
		"status": job.StatusPending,
	})
}

// POST /api/admin/jobs/reprocess-dead?limit=50

func (h *AdminJobsHandler) ReprocessDead(ctx *gin.Context) {
	limit := 50

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "limit"})
			return
		}
		limit = n
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	n, err := h.repo.RetryManyFailed(cctx, limit)
	if err != nil {
		RespondInternal(ctx, h.log, "jobs.reprocess_dead", err)
		return
	}

	RespondMessage(ctx, http.StatusOK, "job_requeued", gin.H{"requeued": n})
}
