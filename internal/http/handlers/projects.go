package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/gin-gonic/gin"
)

const (
	defaultProjectsLimit = 50
	maxProjectsLimit     = 100
)

type ProjectsStore interface {
	Create(ctx context.Context, p project.Project) (project.Project, error)
	GetByID(ctx context.Context, id string) (project.Project, error)
	List(ctx context.Context, f project.ListFilter) (items []project.Project, total int, nextCursor *string, err error)
	Update(ctx context.Context, p project.Project) (project.Project, error)
	Delete(ctx context.Context, id string) ([]string, error)
}

// FileRemover deletes stored uploads by their relative path.
type FileRemover interface {
	Delete(ctx context.Context, relPath string) error
}

type ProjectsHandler struct {
	repo  ProjectsStore
	files FileRemover
	cache cache.Store
	feed  ws.Publisher
	log   *slog.Logger
}

func NewProjectsHandler(repo ProjectsStore, files FileRemover, store cache.Store, feed ws.Publisher, log *slog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		repo:  repo,
		files: files,
		cache: store,
		feed:  feed,
		log:   log,
	}
}

type projectsPage struct {
	Items      []project.Project `json:"items"`
	Total      int               `json:"total"`
	NextCursor *string           `json:"next_cursor"`
}

// GET /api/projects?status=&project_type=&q=&limit=&cursor=

func (h *ProjectsHandler) List(ctx *gin.Context) {
	filter, cursor, ok := parseProjectFilter(ctx)
	if !ok {
		return
	}

	key := utils.BuildProjectsListCacheKey(filter.Limit, filter.Status, filter.Type, filter.Query, cursor)

	page, hit := cache.GetJSON[projectsPage](ctx.Request.Context(), h.cache, key)
	if !hit {
		cctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()

		items, total, next, err := h.repo.List(cctx, filter)
		if err != nil {
			RespondInternal(ctx, h.log, "projects.list", err)
			return
		}

		page = projectsPage{Items: items, Total: total, NextCursor: next}
		cache.SetJSON(ctx.Request.Context(), h.cache, key, page, 0)
	}

	ctx.Header("X-Total-Count", strconv.Itoa(page.Total))
	if page.NextCursor != nil {
		ctx.Header("X-Next-Cursor", *page.NextCursor)
	}
	if hit {
		ctx.Header("X-Cache", "HIT")
	} else {
		ctx.Header("X-Cache", "MISS")
	}

	if page.Items == nil {
		page.Items = []project.Project{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, page.Items)
}

func parseProjectFilter(ctx *gin.Context) (project.ListFilter, string, bool) {
	f := project.ListFilter{Limit: defaultProjectsLimit}

	if s := strings.TrimSpace(ctx.Query("status")); s != "" {
		if !project.IsValidStatus(s) {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "status", "allowed": project.Statuses})
			return f, "", false
		}
		f.Status = &s
	}

	if t := strings.TrimSpace(ctx.Query("project_type")); t != "" {
		if !project.IsValidType(t) {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "project_type", "allowed": project.Types})
			return f, "", false
		}
		f.Type = &t
	}

	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		if len(q) > 200 {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "q", "rule": "max", "param": "200"})
			return f, "", false
		}
		f.Query = &q
	}

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxProjectsLimit {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "limit", "min": 1, "max": maxProjectsLimit})
			return f, "", false
		}
		f.Limit = n
	}

	cursor := ctx.Query("cursor")
	if cursor != "" {
		cur, err := utils.DecodeCursor(cursor)
		if err != nil {
			RespondBadRequest(ctx, "invalid_cursor", nil)
			return f, "", false
		}
		f.AfterCreatedAt = &cur.At
		f.AfterID = cur.ID
	}

	return f, cursor, true
}

// GET /api/projects/:id

func (h *ProjectsHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "project_not_found")
			return
		}
		RespondInternal(ctx, h.log, "projects.get", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

// POST /api/projects

func (h *ProjectsHandler) Create(ctx *gin.Context) {
	var req project.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, project.NewFromCreateRequest(req, userID))
	if err != nil {
		RespondInternal(ctx, h.log, "projects.create", err)
		return
	}

	cache.InvalidateListings(ctx.Request.Context(), h.cache)
	h.feed.Publish(ctx.Request.Context(), ws.NewEvent(ws.EventProjectCreated, p))

	RespondMessage(ctx, http.StatusCreated, "project_created", gin.H{
		"id":         p.ID,
		"project_id": p.ID,
		"project":    p,
	})
}

// PUT /api/projects/:id

func (h *ProjectsHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	var req project.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.IsEmpty() {
		RespondBadRequest(ctx, "no_fields", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "project_not_found")
			return
		}
		RespondInternal(ctx, h.log, "projects.update_load", err)
		return
	}

	if p.Apply(req) {
		p, err = h.repo.Update(cctx, p)
		if err != nil {
			if errors.Is(err, project.ErrNotFound) {
				RespondNotFound(ctx, "project_not_found")
				return
			}
			RespondInternal(ctx, h.log, "projects.update", err)
			return
		}

		cache.InvalidateListings(ctx.Request.Context(), h.cache)
		h.feed.Publish(ctx.Request.Context(), ws.NewEvent(ws.EventProjectUpdated, p))
	}

	RespondMessage(ctx, http.StatusOK, "project_updated", gin.H{"project": p})
}

// DELETE /api/projects/:id

func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	paths, err := h.repo.Delete(cctx, id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			RespondNotFound(ctx, "project_not_found")
			return
		}
		RespondInternal(ctx, h.log, "projects.delete", err)
		return
	}

	// rows are gone already; a file left behind is only logged
	for _, p := range paths {
		if err := h.files.Delete(cctx, p); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "delete stored document failed", "path", p, "err", err)
		}
	}

	cache.InvalidateListings(ctx.Request.Context(), h.cache)
	h.feed.Publish(ctx.Request.Context(), ws.NewEvent(ws.EventProjectDeleted, gin.H{"id": id}))

	RespondMessage(ctx, http.StatusOK, "project_deleted", gin.H{"id": id})
}
