package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/bid"
	"github.com/geocoder89/tenderhub/internal/domain/candidate"
	"github.com/geocoder89/tenderhub/internal/domain/document"
	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/jobs"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/gin-gonic/gin"
)

// notification jobs give up after this many attempts
const notifyMaxAttempts = 10

type BidsStore interface {
	Submit(ctx context.Context, b bid.Bid, docs []document.Document, notify *job.CreateRequest) error
	GetView(ctx context.Context, id string) (bid.View, error)
	List(ctx context.Context, f bid.ListFilter) ([]bid.View, error)
	UpdateStatus(ctx context.Context, id string, req bid.UpdateStatusRequest, notify *job.CreateRequest) (bid.View, error)
}

type CandidateLookup interface {
	GetCandidateByUserID(ctx context.Context, userID string) (candidate.Candidate, error)
}

type ProjectReader interface {
	GetByID(ctx context.Context, id string) (project.Project, error)
}

type BidsHandler struct {
	bids       BidsStore
	projects   ProjectReader
	candidates CandidateLookup
	files      DocumentStorage
	cache      cache.Store
	feed       ws.Publisher
	prom       *observability.Prom
	log        *slog.Logger
	now        func() time.Time
}

func NewBidsHandler(bids BidsStore, projects ProjectReader, candidates CandidateLookup, files DocumentStorage, store cache.Store, feed ws.Publisher, prom *observability.Prom, log *slog.Logger) *BidsHandler {
	return &BidsHandler{
		bids:       bids,
		projects:   projects,
		candidates: candidates,
		files:      files,
		cache:      store,
		feed:       feed,
		prom:       prom,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// proposal files the submission form may attach, keyed by form field
var proposalFields = []string{document.TypeTechnicalProposal, document.TypeFinancialProposal}

// POST /api/projects/:id/bids

func (h *BidsHandler) Submit(ctx *gin.Context) {
	outcome := observability.SubmitError
	defer func() { h.prom.BidSubmitted(outcome) }()

	projectID := ctx.Param("id")
	if !utils.IsUUID(projectID) {
		outcome = observability.SubmitInvalid
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	cand, err := h.candidates.GetCandidateByUserID(cctx, userID)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			outcome = observability.SubmitNoCandidate
			RespondNotFound(ctx, "candidate_not_found")
			return
		}
		RespondInternal(ctx, h.log, "bids.submit_candidate", err)
		return
	}

	multipartBody := strings.HasPrefix(strings.ToLower(ctx.GetHeader("Content-Type")), "multipart/form-data")

	var req bid.SubmitRequest
	var bound bool
	if multipartBody {
		bound = BindForm(ctx, &req)
	} else {
		bound = BindJSON(ctx, &req)
	}
	if !bound {
		outcome = observability.SubmitInvalid
		return
	}

	// fail fast before any file is written; Submit re-checks under a row lock
	p, err := h.projects.GetByID(cctx, projectID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			outcome = observability.SubmitProjectNotFound
			RespondNotFound(ctx, "project_not_found")
			return
		}
		RespondInternal(ctx, h.log, "bids.submit_project", err)
		return
	}
	if p.Status != project.StatusOpen {
		outcome = observability.SubmitProjectNotOpen
		RespondBadRequest(ctx, "project_not_open", nil)
		return
	}
	if !p.IsOpenForBids(h.now()) {
		outcome = observability.SubmitDeadlinePassed
		RespondBadRequest(ctx, "deadline_passed", nil)
		return
	}

	req.ProjectID = projectID
	req.CandidateID = cand.ID
	b := bid.NewFromSubmitRequest(req)

	var docs []document.Document
	if multipartBody {
		for _, field := range proposalFields {
			doc, ok, code, err := h.saveFormFile(ctx, cctx, b.ID, field, field)
			if err != nil {
				h.discard(cctx, docs)
				RespondInternal(ctx, h.log, "bids.submit_store_file", err)
				return
			}
			if code != "" {
				h.discard(cctx, docs)
				outcome = observability.SubmitDocumentRejected
				RespondBadRequest(ctx, code, gin.H{"field": field})
				return
			}
			if ok {
				docs = append(docs, doc)
			}
		}
	}

	notify, err := bidSubmittedJob(b, userID, requestIDFrom(ctx))
	if err != nil {
		h.discard(cctx, docs)
		RespondInternal(ctx, h.log, "bids.submit_encode_job", err)
		return
	}

	if err := h.bids.Submit(cctx, b, docs, notify); err != nil {
		h.discard(cctx, docs)

		switch {
		case errors.Is(err, project.ErrNotFound):
			outcome = observability.SubmitProjectNotFound
			RespondNotFound(ctx, "project_not_found")
		case errors.Is(err, bid.ErrProjectNotOpen):
			outcome = observability.SubmitProjectNotOpen
			RespondBadRequest(ctx, "project_not_open", nil)
		case errors.Is(err, bid.ErrDeadlinePassed):
			outcome = observability.SubmitDeadlinePassed
			RespondBadRequest(ctx, "deadline_passed", nil)
		case errors.Is(err, bid.ErrAlreadySubmitted):
			outcome = observability.SubmitDuplicate
			RespondConflict(ctx, "bid_already_submitted")
		default:
			RespondInternal(ctx, h.log, "bids.submit", err)
		}
		return
	}
	outcome = observability.SubmitAccepted

	view, err := h.bids.GetView(cctx, b.ID)
	if err != nil {
		RespondInternal(ctx, h.log, "bids.submit_reload", err)
		return
	}

	cache.InvalidateListings(ctx.Request.Context(), h.cache)
	h.feed.Publish(ctx.Request.Context(), ws.NewEvent(ws.EventBidSubmitted, view))

	h.log.InfoContext(ctx.Request.Context(), "bid submitted",
		"bid_id", b.ID, "project_id", projectID, "candidate_id", cand.ID, "documents", len(docs))

	RespondMessage(ctx, http.StatusCreated, "bid_submitted", gin.H{
		"bid_id": b.ID,
		"bid":    view,
	})
}

// saveFormFile stores the optional upload in field. ok is false when the field is absent;
// code is the response code of a rejected file and err a storage failure.
func (h *BidsHandler) saveFormFile(ctx *gin.Context, cctx context.Context, bidID, field, docType string) (doc document.Document, ok bool, code string, err error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return document.Document{}, false, "", nil
		}
		h.prom.UploadRejected("file_required")
		return document.Document{}, false, "file_required", nil
	}

	stored, err := saveUpload(cctx, h.files, bidID, fh)
	if err != nil {
		c := uploadErrorCode(err)
		if c == "internal_error" {
			return document.Document{}, false, "", err
		}
		h.prom.UploadRejected(c)
		return document.Document{}, false, c, nil
	}

	return document.New(bidID, docType, stored.FileName, stored.RelPath, stored.ContentType, stored.Size), true, "", nil
}

func (h *BidsHandler) discard(ctx context.Context, docs []document.Document) {
	for _, d := range docs {
		if err := h.files.Delete(ctx, d.FilePath); err != nil {
			h.log.WarnContext(ctx, "discard upload failed", "path", d.FilePath, "err", err)
		}
	}
}

func bidSubmittedJob(b bid.Bid, userID, requestID string) (*job.CreateRequest, error) {
	raw, err := jobs.EncodePayload(jobs.JobBidSubmitted, jobs.BidSubmittedPayload{
		BidID:       b.ID,
		ProjectID:   b.ProjectID,
		CandidateID: b.CandidateID,
		RequestedAt: b.SubmittedAt,
		RequestID:   requestID,
	})
	if err != nil {
		return nil, err
	}

	key := jobs.BidSubmittedKey(b.ID)
	return &job.CreateRequest{
		Type:           jobs.JobBidSubmitted.String(),
		Payload:        raw,
		MaxAttempts:    notifyMaxAttempts,
		IdempotencyKey: &key,
		UserID:         &userID,
	}, nil
}

func bidStatusChangedJob(bidID, status, adminID string, at time.Time, requestID string) (*job.CreateRequest, error) {
	raw, err := jobs.EncodePayload(jobs.JobBidStatusChanged, jobs.BidStatusChangedPayload{
		BidID:     bidID,
		Status:    status,
		ChangedBy: adminID,
		ChangedAt: at,
		RequestID: requestID,
	})
	if err != nil {
		return nil, err
	}

	key := jobs.BidStatusChangedKey(bidID, status)
	return &job.CreateRequest{
		Type:           jobs.JobBidStatusChanged.String(),
		Payload:        raw,
		MaxAttempts:    notifyMaxAttempts,
		IdempotencyKey: &key,
		UserID:         &adminID,
	}, nil
}

// GET /api/bids/mine

func (h *BidsHandler) Mine(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	cand, err := h.candidates.GetCandidateByUserID(cctx, userID)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			ctx.JSON(http.StatusOK, []bid.View{})
			return
		}
		RespondInternal(ctx, h.log, "bids.mine_candidate", err)
		return
	}

	views, err := h.bids.List(cctx, bid.ListFilter{CandidateID: &cand.ID})
	if err != nil {
		RespondInternal(ctx, h.log, "bids.mine", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, nonNilViews(views))
}

// GET /api/bids/:id

func (h *BidsHandler) Get(ctx *gin.Context) {
	view, ok := h.loadAuthorized(ctx, ctx.Param("id"))
	if !ok {
		return
	}
	RespondJSONWithETag(ctx, http.StatusOK, view)
}

// GET /api/admin/bids?project_id=&status=

func (h *BidsHandler) AdminList(ctx *gin.Context) {
	var f bid.ListFilter

	if pid := strings.TrimSpace(ctx.Query("project_id")); pid != "" {
		if !utils.IsUUID(pid) {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "project_id"})
			return
		}
		f.ProjectID = &pid
	}
	if s := strings.TrimSpace(ctx.Query("status")); s != "" {
		if !bid.IsValidStatus(s) {
			RespondBadRequest(ctx, "invalid_filter", gin.H{"field": "status", "allowed": bid.Statuses})
			return
		}
		f.Status = &s
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	views, err := h.bids.List(cctx, f)
	if err != nil {
		RespondInternal(ctx, h.log, "bids.admin_list", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, nonNilViews(views))
}

// PUT /api/admin/bids/:id/status

func (h *BidsHandler) UpdateStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	var req bid.UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	adminID, _ := middlewares.UserIDFromContext(ctx)

	// candidates hear about decisions only, not intermediate review states
	var notify *job.CreateRequest
	if bid.IsDecision(req.Status) {
		var err error
		notify, err = bidStatusChangedJob(id, req.Status, adminID, h.now(), requestIDFrom(ctx))
		if err != nil {
			RespondInternal(ctx, h.log, "bids.status_encode_job", err)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	view, err := h.bids.UpdateStatus(cctx, id, req, notify)
	if err != nil {
		if errors.Is(err, bid.ErrNotFound) {
			RespondNotFound(ctx, "bid_not_found")
			return
		}
		RespondInternal(ctx, h.log, "bids.update_status", err)
		return
	}

	cache.InvalidateListings(ctx.Request.Context(), h.cache)
	h.feed.Publish(ctx.Request.Context(), ws.NewEvent(ws.EventBidStatusChanged, view))

	RespondMessage(ctx, http.StatusOK, "bid_status_updated", gin.H{"bid": view})
}

// loadAuthorized fetches a bid the caller may see: admins see all, candidates their own.
// It writes the error response itself and reports false when the request must stop.
func (h *BidsHandler) loadAuthorized(ctx *gin.Context, id string) (bid.View, bool) {
	return loadAuthorizedBid(ctx, h.bids, h.log, id)
}

func loadAuthorizedBid(ctx *gin.Context, bids BidViewer, log *slog.Logger, id string) (bid.View, bool) {
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return bid.View{}, false
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	view, err := bids.GetView(cctx, id)
	if err != nil {
		if errors.Is(err, bid.ErrNotFound) {
			RespondNotFound(ctx, "bid_not_found")
			return bid.View{}, false
		}
		RespondInternal(ctx, log, "bids.get", err)
		return bid.View{}, false
	}

	if !canAccessBid(ctx, view) {
		RespondForbidden(ctx, "forbidden")
		return bid.View{}, false
	}

	return view, true
}

func canAccessBid(ctx *gin.Context, view bid.View) bool {
	role, _ := middlewares.RoleFromContext(ctx)
	if role == user.RoleAdmin {
		return true
	}
	userID, _ := middlewares.UserIDFromContext(ctx)
	return userID != "" && view.CandidateUser == userID
}

func nonNilViews(v []bid.View) []bid.View {
	if v == nil {
		return []bid.View{}
	}
	return v
}
