package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/tenderhub/internal/cache"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/bid"
	"github.com/geocoder89/tenderhub/internal/domain/document"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/geocoder89/tenderhub/internal/storage"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type BidViewer interface {
	GetView(ctx context.Context, id string) (bid.View, error)
}

type DocumentsStore interface {
	Create(ctx context.Context, d document.Document) (document.Document, error)
	GetByID(ctx context.Context, id string) (document.Document, error)
	ListByBid(ctx context.Context, bidID string) ([]document.Document, error)
	Verify(ctx context.Context, id string, req document.VerifyRequest) (document.Document, error)
}

// DocumentStorage is the file side of a document: bytes on disk, rows elsewhere.
type DocumentStorage interface {
	Save(ctx context.Context, bidID, originalName string, r io.Reader) (storage.Stored, error)
	Path(relPath string) (string, error)
	Delete(ctx context.Context, relPath string) error
}

type DocumentsHandler struct {
	docs  DocumentsStore
	bids  BidViewer
	files DocumentStorage
	cache cache.Store
	prom  *observability.Prom
	log   *slog.Logger
}

func NewDocumentsHandler(docs DocumentsStore, bids BidViewer, files DocumentStorage, store cache.Store, prom *observability.Prom, log *slog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		docs:  docs,
		bids:  bids,
		files: files,
		cache: store,
		prom:  prom,
		log:   log,
	}
}

// POST /api/bids/:id/documents

func (h *DocumentsHandler) Upload(ctx *gin.Context) {
	view, ok := loadAuthorizedBid(ctx, h.bids, h.log, ctx.Param("id"))
	if !ok {
		return
	}

	// uploads belong to the bidder; admins only read
	userID, _ := middlewares.UserIDFromContext(ctx)
	if view.CandidateUser != userID {
		RespondForbidden(ctx, "forbidden")
		return
	}

	docType := strings.TrimSpace(ctx.PostForm("document_type"))
	if docType == "" {
		docType = document.TypeOther
	}
	if !document.IsValidType(docType) {
		h.prom.UploadRejected("invalid_document_type")
		RespondBadRequest(ctx, "invalid_document_type", gin.H{"allowed": document.Types})
		return
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.prom.UploadRejected("payload_too_large")
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", nil)
			return
		}
		h.prom.UploadRejected("file_required")
		RespondBadRequest(ctx, "file_required", gin.H{"field": "file"})
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	stored, err := saveUpload(cctx, h.files, view.ID, fh)
	if err != nil {
		code := uploadErrorCode(err)
		if code == "internal_error" {
			RespondInternal(ctx, h.log, "documents.save_file", err)
			return
		}
		h.prom.UploadRejected(code)
		RespondBadRequest(ctx, code, gin.H{"field": "file"})
		return
	}

	doc, err := h.docs.Create(cctx, document.New(view.ID, docType, stored.FileName, stored.RelPath, stored.ContentType, stored.Size))
	if err != nil {
		if derr := h.files.Delete(cctx, stored.RelPath); derr != nil {
			h.log.WarnContext(ctx.Request.Context(), "discard upload failed", "path", stored.RelPath, "err", derr)
		}
		RespondInternal(ctx, h.log, "documents.create", err)
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "document uploaded",
		"document_id", doc.ID, "bid_id", view.ID, "type", docType, "size", doc.FileSize)

	RespondMessage(ctx, http.StatusCreated, "document_uploaded", gin.H{"document": doc})
}

// GET /api/bids/:id/documents

func (h *DocumentsHandler) ListByBid(ctx *gin.Context) {
	view, ok := loadAuthorizedBid(ctx, h.bids, h.log, ctx.Param("id"))
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	docs, err := h.docs.ListByBid(cctx, view.ID)
	if err != nil {
		RespondInternal(ctx, h.log, "documents.list", err)
		return
	}
	if docs == nil {
		docs = []document.Document{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, docs)
}

// GET /api/documents/:id/download

func (h *DocumentsHandler) Download(ctx *gin.Context) {
	doc, ok := h.loadDocument(ctx)
	if !ok {
		return
	}

	if _, ok := loadAuthorizedBid(ctx, h.bids, h.log, doc.BidID); !ok {
		return
	}

	path, err := h.files.Path(doc.FilePath)
	if err != nil {
		RespondInternal(ctx, h.log, "documents.resolve_path", err)
		return
	}

	ctx.Header("Content-Type", doc.ContentType)
	ctx.Header("Cache-Control", "private, no-store")
	ctx.FileAttachment(path, doc.FileName)
}

// PUT /api/admin/documents/:id/verify

func (h *DocumentsHandler) Verify(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return
	}

	var req document.VerifyRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	doc, err := h.docs.Verify(cctx, id, req)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			RespondNotFound(ctx, "document_not_found")
			return
		}
		RespondInternal(ctx, h.log, "documents.verify", err)
		return
	}

	cache.InvalidateListings(ctx.Request.Context(), h.cache)

	RespondMessage(ctx, http.StatusOK, "document_verified", gin.H{"document": doc})
}

func (h *DocumentsHandler) loadDocument(ctx *gin.Context) (document.Document, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", nil)
		return document.Document{}, false
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	doc, err := h.docs.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			RespondNotFound(ctx, "document_not_found")
			return document.Document{}, false
		}
		RespondInternal(ctx, h.log, "documents.get", err)
		return document.Document{}, false
	}
	return doc, true
}

func saveUpload(ctx context.Context, files DocumentStorage, bidID string, fh *multipart.FileHeader) (storage.Stored, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Stored{}, err
	}
	defer f.Close()

	return files.Save(ctx, bidID, fh.Filename, f)
}

// uploadErrorCode maps a rejected upload to its response code.
func uploadErrorCode(err error) string {
	switch {
	case errors.Is(err, document.ErrEmpty):
		return "file_empty"
	case errors.Is(err, document.ErrTooLarge):
		return "file_too_large"
	case errors.Is(err, document.ErrUnsupportedType):
		return "unsupported_file_type"
	default:
		return "internal_error"
	}
}
