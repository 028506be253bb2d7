package handlers

import (
	"net/http"

	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/i18n"
	"github.com/gin-gonic/gin"
)

type MetaHandler struct {
	defaultLang string
}

func NewMetaHandler(defaultLang string) *MetaHandler {
	return &MetaHandler{defaultLang: defaultLang}
}

// GET /api/meta/app
func (h *MetaHandler) App(ctx *gin.Context) {
	RespondJSONWithETag(ctx, http.StatusOK, i18n.App(middlewares.LangFromContext(ctx), h.defaultLang))
}

// GET /api/meta/labels
func (h *MetaHandler) Labels(ctx *gin.Context) {
	RespondJSONWithETag(ctx, http.StatusOK, i18n.Labels(middlewares.LangFromContext(ctx)))
}
