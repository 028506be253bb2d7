package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/i18n"
	"github.com/gin-gonic/gin"
)

func requestIDFrom(ctx *gin.Context) string {
	return middlewares.RequestIDFromContext(ctx)
}

// Message translates a response code into the negotiated language.
func Message(ctx *gin.Context, code string) string {
	return i18n.T(middlewares.LangFromContext(ctx), code)
}

func RespondError(ctx *gin.Context, status int, code string, details any) {
	ctx.AbortWithStatusJSON(status, middlewares.ErrorBody(ctx, code, details))
}

func RespondBadRequest(ctx *gin.Context, code string, details any) {
	RespondError(ctx, http.StatusBadRequest, code, details)
}

func RespondUnAuthorized(ctx *gin.Context, code string) {
	RespondError(ctx, http.StatusUnauthorized, code, nil)
}

func RespondForbidden(ctx *gin.Context, code string) {
	RespondError(ctx, http.StatusForbidden, code, nil)
}

func RespondNotFound(ctx *gin.Context, code string) {
	RespondError(ctx, http.StatusNotFound, code, nil)
}

func RespondConflict(ctx *gin.Context, code string) {
	RespondError(ctx, http.StatusConflict, code, nil)
}

// RespondInternal logs err with the request id and hides it from the client.
func RespondInternal(ctx *gin.Context, log *slog.Logger, op string, err error) {
	log.ErrorContext(ctx.Request.Context(), op, "err", err, "request_id", requestIDFrom(ctx))
	_ = ctx.Error(err)
	RespondError(ctx, http.StatusInternalServerError, "internal_error", nil)
}

// RespondMessage writes {"message": <translated code>} merged with extra fields.
func RespondMessage(ctx *gin.Context, status int, code string, extra gin.H) {
	body := gin.H{"message": Message(ctx, code)}
	for k, v := range extra {
		body[k] = v
	}
	ctx.JSON(status, body)
}
