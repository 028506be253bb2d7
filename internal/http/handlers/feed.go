package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type FeedHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewFeedHandler accepts upgrades from the configured front-end origins and from
// clients that send no Origin header at all.
func NewFeedHandler(hub *ws.Hub, allowedOrigins []string, log *slog.Logger) *FeedHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log: log,
	}
}

// GET /api/admin/ws?token=

func (h *FeedHandler) Serve(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.log.WarnContext(ctx.Request.Context(), "ws upgrade failed", "err", err)
		return
	}

	userID, _ := middlewares.UserIDFromContext(ctx)
	h.log.InfoContext(ctx.Request.Context(), "admin feed connected", "user_id", userID)

	ws.NewClient(conn, h.hub, userID).Serve()

	h.log.InfoContext(ctx.Request.Context(), "admin feed disconnected", "user_id", userID)
}
