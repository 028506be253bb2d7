package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/tenderhub/internal/auth"
	"github.com/geocoder89/tenderhub/internal/config"
	"github.com/geocoder89/tenderhub/internal/domain/candidate"
	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/geocoder89/tenderhub/internal/http/middlewares"
	"github.com/geocoder89/tenderhub/internal/repo/postgres"
	"github.com/geocoder89/tenderhub/internal/security"
	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	RegisterCandidate(ctx context.Context, req candidate.RegisterRequest, passwordHash string) (user.User, candidate.Candidate, error)
	GetCandidateByUserID(ctx context.Context, userID string) (candidate.Candidate, error)
}

type RefreshTokenStore interface {
	Create(ctx context.Context, row postgres.RefreshTokenRow) error
	Rotate(ctx context.Context, oldID, oldHash string, next postgres.RefreshTokenRow) error
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type AuthHandler struct {
	users        UserStore
	jwt          *auth.Manager
	refreshStore RefreshTokenStore
	cfg          config.Config
	log          *slog.Logger
}

func NewAuthHandler(users UserStore, jwtManager *auth.Manager, refreshStore RefreshTokenStore, cfg config.Config, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		jwt:          jwtManager,
		refreshStore: refreshStore,
		cfg:          cfg,
		log:          log,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/register

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req candidate.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.CompanyName = strings.TrimSpace(req.CompanyName)

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, h.log, "auth.hash_password", err)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, _, err := h.users.RegisterCandidate(cctx, req, hash)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondBadRequest(ctx, "email_taken", gin.H{"field": "email"})
		case errors.Is(err, user.ErrUsernameTaken):
			RespondBadRequest(ctx, "username_taken", gin.H{"field": "username"})
		default:
			RespondInternal(ctx, h.log, "auth.register", err)
		}
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "candidate registered", "user_id", u.ID)

	RespondMessage(ctx, http.StatusCreated, "registered", gin.H{
		"user": u.Public(),
	})
}

// POST /api/auth/login

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, h.log, "auth.login_lookup", err)
			return
		}
		RespondUnAuthorized(ctx, "invalid_credentials")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials")
		return
	}

	if !found.IsActive {
		RespondForbidden(ctx, "account_disabled")
		return
	}

	accessToken, err := h.issueSession(ctx, cctx, found)
	if err != nil {
		RespondInternal(ctx, h.log, "auth.issue_session", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(h.jwt.AccessTTL().Seconds()),
		"user":         found.Public(),
	})
}

// POST /api/auth/refresh

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)
	if err != nil || raw == "" {
		RespondUnAuthorized(ctx, "invalid_refresh")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		h.clearRefreshCookie(ctx)
		RespondUnAuthorized(ctx, "invalid_refresh")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, claims.UserID)
	if err != nil || !u.IsActive {
		h.clearRefreshCookie(ctx)
		RespondUnAuthorized(ctx, "invalid_refresh")
		return
	}

	nextRaw, nextJTI, expiresAt, err := h.jwt.GenerateRefreshToken(u.ID, u.Email, u.Role)
	if err != nil {
		RespondInternal(ctx, h.log, "auth.generate_refresh", err)
		return
	}

	next := postgres.RefreshTokenRow{
		ID:        nextJTI,
		UserID:    u.ID,
		TokenHash: h.jwt.HashRefreshToken(nextRaw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refreshStore.Rotate(cctx, claims.JTI, h.jwt.HashRefreshToken(raw), next)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrRefreshTokenInvalid):
			// a revoked token being replayed: end every session of that user
			if rerr := h.refreshStore.RevokeAllForUser(cctx, u.ID); rerr != nil {
				h.log.WarnContext(ctx.Request.Context(), "revoke all sessions failed", "user_id", u.ID, "err", rerr)
			}
			fallthrough
		case errors.Is(err, postgres.ErrRefreshTokenNotFound):
			h.clearRefreshCookie(ctx)
			RespondUnAuthorized(ctx, "invalid_refresh")
		default:
			RespondInternal(ctx, h.log, "auth.rotate_refresh", err)
		}
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		RespondInternal(ctx, h.log, "auth.generate_access", err)
		return
	}

	h.setRefreshCookie(ctx, nextRaw, expiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(h.jwt.AccessTTL().Seconds()),
	})
}

// POST /api/auth/logout

func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)
	if err == nil && raw != "" {
		if claims, err := h.jwt.VerifyRefreshToken(raw); err == nil {
			cctx, cancel := config.WithTimeout(3 * time.Second)
			defer cancel()

			// idempotent
			if err := h.refreshStore.Revoke(cctx, claims.JTI); err != nil {
				h.log.WarnContext(ctx.Request.Context(), "revoke refresh token failed", "err", err)
			}
		}
	}

	h.clearRefreshCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

// GET /api/auth/me

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "invalid_token")
			return
		}
		RespondInternal(ctx, h.log, "auth.me", err)
		return
	}

	resp := gin.H{"user": u.Public()}

	if u.Role == user.RoleCandidate {
		c, err := h.users.GetCandidateByUserID(cctx, u.ID)
		switch {
		case err == nil:
			resp["candidate"] = c
		case errors.Is(err, candidate.ErrNotFound):
			resp["candidate"] = nil
		default:
			RespondInternal(ctx, h.log, "auth.me_candidate", err)
			return
		}
	}

	ctx.JSON(http.StatusOK, resp)
}

// Helper functions

func (h *AuthHandler) issueSession(ctx *gin.Context, cctx context.Context, u user.User) (string, error) {
	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return "", err
	}

	rawRefresh, jti, expiresAt, err := h.jwt.GenerateRefreshToken(u.ID, u.Email, u.Role)
	if err != nil {
		return "", err
	}

	row := postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    u.ID,
		TokenHash: h.jwt.HashRefreshToken(rawRefresh),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.refreshStore.Create(cctx, row); err != nil {
		return "", err
	}

	h.setRefreshCookie(ctx, rawRefresh, expiresAt)
	return accessToken, nil
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		refreshCookieName,
		raw,
		maxAge,
		"/api/auth",
		"",
		h.cfg.IsProd(),
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, "", -1, "/api/auth", "", h.cfg.IsProd(), true)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
