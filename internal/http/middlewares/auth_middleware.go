package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/tenderhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.require(false)
}

// RequireAuthOrQuery also accepts ?token=, for browser WebSocket clients that cannot set headers.
func (m *AuthMiddleware) RequireAuthOrQuery() gin.HandlerFunc {
	return m.require(true)
}

func (m *AuthMiddleware) require(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" && allowQuery {
			raw = strings.TrimSpace(c.Query("token"))
		}

		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid_token")
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, CtxUserID)
}

func RoleFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, CtxRole)
}

func stringFromContext(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
