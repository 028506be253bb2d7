package middlewares

import (
	"net/http"

	"github.com/geocoder89/tenderhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller holds one of roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		code := "forbidden"
		if len(roles) == 1 && roles[0] == user.RoleAdmin {
			code = "admin_required"
		}
		abortWithError(c, http.StatusForbidden, code)
	}
}
