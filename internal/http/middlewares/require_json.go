package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON guards write routes. Multipart is accepted where uploads are allowed,
// and bodiless requests (logout, retry) pass through.
func RequireJSON(allowMultipart bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}

			ct := strings.ToLower(c.GetHeader("Content-Type"))
			// allow "application/json; charset=utf-8"
			if strings.HasPrefix(ct, "application/json") {
				break
			}
			if allowMultipart && strings.HasPrefix(ct, "multipart/form-data") {
				break
			}

			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type")
			return
		}
		c.Next()
	}
}
