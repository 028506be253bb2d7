package middlewares

import (
	"github.com/geocoder89/tenderhub/internal/i18n"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// ErrorBody builds the error envelope. The top-level message is what the dashboards display.
func ErrorBody(c *gin.Context, code string, details any) gin.H {
	msg := i18n.T(LangFromContext(c), code)

	return gin.H{
		"message": msg,
		"error": APIError{
			Code:      code,
			Message:   msg,
			RequestID: RequestIDFromContext(c),
			Details:   details,
		},
	}
}

func abortWithError(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, ErrorBody(c, code, nil))
}

func RequestIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.GetHeader(requestIDHeader)
}
