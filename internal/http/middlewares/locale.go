package middlewares

import (
	"github.com/geocoder89/tenderhub/internal/i18n"
	"github.com/gin-gonic/gin"
)

// Locale negotiates the response language from ?lang= and Accept-Language.
func Locale(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18n.Negotiate(c.Query("lang"), c.GetHeader("Accept-Language"), defaultLang)

		c.Set(CtxLang, lang)
		c.Header("Content-Language", lang)
		c.Next()
	}
}

func LangFromContext(c *gin.Context) string {
	if v, ok := c.Get(CtxLang); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return i18n.Arabic
}
