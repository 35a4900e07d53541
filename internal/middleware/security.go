package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders returns Gin middleware that sets common security response
// headers. Responses under one of the cacheable prefixes (stored photos) may
// be cached privately; everything else is no-store.
func SecurityHeaders(cacheablePrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		c.Header("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

		cache := "no-store"

		for _, p := range cacheablePrefixes {
			if p != "" && strings.HasPrefix(c.Request.URL.Path, p) {
				cache = "private, max-age=86400, immutable"

				break
			}
		}

		c.Header("Cache-Control", cache)

		c.Next()
	}
}
