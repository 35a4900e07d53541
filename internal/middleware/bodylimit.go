package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxBodySize returns middleware that limits request body size. Multipart
// requests carry photos and get their own, larger limit.
func MaxBodySize(jsonLimit, multipartLimit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			limit := jsonLimit
			if strings.HasPrefix(c.ContentType(), "multipart/") {
				limit = multipartLimit
			}

			if c.Request.ContentLength > limit {
				respondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")

				return
			}

			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}
