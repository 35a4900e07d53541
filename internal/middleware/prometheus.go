package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/aptaudit/internal/metrics"
)

// PrometheusMiddleware records HTTP request duration and count. WebSocket
// upgrades are counted but not timed since they live for the whole session.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())

		// Route pattern, not the raw path, keeps audit ids out of label values.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			return
		}

		metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
