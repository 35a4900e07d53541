package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/aptaudit/internal/httputil"
	"github.com/persistorai/aptaudit/internal/metrics"
)

// respondError counts the rejection and delegates to httputil.RespondError.
func respondError(c *gin.Context, code int, errCode, message string) {
	metrics.ErrorsTotal.WithLabelValues(errCode).Inc()
	httputil.RespondError(c, code, errCode, message)
}
