// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	RespondErrorWith(c, status, code, message, nil)
}

// RespondErrorWith is RespondError with extra body fields such as the id of a
// conflicting audit. Extra fields never override code, message or request_id.
func RespondErrorWith(c *gin.Context, status int, code, message string, extra map[string]any) {
	resp := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		resp[k] = v
	}

	resp["code"] = code
	resp["message"] = message

	if rid := c.GetString("request_id"); rid != "" {
		resp["request_id"] = rid
	}

	c.AbortWithStatusJSON(status, resp)
}
