package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"

	clientRequestIDKey = "client_request_id"
	maxClientIDLen     = 128
)

// RequestID always generates a fresh server-side UUID for the canonical request ID.
// A client-supplied X-Request-ID is kept as "client_request_id" for correlation
// but never becomes the canonical ID.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" && len(clientID) <= maxClientIDLen {
			log.WithFields(logrus.Fields{
				"request_id":        id,
				"client_request_id": clientID,
			}).Debug("client request id mapped")
			c.Set(clientRequestIDKey, clientID)
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// LogFields returns the correlation fields of the current request for logging.
func LogFields(c *gin.Context) logrus.Fields {
	fields := logrus.Fields{}

	if rid := c.GetString(RequestIDKey); rid != "" {
		fields["request_id"] = rid
	}

	if cid := c.GetString(clientRequestIDKey); cid != "" {
		fields["client_request_id"] = cid
	}

	if actor := ActorFrom(c); actor != "" {
		fields["actor"] = actor
	}

	return fields
}
