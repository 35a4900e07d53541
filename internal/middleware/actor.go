package middleware

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
)

const (
	// ActorKey is the gin context key for the caller-supplied actor.
	ActorKey = "actor"

	// ActorHeader identifies the person or system performing a request.
	ActorHeader = "X-Actor"

	maxActorLen = 255
)

// Actor stores the X-Actor header in the gin context. A missing header leaves
// the actor empty and the engine substitutes its default. There is no
// authentication: the value is recorded as given.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))

		if len(actor) > maxActorLen {
			respondError(c, http.StatusBadRequest, "invalid_request", "X-Actor exceeds maximum length of 255")

			return
		}

		if strings.IndexFunc(actor, unicode.IsControl) >= 0 {
			respondError(c, http.StatusBadRequest, "invalid_request", "X-Actor contains control characters")

			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor recorded by Actor, or "".
func ActorFrom(c *gin.Context) string {
	return c.GetString(ActorKey)
}
