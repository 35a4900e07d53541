package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/middleware"
	"github.com/persistorai/aptaudit/internal/ws"
)

// wsHandler upgrades GET /audits/:id/ws to a WebSocket that streams changes
// of one audit. The audit must exist.
func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, query AuditQueryService, corsOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auditID, ok := pathID(c, "id")
		if !ok {
			return
		}

		if _, err := query.GetAudit(c.Request.Context(), auditID); err != nil {
			respondEngineError(c, log, err, "failed to load audit")
			return
		}

		// CORS origins are reused as WebSocket origin patterns. The config
		// validator ensures these are safe host patterns (no wildcards etc.).
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithFields(middleware.LogFields(c)).WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn, auditID)
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := middleware.LogFields(c)
		fields["method"] = c.Request.Method
		fields["path"] = c.Request.URL.Path
		fields["status"] = c.Writer.Status()
		fields["duration"] = time.Since(start).String()
		fields["client"] = c.ClientIP()

		entry := log.WithFields(fields)

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// maxPaginationLimit caps the maximum number of items per page.
const maxPaginationLimit = 1000

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 100000

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}

// parseID parses a positive int64 entity id.
func parseID(s string) (int64, bool) {
	if s == "" || len(s) > 19 {
		return 0, false
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	return v, true
}

// pathID reads the named path parameter as an entity id, responding 400 when
// it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, ok := parseID(c.Param(name))
	if !ok {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, name+" must be a positive integer")
	}

	return id, ok
}
