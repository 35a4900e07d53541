package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/middleware"
	"github.com/persistorai/aptaudit/internal/models"
)

const defaultRetentionDays = 90

// ActivityHandler serves activity log endpoints.
type ActivityHandler struct {
	repo ActivityRepository
	log  *logrus.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(repo ActivityRepository, log *logrus.Logger) *ActivityHandler {
	return &ActivityHandler{repo: repo, log: log}
}

// Query handles GET /api/v1/activity.
func (h *ActivityHandler) Query(c *gin.Context) {
	opts := models.ActivityQueryOpts{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Action:     c.Query("action"),
		Limit:      parseInt(c.Query("limit"), 50),
		Offset:     parseOffset(c.Query("offset")),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}
		opts.Since = &t
	}

	entries, hasMore, err := h.repo.QueryActivity(c.Request.Context(), opts)
	if err != nil {
		h.log.WithFields(middleware.LogFields(c)).WithError(err).Error("failed to query activity log")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to query activity log")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     entries,
		"has_more": hasMore,
	})
}

// Purge handles DELETE /api/v1/activity.
func (h *ActivityHandler) Purge(c *gin.Context) {
	retentionDays := defaultRetentionDays
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")
			return
		}
		retentionDays = v
	}

	deleted, err := h.repo.PurgeOldEntries(c.Request.Context(), retentionDays)
	if err != nil {
		h.log.WithFields(middleware.LogFields(c)).WithError(err).Error("failed to purge activity entries")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to purge activity entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}
