package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/middleware"
	"github.com/persistorai/aptaudit/internal/models"
)

// AuditHandler serves audit lifecycle and read endpoints.
type AuditHandler struct {
	lifecycle AuditLifecycle
	query     AuditQueryService
	log       *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(lifecycle AuditLifecycle, query AuditQueryService, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{lifecycle: lifecycle, query: query, log: log}
}

// Start handles POST /api/v1/audits.
func (h *AuditHandler) Start(c *gin.Context) {
	var req models.StartAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	req.Actor = middleware.ActorFrom(c)

	detail, err := h.lifecycle.StartAudit(c.Request.Context(), req)
	if err != nil {
		respondEngineError(c, h.log, err, "failed to start audit")
		return
	}

	c.JSON(http.StatusCreated, detail)
}

// Get handles GET /api/v1/audits/:id. The id may be the numeric id or the
// public UUID.
func (h *AuditHandler) Get(c *gin.Context) {
	raw := c.Param("id")

	var (
		detail *models.AuditDetail
		err    error
	)

	if id, ok := parseID(raw); ok {
		detail, err = h.query.GetAudit(c.Request.Context(), id)
	} else if u, perr := uuid.Parse(raw); perr == nil {
		detail, err = h.query.GetAuditByUUID(c.Request.Context(), u.String())
	} else {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "id must be a positive integer or a UUID")
		return
	}

	if err != nil {
		respondEngineError(c, h.log, err, "failed to get audit")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ListByApartment handles GET /api/v1/apartments/:id/audits.
func (h *AuditHandler) ListByApartment(c *gin.Context) {
	apartmentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	status := models.AuditStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid status filter")
		return
	}

	audits, hasMore, err := h.query.ListAudits(
		c.Request.Context(), apartmentID, status,
		parseInt(c.Query("limit"), 50), parseOffset(c.Query("offset")),
	)
	if err != nil {
		respondEngineError(c, h.log, err, "failed to list audits")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     audits,
		"has_more": hasMore,
	})
}

// Complete handles POST /api/v1/audits/:id/complete.
func (h *AuditHandler) Complete(c *gin.Context) {
	auditID, ok := pathID(c, "id")
	if !ok {
		return
	}

	audit, err := h.lifecycle.CompleteAudit(c.Request.Context(), auditID, middleware.ActorFrom(c))
	if err != nil {
		respondEngineError(c, h.log, err, "failed to complete audit")
		return
	}

	c.JSON(http.StatusOK, audit)
}

// Cancel handles POST /api/v1/audits/:id/cancel. The body is optional.
func (h *AuditHandler) Cancel(c *gin.Context) {
	auditID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.CancelAuditRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
			return
		}
	}

	if err := req.Validate(); err != nil {
		respondEngineError(c, h.log, err, "failed to cancel audit")
		return
	}

	audit, err := h.lifecycle.CancelAudit(c.Request.Context(), auditID, middleware.ActorFrom(c), req.Reason)
	if err != nil {
		respondEngineError(c, h.log, err, "failed to cancel audit")
		return
	}

	c.JSON(http.StatusOK, audit)
}

// Summary handles GET /api/v1/audits/:id/summary.
func (h *AuditHandler) Summary(c *gin.Context) {
	auditID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.query.Summary(c.Request.Context(), auditID)
	if err != nil {
		respondEngineError(c, h.log, err, "failed to summarize audit")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Incidences handles GET /api/v1/audits/:id/incidences.
func (h *AuditHandler) Incidences(c *gin.Context) {
	auditID, ok := pathID(c, "id")
	if !ok {
		return
	}

	incidences, err := h.query.ListIncidences(c.Request.Context(), auditID)
	if err != nil {
		respondEngineError(c, h.log, err, "failed to list incidences")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": incidences})
}

// History handles GET /api/v1/audits/:id/history.
func (h *AuditHandler) History(c *gin.Context) {
	auditID, ok := pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.query.ListStatusHistory(c.Request.Context(), auditID)
	if err != nil {
		respondEngineError(c, h.log, err, "failed to list status history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
