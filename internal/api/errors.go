package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/httputil"
	"github.com/persistorai/aptaudit/internal/metrics"
	"github.com/persistorai/aptaudit/internal/middleware"
	"github.com/persistorai/aptaudit/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternalError    = "internal_error"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeValidationError  = "validation_error"
	ErrCodeInvalidAnswer    = "invalid_answer"
	ErrCodeActiveAudit      = "active_audit_exists"
	ErrCodeInvalidStatus    = "invalid_audit_status"
	ErrCodeAlreadyAnswered  = "already_answered"
	ErrCodeIncompleteAudit  = "incomplete_audit"
	ErrCodeNoApplicable     = "no_applicable_questions"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeUnsupportedMedia = "unsupported_media_type"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

func respondErrorWith(c *gin.Context, status int, code, message string, extra map[string]any) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondErrorWith(c, status, code, message, extra)
}

// respondEngineError maps an engine or query error onto an HTTP response.
// Unrecognized errors are logged and reported as 500 with msg.
func respondEngineError(c *gin.Context, log *logrus.Logger, err error, msg string) {
	var (
		conflict   *models.ActiveAuditConflictError
		badStatus  *models.InvalidAuditStatusError
		incomplete *models.IncompleteAuditError
	)

	switch {
	case errors.Is(err, models.ErrAuditNotFound),
		errors.Is(err, models.ErrApartmentNotFound),
		errors.Is(err, models.ErrAuditItemNotFound),
		errors.Is(err, models.ErrTemplateVersionNotFound),
		errors.Is(err, models.ErrResponseNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.As(err, &conflict):
		respondErrorWith(c, http.StatusConflict, ErrCodeActiveAudit, err.Error(), map[string]any{
			"existing_audit_id": conflict.ExistingAuditID,
		})
	case errors.Is(err, models.ErrActiveAuditExists):
		respondError(c, http.StatusConflict, ErrCodeActiveAudit, err.Error())
	case errors.As(err, &badStatus):
		respondErrorWith(c, http.StatusConflict, ErrCodeInvalidStatus, err.Error(), map[string]any{
			"status": badStatus.Status,
		})
	case errors.Is(err, models.ErrAlreadyAnswered):
		respondError(c, http.StatusConflict, ErrCodeAlreadyAnswered, err.Error())
	case errors.As(err, &incomplete):
		respondErrorWith(c, http.StatusUnprocessableEntity, ErrCodeIncompleteAudit, err.Error(), map[string]any{
			"missing": incomplete.Missing,
		})
	case errors.Is(err, models.ErrNoApplicableQuestions):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeNoApplicable, err.Error())
	case errors.Is(err, models.ErrInvalidAnswer):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidAnswer, err.Error())
	case errors.Is(err, models.ErrValidation):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	default:
		log.WithFields(middleware.LogFields(c)).WithError(err).Error(msg)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, msg)
	}
}
