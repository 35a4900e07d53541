package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a structured error response from the aptaudit API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`

	// ExistingAuditID is set when a start conflicts with an audit in progress.
	ExistingAuditID int64 `json:"existing_audit_id,omitempty"`
	// Missing is the number of unanswered mandatory items on a failed completion.
	Missing int `json:"missing,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("aptaudit: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("aptaudit: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func statusIs(err error, status int) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == status
}

// IsNotFound returns true if the error is a 404 not found.
func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

// IsConflict returns true if the error is a 409 conflict: an audit already in
// progress, a wrong audit status, or an item already answered.
func IsConflict(err error) bool { return statusIs(err, http.StatusConflict) }

// IsIncomplete returns true if completion was refused for unanswered mandatory items.
func IsIncomplete(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Code == "incomplete_audit"
}

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool { return statusIs(err, http.StatusTooManyRequests) }

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
