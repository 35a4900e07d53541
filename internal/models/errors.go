package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for entity lookups.
var (
	ErrApartmentNotFound       = errors.New("apartment not found")
	ErrAuditNotFound           = errors.New("audit not found")
	ErrAuditItemNotFound       = errors.New("audit item not found")
	ErrTemplateVersionNotFound = errors.New("template version not found")
	ErrResponseNotFound        = errors.New("audit response not found")
)

// Sentinel errors for engine rules.
var (
	ErrActiveAuditExists     = errors.New("apartment already has an audit in progress")
	ErrInvalidAuditStatus    = errors.New("invalid audit status for operation")
	ErrAlreadyAnswered       = errors.New("audit item already answered")
	ErrIncompleteAudit       = errors.New("audit has unanswered mandatory items")
	ErrNoApplicableQuestions = errors.New("no applicable questions for apartment")
	ErrInvalidAnswer         = errors.New("invalid answer")
)

// Sentinel errors for validation.
var (
	ErrValidation         = errors.New("validation failed")
	ErrMissingApartmentID = fmt.Errorf("%w: apartment_id is required", ErrValidation)
)

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%w: %s exceeds maximum length of %d", ErrValidation, field, maxLen)
}

// ActiveAuditConflictError is returned when an apartment already has an
// IN_PROGRESS audit. ExistingAuditID lets callers redirect to it.
type ActiveAuditConflictError struct {
	ApartmentID     int64
	ExistingAuditID int64
}

func (e *ActiveAuditConflictError) Error() string {
	return fmt.Sprintf("apartment %d already has audit %d in progress", e.ApartmentID, e.ExistingAuditID)
}

// Is matches ErrActiveAuditExists.
func (e *ActiveAuditConflictError) Is(target error) bool {
	return target == ErrActiveAuditExists
}

// InvalidAuditStatusError reports an operation attempted in the wrong state.
type InvalidAuditStatusError struct {
	AuditID   int64
	Status    AuditStatus
	Operation string
}

func (e *InvalidAuditStatusError) Error() string {
	return fmt.Sprintf("cannot %s audit %d in status %s", e.Operation, e.AuditID, e.Status)
}

// Is matches ErrInvalidAuditStatus.
func (e *InvalidAuditStatusError) Is(target error) bool {
	return target == ErrInvalidAuditStatus
}

// IncompleteAuditError reports how many mandatory items are still unanswered.
type IncompleteAuditError struct {
	AuditID int64
	Missing int
}

func (e *IncompleteAuditError) Error() string {
	return fmt.Sprintf("audit %d has %d unanswered mandatory items", e.AuditID, e.Missing)
}

// Is matches ErrIncompleteAudit.
func (e *IncompleteAuditError) Is(target error) bool {
	return target == ErrIncompleteAudit
}

// InvalidAnswerError wraps ErrInvalidAnswer with a reason.
func InvalidAnswerError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAnswer, fmt.Sprintf(format, args...))
}
