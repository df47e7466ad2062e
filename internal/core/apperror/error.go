// Package apperror provides structured error handling for the batch engine.
// All business errors must use AppError for consistent classification and,
// on the read surface, consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following the engine's error taxonomy
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Caller contract violations (422)
	CodeBusinessRule       = "BUSINESS_RULE_VIOLATION"
	CodeSnapshotNotCleared = "SNAPSHOT_NOT_CLEARED"
	CodePhaseOrder         = "PHASE_ORDER_VIOLATION"
	CodeValidationBlocked  = "VALIDATION_BLOCKED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the engine.
// It implements the error interface and provides structured details.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (job date, phase, counts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code for the read surface
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewSnapshotNotCleared is returned when an aggregation phase is re-invoked
// without an intervening clear of the daily area. Proceeding would
// double-count daily totals.
func NewSnapshotNotCleared(jobDate, phase string) *AppError {
	return &AppError{
		Code:       CodeSnapshotNotCleared,
		Message:    "snapshot daily area was not cleared before re-aggregation",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"job_date": jobDate, "phase": phase},
	}
}

// NewPhaseOrder is returned when a phase is invoked before its prerequisite
// phases have completed for the job date.
func NewPhaseOrder(jobDate, phase, requires string) *AppError {
	return &AppError{
		Code:       CodePhaseOrder,
		Message:    fmt.Sprintf("phase %s requires %s to have completed", phase, requires),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"job_date": jobDate, "phase": phase, "requires": requires},
	}
}

// NewValidationBlocked is returned when a report read is refused because the
// snapshot still carries Error-severity validation issues.
func NewValidationBlocked(jobDate string, errorCount int, byRule map[string]int) *AppError {
	return &AppError{
		Code:       CodeValidationBlocked,
		Message:    fmt.Sprintf("snapshot has %d outstanding validation errors", errorCount),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"job_date":    jobDate,
			"error_count": errorCount,
			"by_rule":     byRule,
		},
	}
}

// NewInternal creates an internal error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDatabase wraps a backing-store failure with phase context so the caller
// can retry the failed phase.
func NewDatabase(jobDate, phase string, err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    fmt.Sprintf("phase %s failed against the backing store", phase),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"job_date": jobDate, "phase": phase},
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsValidationBlocked checks if error is CodeValidationBlocked
func IsValidationBlocked(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeValidationBlocked
	}
	return false
}

// IsStateMisuse checks if error is a caller contract violation
// (uncleared snapshot or phase-order breach).
func IsStateMisuse(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeSnapshotNotCleared || appErr.Code == CodePhaseOrder
	}
	return false
}
