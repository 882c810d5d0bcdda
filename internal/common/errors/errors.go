// Package errors provides the standardized error taxonomy for the activities service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Roster errors
const (
	ErrCodeActivityNotFound  ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"
	ErrCodeNotRegistered     ErrorCode = "NOT_REGISTERED"
	ErrCodeActivityFull      ErrorCode = "ACTIVITY_FULL"
)

// Request / infrastructure errors
const (
	ErrCodeMissingParameter       ErrorCode = "MISSING_PARAMETER"
	ErrCodeRouteNotFound          ErrorCode = "ROUTE_NOT_FOUND"
	ErrCodeMethodNotAllowed       ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeRegistryLoadFailed     ErrorCode = "REGISTRY_LOAD_FAILED"
	ErrCodeRegistryInvalid        ErrorCode = "REGISTRY_INVALID"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// Detail messages surfaced to HTTP clients.
const (
	MsgActivityNotFound  = "Activity not found"
	MsgAlreadyRegistered = "Student is already signed up for this activity"
	MsgNotRegistered     = "Student is not signed up for this activity"
	MsgActivityFull      = "Activity is full"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so callers can write
// errors.Is(err, ErrActivityNotFound).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrActivityNotFound  = &StandardError{Code: ErrCodeActivityNotFound, Message: MsgActivityNotFound}
	ErrAlreadyRegistered = &StandardError{Code: ErrCodeAlreadyRegistered, Message: MsgAlreadyRegistered}
	ErrNotRegistered     = &StandardError{Code: ErrCodeNotRegistered, Message: MsgNotRegistered}
	ErrActivityFull      = &StandardError{Code: ErrCodeActivityFull, Message: MsgActivityFull}

	ErrNotificationSendFailed = &StandardError{Code: ErrCodeNotificationSendFailed, Message: "Notification delivery failed"}
)

// ==========================
// 2. Error Constructors
// ==========================

// NewActivityNotFoundError reports an unknown activity name.
func NewActivityNotFoundError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   MsgActivityNotFound,
		Details:   fmt.Sprintf("activity: %s", activity),
		Metadata:  map[string]interface{}{"activity": activity},
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadyRegisteredError reports a duplicate signup.
func NewAlreadyRegisteredError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadyRegistered,
		Message:   MsgAlreadyRegistered,
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Metadata:  map[string]interface{}{"activity": activity, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotRegisteredError reports an unregister for an absent participant.
func NewNotRegisteredError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotRegistered,
		Message:   MsgNotRegistered,
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Metadata:  map[string]interface{}{"activity": activity, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewActivityFullError reports a signup rejected by capacity enforcement.
func NewActivityFullError(activity string, capacity int) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityFull,
		Message:   MsgActivityFull,
		Details:   fmt.Sprintf("activity: %s, max_participants: %d", activity, capacity),
		Metadata:  map[string]interface{}{"activity": activity, "maxParticipants": capacity},
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingParameterError reports a required query parameter that was absent or empty.
func NewMissingParameterError(param string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingParameter,
		Message:   fmt.Sprintf("%s query parameter is required", param),
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryLoadFailedError wraps an I/O or decode failure on the seed file.
func NewRegistryLoadFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryLoadFailed,
		Message:   "Activity registry could not be loaded",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRegistryInvalidError reports a seed file that failed validation.
func NewRegistryInvalidError(problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInvalid,
		Message:   "Activity registry is invalid",
		Details:   strings.Join(problems, "; "),
		Metadata:  map[string]interface{}{"problems": problems},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError wraps a roster notification delivery failure.
func NewNotificationSendFailedError(notifier string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("notifier: %s, error: %s", notifier, err.Error()),
		Metadata:  map[string]interface{}{"notifier": notifier},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal Server Error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Classification
// ==========================

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error code to the HTTP status the API returns for it.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeActivityNotFound, ErrCodeRouteNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyRegistered, ErrCodeNotRegistered, ErrCodeActivityFull:
		return http.StatusBadRequest
	case ErrCodeMissingParameter:
		return http.StatusUnprocessableEntity
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REGISTERED") || strings.Contains(codeStr, "FULL"):
		return "ROSTER"
	case strings.Contains(codeStr, "NOT_FOUND") || strings.Contains(codeStr, "NOT_ALLOWED"):
		return "LOOKUP"
	case strings.Contains(codeStr, "PARAMETER"):
		return "VALIDATION"
	case strings.Contains(codeStr, "REGISTRY"):
		return "REGISTRY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
