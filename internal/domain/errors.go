package domain

import (
	"errors"
	"fmt"
)

// AppError is an application-level error carrying a stable code and an
// optional cause. Codes are what transports switch on; messages are for
// humans and logs.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AppError.
func NewError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Error codes.
const (
	ErrCodeSessionIDInvalid = "SESSION_ID_INVALID"
	ErrCodeMessageInvalid   = "MESSAGE_INVALID"
	ErrCodeFeedbackInvalid  = "FEEDBACK_INVALID"
	ErrCodeSessionNotFound  = "SESSION_NOT_FOUND"

	ErrCodeNoAIService         = "AI_NOT_CONFIGURED"
	ErrCodeAIInvalidCredential = "AI_INVALID_CREDENTIALS"
	ErrCodeAIPermissionDenied  = "AI_PERMISSION_DENIED"
	ErrCodeAIQuotaExceeded     = "AI_QUOTA_EXCEEDED"
	ErrCodeAINetwork           = "AI_NETWORK_UNAVAILABLE"
	ErrCodeAIUnknown           = "AI_UNKNOWN"

	ErrCodeTrackerNotConfigured = "TRACKER_NOT_CONFIGURED"
	ErrCodeTracker              = "TRACKER_ERROR"
	ErrCodeSubmissionBlocked    = "SUBMISSION_BLOCKED"

	ErrCodeStore = "STORE_ERROR"
)

// ErrCode extracts the AppError code from err, or "" if err carries none.
func ErrCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	return ErrCode(err) == code
}
