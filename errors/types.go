package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Project registry errors
	ErrCodeProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeProjectExists   ErrorCode = "PROJECT_EXISTS"
	ErrCodeProjectInvalid  ErrorCode = "PROJECT_INVALID"

	// Watch pipeline errors, one code per handling stage
	ErrCodeWatchFailed   ErrorCode = "WATCH_FAILED"
	ErrCodeDiffFailed    ErrorCode = "DIFF_FAILED"
	ErrCodeSessionFailed ErrorCode = "SESSION_FAILED"
	ErrCodeDeltaFailed   ErrorCode = "DELTA_FAILED"
	ErrCodeIndexFailed   ErrorCode = "INDEX_FAILED"

	// Storage errors
	ErrCodeDatabaseOpen  ErrorCode = "DATABASE_OPEN"
	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY"
	ErrCodeDatabaseWrite ErrorCode = "DATABASE_WRITE"

	// Git errors
	ErrCodeGitNotInstalled ErrorCode = "GIT_NOT_INSTALLED"
	ErrCodeGitNotRepo      ErrorCode = "GIT_NOT_REPO"
	ErrCodeGitFailed       ErrorCode = "GIT_FAILED"

	// Command execution errors
	ErrCodeCommandTimeout  ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// ButlerError represents a structured error with context
type ButlerError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ButlerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ButlerError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ButlerError) WithDetail(key string, value interface{}) *ButlerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *ButlerError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new ButlerError
func New(code ErrorCode, message string) *ButlerError {
	return &ButlerError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ButlerError
func Wrap(err error, code ErrorCode, message string) *ButlerError {
	return &ButlerError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific ButlerError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	butlerErr, ok := err.(*ButlerError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return butlerErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	butlerErr, ok := err.(*ButlerError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return butlerErr.Code
}
