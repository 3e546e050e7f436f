package types

import "fmt"

// ErrorCode represents a unified error code across the concierge.
type ErrorCode string

const (
	ErrValidation     ErrorCode = "VALIDATION"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrNoPending      ErrorCode = "NO_PENDING_ACTION"
	ErrClassification ErrorCode = "CLASSIFICATION_FAILED"
	ErrUnknownTool    ErrorCode = "UNKNOWN_TOOL"
	ErrCollaborator   ErrorCode = "COLLABORATOR_FAILED"
	ErrInternal       ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
// Tool boundaries convert every internal fault into one of these; none of
// them may escalate into a session-terminating failure.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithField names the input field the error refers to.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
