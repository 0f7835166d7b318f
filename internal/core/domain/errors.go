package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, store backend or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Question validation errors.

	// ErrEmptyQuestion indicates the question is empty after trimming.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrQuestionTooShort indicates the question is below the minimum length.
	ErrQuestionTooShort = errors.New("question is too short")

	// ErrUnknownCollection indicates the requested collection has no index.
	ErrUnknownCollection = errors.New("unknown collection")

	// Generation errors.

	// ErrGenerationFailed indicates the answer could not be generated.
	// Provider detail is logged, never returned to the caller.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrProviderUnavailable indicates no generation provider is configured.
	ErrProviderUnavailable = errors.New("generation provider unavailable")

	// ErrRateLimited indicates a provider throttled the request.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError is a client error: the request itself is unacceptable.
// It is surfaced to the caller immediately and never retried.
type ValidationError struct {
	// Field names the offending input field.
	Field string

	// Err is the underlying sentinel (e.g. ErrQuestionTooShort).
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

// Unwrap exposes both the specific sentinel and ErrInvalidInput.
func (e *ValidationError) Unwrap() []error {
	return []error{e.Err, ErrInvalidInput}
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RequestFailure is an internal failure tied to a request id. Its message
// stays generic; the detail goes to the operator log under the same id.
type RequestFailure struct {
	RequestID string
	Err       error
}

// Error implements the error interface.
func (e *RequestFailure) Error() string {
	return e.Err.Error() + " (request " + e.RequestID + ")"
}

// Unwrap returns the underlying sentinel.
func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// RequestIDOf returns the request id carried by err, or "".
func RequestIDOf(err error) string {
	var rf *RequestFailure
	if errors.As(err, &rf) {
		return rf.RequestID
	}
	return ""
}
