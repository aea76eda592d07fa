package errors

import (
	"errors"
	"fmt"
)

// IndexError is the structured error type for mdindex.
// It carries enough context for logging and for CLI presentation.
type IndexError struct {
	// Code is the unique error code (e.g., "ERR_403_INVALID_QUERY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an IndexError with the same code.
func (e *IndexError) Is(target error) bool {
	if t, ok := target.(*IndexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *IndexError) WithDetail(key, value string) *IndexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *IndexError) WithSuggestion(suggestion string) *IndexError {
	e.Suggestion = suggestion
	return e
}

// New creates a new IndexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *IndexError {
	return &IndexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an IndexError from an existing error.
// The error's message becomes the IndexError message.
func Wrap(code string, err error) *IndexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *IndexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StorageError creates an error for a failed store operation.
func StorageError(message string, cause error) *IndexError {
	return New(ErrCodeStorageIO, message, cause)
}

// StorageInitError creates an error for a store that could not be opened.
func StorageInitError(message string, cause error) *IndexError {
	return New(ErrCodeStorageInit, message, cause)
}

// QueryError creates an error for rejected raw query text.
// The store remains usable after a QueryError.
func QueryError(message string, cause error) *IndexError {
	return New(ErrCodeInvalidQuery, message, cause)
}

// ParseError reports a document that was skipped because it could not be parsed.
func ParseError(path string, cause error) *IndexError {
	return New(ErrCodeParseSkipped, "skipped unparseable document", cause).
		WithDetail("path", path)
}

// WatchError creates an error for a watcher that could not start.
func WatchError(message string, cause error) *IndexError {
	return New(ErrCodeWatchStart, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *IndexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *IndexError {
	return New(ErrCodeInternal, message, cause)
}

// IsQueryError reports whether err is (or wraps) a rejected raw query.
func IsQueryError(err error) bool {
	return GetCode(err) == ErrCodeInvalidQuery
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first IndexError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// GetCategory extracts the category from the first IndexError in the chain.
func GetCategory(err error) Category {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Category
	}
	return ""
}
