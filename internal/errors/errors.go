package errors

import (
	stderrors "errors"
	"fmt"
)

// RagError is the structured error type for docrag.
// It carries a stable code so callers can map failures to distinct responses.
type RagError struct {
	// Code is the unique error code (e.g., "ERR_202_INDEX_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates the caller may retry. The core never does.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *RagError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RagError) Unwrap() error {
	return e.Cause
}

// Is matches another RagError by code, so errors.Is(err, ErrIndexNotFound) works.
func (e *RagError) Is(target error) bool {
	if t, ok := target.(*RagError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *RagError) WithDetail(key, value string) *RagError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *RagError) WithSuggestion(suggestion string) *RagError {
	e.Suggestion = suggestion
	return e
}

// New creates a new RagError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *RagError {
	return &RagError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a RagError from an existing error.
// If err already carries a RagError with the same code it is returned as is.
func Wrap(code string, err error) *RagError {
	if err == nil {
		return nil
	}
	var re *RagError
	if stderrors.As(err, &re) && re.Code == code {
		return re
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is checks. Only the code is compared.
var (
	ErrEmptyCorpus       = &RagError{Code: ErrCodeEmptyCorpus}
	ErrIndexNotFound     = &RagError{Code: ErrCodeIndexNotFound}
	ErrIndexNotReady     = &RagError{Code: ErrCodeIndexNotReady}
	ErrEmbeddingProvider = &RagError{Code: ErrCodeEmbeddingProvider}
	ErrInvalidMode       = &RagError{Code: ErrCodeInvalidMode}
	ErrInvalidInput      = &RagError{Code: ErrCodeInvalidInput}
	ErrDimensionMismatch = &RagError{Code: ErrCodeDimensionMismatch}
	ErrGenerationFailed  = &RagError{Code: ErrCodeGenerationFailed}
)

// EmptyCorpus reports that there is nothing to chunk or index.
func EmptyCorpus(message string, cause error) *RagError {
	return New(ErrCodeEmptyCorpus, message, cause).
		WithSuggestion("add .txt documents to the documents directory")
}

// IndexNotFound reports a semantic load with nothing persisted.
func IndexNotFound(message string, cause error) *RagError {
	return New(ErrCodeIndexNotFound, message, cause).
		WithSuggestion("run 'docrag index' to build the indexes first")
}

// IndexNotReady reports a query against an index that has not been built.
func IndexNotReady(message string) *RagError {
	return New(ErrCodeIndexNotReady, message, nil)
}

// EmbeddingProvider wraps a failure of the external embedding provider.
func EmbeddingProvider(message string, cause error) *RagError {
	var re *RagError
	if stderrors.As(cause, &re) && re.Code == ErrCodeEmbeddingProvider {
		return re
	}
	return New(ErrCodeEmbeddingProvider, message, cause).
		WithSuggestion("check that the embedding provider is reachable and the model is available")
}

// InvalidMode reports an unknown retrieval mode.
func InvalidMode(mode string) *RagError {
	return New(ErrCodeInvalidMode, fmt.Sprintf("invalid retrieval mode %q", mode), nil).
		WithDetail("mode", mode).
		WithSuggestion("use one of: lexical, semantic, hybrid")
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *RagError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *RagError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *RagError {
	return New(ErrCodeInternal, message, cause)
}

// As extracts the first RagError in err's chain.
func As(err error) (*RagError, bool) {
	var re *RagError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if re, ok := As(err); ok {
		return re.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if re, ok := As(err); ok {
		return re.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a RagError.
// Returns empty string if err carries no RagError.
func GetCode(err error) string {
	if re, ok := As(err); ok {
		return re.Code
	}
	return ""
}

// GetCategory extracts the category from a RagError.
func GetCategory(err error) Category {
	if re, ok := As(err); ok {
		return re.Category
	}
	return ""
}
