package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeDimensionMismatch   = "DIMENSION_MISMATCH"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout     = "PROVIDER_TIMEOUT"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrBlankQuery         = NewDomainError(ErrCodeValidation, "query must not be blank")
	ErrInvalidChunkParams = NewDomainError(ErrCodeValidation, "chunk overlap must satisfy 0 <= overlap < size")
	ErrInvalidLimit       = NewDomainError(ErrCodeValidation, "limit must be greater than zero")
	ErrEmptyText          = NewDomainError(ErrCodeValidation, "text must not be empty")
	ErrMissingBoardID     = NewDomainError(ErrCodeValidation, "board id is required")
)

// ErrDimensionMismatch means the deployment's embedding model disagrees with
// the store. Fatal configuration error, never retried.
var ErrDimensionMismatch = NewDomainError(ErrCodeDimensionMismatch, "embedding dimensionality does not match deployment configuration")

// Provider errors are retryable by callers with backoff; the pipeline itself
// performs no silent retries.
var (
	ErrProviderUnavailable = NewDomainError(ErrCodeProviderUnavailable, "remote provider call failed")
	ErrProviderTimeout     = NewDomainError(ErrCodeProviderTimeout, "remote provider call timed out")
)

// Not found errors
var (
	ErrIngestionJobNotFound = NewDomainError(ErrCodeNotFound, "ingestion job not found")
	ErrUnitTextNotFound     = NewDomainError(ErrCodeNotFound, "unit text not found")
)
