package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType classifies failures surfaced by the data-access core.
type ErrorType string

const (
	ErrTransientNetwork ErrorType = "TRANSIENT_NETWORK"
	ErrRateLimit        ErrorType = "RATE_LIMIT"
	ErrAuthentication   ErrorType = "AUTHENTICATION"
	ErrAuthorization    ErrorType = "AUTHORIZATION"
	ErrNotFound         ErrorType = "NOT_FOUND"
	ErrPagination       ErrorType = "PAGINATION_INCONSISTENCY"
	ErrInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrDeadlineExceeded ErrorType = "DEADLINE_EXCEEDED"
	ErrRetriesExhausted ErrorType = "RETRIES_EXHAUSTED"
	ErrInvalidInput     ErrorType = "INVALID_INPUT"
	ErrInternal         ErrorType = "INTERNAL"
)

// AppError is the common error carrier for the service.
type AppError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// TypeOf returns the ErrorType of err, or ErrInternal for untyped errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrInternal
}

func is(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsTransientNetwork checks if the error is a retryable network failure
func IsTransientNetwork(err error) bool { return is(err, ErrTransientNetwork) }

// IsRateLimit checks if the error is a rate limit error
func IsRateLimit(err error) bool { return is(err, ErrRateLimit) }

// IsAuthentication checks if the error is an authentication failure
func IsAuthentication(err error) bool { return is(err, ErrAuthentication) }

// IsAuthorization checks if the error is a permission failure
func IsAuthorization(err error) bool { return is(err, ErrAuthorization) }

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return is(err, ErrNotFound) }

// IsPaginationInconsistency checks for a mid-fetch pagination integrity failure
func IsPaginationInconsistency(err error) bool { return is(err, ErrPagination) }

// IsInsufficientData checks whether every section of a build failed
func IsInsufficientData(err error) bool { return is(err, ErrInsufficientData) }

// IsDeadlineExceeded checks if a caller-supplied deadline elapsed
func IsDeadlineExceeded(err error) bool { return is(err, ErrDeadlineExceeded) }

// IsRetriesExhausted checks if a retryable error exceeded the retry budget
func IsRetriesExhausted(err error) bool { return is(err, ErrRetriesExhausted) }

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool { return is(err, ErrInvalidInput) }

// Retryable reports whether the error class may be retried locally.
// Fatal classes propagate immediately.
func Retryable(err error) bool {
	switch TypeOf(err) {
	case ErrTransientNetwork, ErrRateLimit:
		return true
	default:
		return false
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, err error) *AppError {
	return New(ErrNotFound, message, err)
}

// NewValidationError creates a new invalid input error
func NewValidationError(message string, err error) *AppError {
	return New(ErrInvalidInput, message, err)
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string, err error) *AppError {
	return New(ErrAuthentication, message, err)
}

// NewAuthorizationError creates a new permission error
func NewAuthorizationError(message string, err error) *AppError {
	return New(ErrAuthorization, message, err)
}

// NewTransientNetworkError creates a new retryable network error
func NewTransientNetworkError(message string, err error) *AppError {
	return New(ErrTransientNetwork, message, err)
}

// NewDeadlineExceededError creates a new deadline error
func NewDeadlineExceededError(message string, err error) *AppError {
	return New(ErrDeadlineExceeded, message, err)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrInternal, message, err)
}

// RateLimitError carries the server-supplied retry-after hint for a 429.
type RateLimitError struct {
	RetryAfter time.Duration
	Limit      int
	Remaining  int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s (limit: %d, remaining: %d)",
		e.RetryAfter, e.Limit, e.Remaining)
}

// NewRateLimitError wraps a 429 response as a retryable AppError.
func NewRateLimitError(retryAfter time.Duration, limit, remaining int) *AppError {
	return New(ErrRateLimit, "rate limit exceeded", &RateLimitError{
		RetryAfter: retryAfter,
		Limit:      limit,
		Remaining:  remaining,
	})
}

// RetryAfterHint extracts the server retry-after hint from err, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > 0 {
		return rle.RetryAfter, true
	}
	return 0, false
}

// PaginationError reports an inconsistent page sequence during a fetch.
type PaginationError struct {
	Resource string
	Page     int
	Reason   string
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("pagination inconsistency on %s page %d: %s", e.Resource, e.Page, e.Reason)
}

// NewPaginationError wraps an inconsistent page sequence as a fatal AppError.
func NewPaginationError(resource string, page int, reason string) *AppError {
	return New(ErrPagination, "inconsistent page sequence", &PaginationError{
		Resource: resource,
		Page:     page,
		Reason:   reason,
	})
}

// NewRetriesExhaustedError converts the last retryable failure into a fatal error.
func NewRetriesExhaustedError(attempts int, last error) *AppError {
	return New(ErrRetriesExhausted, fmt.Sprintf("giving up after %d attempts", attempts), last)
}

// NewInsufficientDataError reports that no section of a snapshot could be built.
func NewInsufficientDataError(target string, last error) *AppError {
	return New(ErrInsufficientData, fmt.Sprintf("no data available for %s", target), last)
}
