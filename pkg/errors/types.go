package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeForbidden  ErrorType = "forbidden"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeTimeout    ErrorType = "timeout"
	// ErrorTypeStorage covers failures talking to the holdings store
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeTransient represents errors that can be retried
	ErrorTypeTransient ErrorType = "transient"
)

// Error codes surfaced to API callers
const (
	CodeInternal             = "INTERNAL_ERROR"
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeForbidden            = "FORBIDDEN"
	CodeRateLimit            = "RATE_LIMIT_EXCEEDED"
	CodeTimeout              = "TIMEOUT"
	CodePortfolioNotFound    = "PORTFOLIO_NOT_FOUND"
	CodeHoldingsFetchFailed  = "HOLDINGS_FETCH_FAILED"
	CodeHoldingWriteFailed   = "HOLDING_WRITE_FAILED"
	CodePortfolioWriteFailed = "PORTFOLIO_WRITE_FAILED"
	CodeCacheFailed          = "CACHE_FAILED"
)

// AppError represents an application error with additional context
type AppError struct {
	Type       ErrorType         `json:"type"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Err        error             `json:"-"`
	Retryable  bool              `json:"retryable"`
	StatusCode int               `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code and type so wrapped copies of a sentinel compare equal
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Sentinel errors for the analytics domain. Compare with errors.Is.
var (
	ErrInternalServer = &AppError{
		Type:       ErrorTypeInternal,
		Code:       CodeInternal,
		Message:    "An internal server error occurred",
		StatusCode: http.StatusInternalServerError,
	}

	ErrValidation = &AppError{
		Type:       ErrorTypeValidation,
		Code:       CodeValidation,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Type:       ErrorTypeNotFound,
		Code:       CodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrForbidden = &AppError{
		Type:       ErrorTypeForbidden,
		Code:       CodeForbidden,
		Message:    "Access denied",
		StatusCode: http.StatusForbidden,
	}

	ErrRateLimit = &AppError{
		Type:       ErrorTypeRateLimit,
		Code:       CodeRateLimit,
		Message:    "Rate limit exceeded",
		StatusCode: http.StatusTooManyRequests,
		Retryable:  true,
	}

	ErrPortfolioNotFound = &AppError{
		Type:       ErrorTypeNotFound,
		Code:       CodePortfolioNotFound,
		Message:    "Portfolio not found",
		StatusCode: http.StatusNotFound,
	}

	// ErrHoldingsFetch is fatal to a recomputation: no partial analytics are returned
	ErrHoldingsFetch = &AppError{
		Type:       ErrorTypeStorage,
		Code:       CodeHoldingsFetchFailed,
		Message:    "Failed to fetch portfolio holdings",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrHoldingWrite is absorbed unless the write policy is strict
	ErrHoldingWrite = &AppError{
		Type:       ErrorTypeStorage,
		Code:       CodeHoldingWriteFailed,
		Message:    "Failed to persist holding valuation",
		StatusCode: http.StatusInternalServerError,
	}

	ErrPortfolioWrite = &AppError{
		Type:       ErrorTypeStorage,
		Code:       CodePortfolioWriteFailed,
		Message:    "Failed to persist portfolio summary",
		StatusCode: http.StatusInternalServerError,
	}
)

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetType returns the error type
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetCode returns the error code
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// GetMessage returns the caller-facing message for an error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
