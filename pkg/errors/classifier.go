package errors

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"
	"syscall"
)

// ClassifyError classifies an error for retry and circuit breaker logic
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Err == nil {
		return appErr.Type
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		// the caller went away; retrying cannot help
		return ErrorTypeInternal
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorTypeNotFound
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return ErrorTypeStorage
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeTransient
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED:
			return ErrorTypeTransient
		case syscall.ETIMEDOUT:
			return ErrorTypeTimeout
		}
	}

	if appErr != nil {
		return appErr.Type
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded"):
		return ErrorTypeTimeout
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "connection reset"),
		strings.Contains(errMsg, "broken pipe"),
		strings.Contains(errMsg, "bad connection"):
		return ErrorTypeTransient
	case strings.Contains(errMsg, "too many connections"),
		strings.Contains(errMsg, "serialization failure"),
		strings.Contains(errMsg, "deadlock detected"):
		return ErrorTypeTransient
	case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "no rows"):
		return ErrorTypeNotFound
	case strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "malformed"):
		return ErrorTypeValidation
	}

	return ErrorTypeInternal
}

// ShouldRetry determines if an error should be retried
func ShouldRetry(err error) bool {
	return IsTransient(ClassifyError(err))
}

// IsCircuitBreakerError determines if an error should trip the circuit breaker
func IsCircuitBreakerError(err error) bool {
	switch ClassifyError(err) {
	case ErrorTypeTimeout, ErrorTypeTransient, ErrorTypeStorage:
		return true
	default:
		return false
	}
}
