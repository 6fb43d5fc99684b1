// Package errors defines the structured errors returned by the HTTP transport.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific transport error type.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates a missing or invalid bearer credential.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeSpeechTooShort indicates a recording below the minimum duration.
	ErrCodeSpeechTooShort ErrorCode = "SPEECH_TOO_SHORT"
	// ErrCodeSpeechUnintelligible indicates audio that produced no text.
	ErrCodeSpeechUnintelligible ErrorCode = "SPEECH_UNINTELLIGIBLE"
	// ErrCodeSpeechServiceUnavailable indicates the speech provider could not be reached.
	ErrCodeSpeechServiceUnavailable ErrorCode = "SPEECH_SERVICE_UNAVAILABLE"
	// ErrCodeServiceUnavailable indicates the service is not available.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeAgentExecutionFailed indicates agent execution failure.
	ErrCodeAgentExecutionFailed ErrorCode = "AGENT_EXECUTION_FAILED"
	// ErrCodeNotFound indicates an unknown route.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var statusByCode = map[ErrorCode]int{
	ErrCodeUnauthorized:             http.StatusUnauthorized,
	ErrCodeRateLimitExceeded:        http.StatusTooManyRequests,
	ErrCodeInvalidArgument:          http.StatusBadRequest,
	ErrCodeSpeechTooShort:           http.StatusBadRequest,
	ErrCodeSpeechUnintelligible:     http.StatusBadRequest,
	ErrCodeSpeechServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeServiceUnavailable:       http.StatusServiceUnavailable,
	ErrCodeAgentExecutionFailed:     http.StatusInternalServerError,
	ErrCodeNotFound:                 http.StatusNotFound,
	ErrCodeInternal:                 http.StatusInternalServerError,
}

// AppError represents a structured transport error.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus classifies the error as an HTTP status.
func (e *AppError) HTTPStatus() int {
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Convenience constructors for common error types.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AppError {
	return &AppError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// AgentExecutionFailed creates an agent execution failed error.
func AgentExecutionFailed(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeAgentExecutionFailed, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeForStatus maps an HTTP status produced outside this package to a code.
func CodeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeUnauthorized
	case http.StatusTooManyRequests:
		return ErrCodeRateLimitExceeded
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return ErrCodeNotFound
	case http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	}
	if status >= 400 && status < 500 {
		return ErrCodeInvalidArgument
	}
	return ErrCodeInternal
}
