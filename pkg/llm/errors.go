package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies backend failures.
type ErrorType string

const (
	// ErrorTypeTimeout means the backend exceeded its wall-clock ceiling.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeInvocation means the local process exited non-zero.
	ErrorTypeInvocation ErrorType = "invocation"
	// ErrorTypeEmptyResponse means the backend produced no output at all.
	ErrorTypeEmptyResponse ErrorType = "empty_response"
	// ErrorTypeCredential means a required credential is missing or rejected.
	ErrorTypeCredential ErrorType = "credential"
	// ErrorTypeTransport covers network-level failures to a remote endpoint.
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeUnknown is everything else.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a structured backend error with classification.
type Error struct {
	Type      ErrorType // Failure classification
	Message   string    // Human-readable message
	Retryable bool      // Whether the operation can be retried
	Cause     error     // Underlying error
	Backend   string    // Backend name if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.Backend != "" {
		parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface so the retry
// package can check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured backend error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes an arbitrary remote-call error. Already
// classified errors pass through unchanged.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "authentication"):
		return NewError(ErrorTypeCredential, "authentication failed", false, err)

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return NewError(ErrorTypeTimeout, "request timed out", true, err)

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset"):
		return NewError(ErrorTypeTransport, "connection failed", true, err)

	case strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "overloaded"):
		return NewError(ErrorTypeTransport, "rate limited", true, err)

	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504"):
		return NewError(ErrorTypeTransport, "server error", true, err)
	}

	// Unclassified remote failures are retried: a wasted retry is cheaper
	// than a dropped dataset.
	return NewError(ErrorTypeUnknown, "backend error", true, err)
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var backendErr *Error
	if errors.As(err, &backendErr) {
		return backendErr.Type
	}
	return ErrorTypeUnknown
}
