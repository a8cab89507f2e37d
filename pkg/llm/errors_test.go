package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/retry"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrorTypeTransport, "connection failed", true, cause)
	err.Backend = "anthropic-api"

	msg := err.Error()
	for _, want := range []string{"transport", "backend=anthropic-api", "connection failed", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError(ErrorTypeUnknown, "wrapped", true, cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var backendErr *Error
	if !errors.As(wrapped, &backendErr) {
		t.Fatal("errors.As should find *Error through wrapping")
	}
	if backendErr.Type != ErrorTypeUnknown {
		t.Errorf("Type = %s, want unknown", backendErr.Type)
	}
}

func TestErrorSatisfiesRetryInterface(t *testing.T) {
	retryable := NewError(ErrorTypeTimeout, "timed out", true, nil)
	if !retry.IsRetryable(retryable) {
		t.Error("retryable backend error should be retried")
	}

	permanent := NewError(ErrorTypeCredential, "bad key", false, nil)
	if retry.IsRetryable(permanent) {
		t.Error("credential error should not be retried")
	}

	// Wrapping must not hide the classification.
	wrapped := fmt.Errorf("calling backend: %w", permanent)
	if retry.IsRetryable(wrapped) {
		t.Error("wrapped credential error should not be retried")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"nil passthrough", nil, "", false},
		{"401 status", errors.New("status 401 from api"), ErrorTypeCredential, false},
		{"invalid api key", errors.New("invalid API key provided"), ErrorTypeCredential, false},
		{"deadline", errors.New("context deadline exceeded"), ErrorTypeTimeout, true},
		{"refused", errors.New("dial tcp: connection refused"), ErrorTypeTransport, true},
		{"rate limit", errors.New("429 Too Many Requests"), ErrorTypeTransport, true},
		{"overloaded", errors.New("overloaded_error: try again"), ErrorTypeTransport, true},
		{"server error", errors.New("received 503 from upstream"), ErrorTypeTransport, true},
		{"unclassified", errors.New("something odd happened"), ErrorTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("ClassifyError(nil) = %v, want nil", got)
				}
				return
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", got.Type, tt.wantType)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}
}

func TestClassifyErrorPassthrough(t *testing.T) {
	original := NewError(ErrorTypeEmptyResponse, "no output", false, nil)
	got := ClassifyError(fmt.Errorf("attempt failed: %w", original))
	if got != original {
		t.Error("already classified errors should pass through unchanged")
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(NewError(ErrorTypeInvocation, "exit 1", false, nil)); got != ErrorTypeInvocation {
		t.Errorf("GetErrorType = %s, want invocation", got)
	}
	if got := GetErrorType(errors.New("plain")); got != ErrorTypeUnknown {
		t.Errorf("GetErrorType(plain) = %s, want unknown", got)
	}
}
