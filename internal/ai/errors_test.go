package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassify_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, KindRateLimited},
		{"server error", http.StatusInternalServerError, KindTransport},
		{"bad request", http.StatusBadRequest, KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newStatusError("google", tt.status, "body")
			if got := Classify(err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_WrappedAPIError(t *testing.T) {
	inner := newStatusError("openai", http.StatusTooManyRequests, "quota")
	wrapped := fmt.Errorf("all scoring providers failed: %w", inner)

	if got := Classify(wrapped); got != KindRateLimited {
		t.Errorf("Classify(wrapped) = %v, want %v", got, KindRateLimited)
	}
}

func TestClassify_Timeout(t *testing.T) {
	err := newTransportError("google", context.DeadlineExceeded)
	if got := Classify(err); got != KindTimeout {
		t.Errorf("Classify() = %v, want %v", got, KindTimeout)
	}

	if got := Classify(context.DeadlineExceeded); got != KindTimeout {
		t.Errorf("Classify(bare deadline) = %v, want %v", got, KindTimeout)
	}
}

func TestClassify_Generic(t *testing.T) {
	if got := Classify(errors.New("boom")); got != KindTransport {
		t.Errorf("Classify() = %v, want %v", got, KindTransport)
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := newTransportError("openai", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindTransport, "transport"},
		{KindRateLimited, "rate_limited"},
		{KindTimeout, "timeout"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
