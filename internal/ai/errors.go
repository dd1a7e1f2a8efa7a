package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a provider failure so callers can decide whether to
// retry and what to tell the user.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindRateLimited
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	default:
		return "transport"
	}
}

// APIError is returned by providers for failed HTTP calls.
type APIError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// newStatusError builds an APIError from an HTTP status code.
func newStatusError(provider string, status int, body string) *APIError {
	kind := KindTransport
	if status == http.StatusTooManyRequests {
		kind = KindRateLimited
	}
	return &APIError{
		Provider:   provider,
		Kind:       kind,
		StatusCode: status,
		Message:    body,
	}
}

// newTransportError wraps a failed request, detecting timeouts.
func newTransportError(provider string, err error) *APIError {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &APIError{Provider: provider, Kind: kind, Err: err}
}

// Classify returns the error kind for any error originating in this package.
// Errors it cannot attribute are treated as generic transport failures.
func Classify(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return KindTimeout
	}
	return KindTransport
}
