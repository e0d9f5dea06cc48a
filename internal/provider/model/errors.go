package model

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrCancelled is returned when the caller cancelled the call. Callers
	// treat it as silent: nothing is shown and nothing is persisted.
	ErrCancelled = errors.New("model call cancelled")

	// ErrTimedOut is returned when the long per-request timeout fired.
	ErrTimedOut = errors.New("model call timed out")
)

// APIError is a non-200 answer from the model endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the same request may succeed later.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// NetworkError is a transport failure other than cancellation or timeout.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

func (e *NetworkError) Retryable() bool { return true }

// InvalidResponseError is returned when a 200 body cannot be decoded.
type InvalidResponseError struct {
	Reason string
	Cause  error
}

func (e *InvalidResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid model response: %s: %v", e.Reason, e.Cause)
	}
	return "invalid model response: " + e.Reason
}

func (e *InvalidResponseError) Unwrap() error { return e.Cause }

// ClassifyTransportError maps an error from an HTTP round trip onto the
// cancellation / timeout / network taxonomy. ctx is the caller's context.
func ClassifyTransportError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return ErrCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimedOut
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimedOut
	}
	return &NetworkError{Cause: err}
}
