package exa

import "fmt"

// ValidationError is returned before any request when the input is unusable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid search request: " + e.Reason }

func (e *ValidationError) InvalidInput() bool { return true }

// AuthenticationError is returned on 401 or when no API key is configured.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	return "search provider authentication failed: " + e.Detail
}

// RateLimitedError is returned on 429.
type RateLimitedError struct {
	RetryAfter string // raw Retry-After header, may be empty
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != "" {
		return "search provider rate limited, retry after " + e.RetryAfter
	}
	return "search provider rate limited"
}

func (e *RateLimitedError) Retryable() bool { return true }

// APIError is any other non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search provider API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *APIError) Retryable() bool { return e.StatusCode >= 500 }

// NetworkError is a transport failure.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("search provider network error: %v", e.Cause) }

func (e *NetworkError) Unwrap() error { return e.Cause }

func (e *NetworkError) Retryable() bool { return true }

// InvalidResponseError is returned when the body is not the expected shape.
type InvalidResponseError struct {
	Cause error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("search provider returned an invalid response: %v", e.Cause)
}

func (e *InvalidResponseError) Unwrap() error { return e.Cause }
