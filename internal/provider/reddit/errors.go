package reddit

import "fmt"

// InvalidURLError is returned when a URL is not a forum thread URL.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid thread URL %q: %s", e.URL, e.Reason)
}

func (e *InvalidURLError) InvalidInput() bool { return true }

// AuthenticationError is returned on 401 and 403.
type AuthenticationError struct {
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("forum access denied (status %d)", e.StatusCode)
}

// RateLimitedError is returned on 429.
type RateLimitedError struct {
	RetryAfter string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != "" {
		return "forum rate limited, retry after " + e.RetryAfter
	}
	return "forum rate limited"
}

func (e *RateLimitedError) Retryable() bool { return true }

// ThreadNotFoundError is returned on 404.
type ThreadNotFoundError struct {
	URL string
}

func (e *ThreadNotFoundError) Error() string { return "thread not found: " + e.URL }

// APIError is any other non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("forum API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *APIError) Retryable() bool { return e.StatusCode >= 500 }

// NetworkError is a transport failure.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("forum network error: %v", e.Cause) }

func (e *NetworkError) Unwrap() error { return e.Cause }

func (e *NetworkError) Retryable() bool { return true }

// InvalidResponseError is returned when the body is not JSON.
type InvalidResponseError struct {
	Cause error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("forum returned an invalid response: %v", e.Cause)
}

func (e *InvalidResponseError) Unwrap() error { return e.Cause }

// ParseError is returned when the JSON does not have the thread structure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "could not parse thread: " + e.Reason }
