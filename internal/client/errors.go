package client

import "fmt"

// NetworkError wraps a transport failure: connection refused, DNS failure,
// timeout. Always retryable.
type NetworkError struct {
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("network timeout: %v", e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-success HTTP status from the chain gateway. 5xx responses
// are retryable, 4xx are not.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed on retry.
func (e *APIError) Retryable() bool { return e.StatusCode >= 500 }

// ParseError is a response body that could not be decoded or contained
// malformed values. Never retryable: the same bytes would fail again.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
