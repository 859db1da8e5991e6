package oasis

import (
	"errors"
	"fmt"
)

// Common errors returned by the OASIS client.
var (
	// ErrNotFound indicates the feed URL does not exist.
	ErrNotFound = errors.New("not found in OASIS")

	// ErrAuthError indicates a missing or rejected API key.
	ErrAuthError = errors.New("OASIS authentication error")

	// ErrRateLimited indicates the server refused the request for rate.
	ErrRateLimited = errors.New("OASIS rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with OASIS")

	// ErrInvalidResponse indicates a body that is not a feed document.
	ErrInvalidResponse = errors.New("invalid response from OASIS")
)

// APIError represents an unexpected HTTP status from the OASIS API.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OASIS API error (status %d): %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error indicates the feed was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403)
}
