package scopus

import (
	"errors"
	"fmt"
)

// Common errors returned by the Scopus client.
var (
	// ErrNotFound indicates the document was not found in Scopus.
	ErrNotFound = errors.New("not found in Scopus")

	// ErrAuthError indicates an authentication error (missing/invalid API key).
	ErrAuthError = errors.New("Scopus authentication error")

	// ErrRateLimited indicates the request quota has been exceeded.
	ErrRateLimited = errors.New("Scopus rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Scopus")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Scopus")
)

// APIError represents an error response from the Scopus API.
type APIError struct {
	StatusCode int
	Code       string // Error code (e.g. "not_found", "auth_error")
	Message    string
	Identifier string // The identifier being retrieved, for context
}

func (e *APIError) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("Scopus API error (status %d, code %s): %s (identifier: %s)",
			e.StatusCode, e.Code, e.Message, e.Identifier)
	}
	return fmt.Sprintf("Scopus API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound returns true if the error indicates a document was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || apiErr.Code == "not_found"
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403 || apiErr.Code == "auth_error"
	}
	return false
}

// IsRateLimited returns true if the error indicates quota exhaustion.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.Code == "rate_limited"
	}
	return false
}

// isRetryable reports whether a retrieval attempt is worth repeating.
func isRetryable(err error) bool {
	if IsRateLimited(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
