package modelclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoAPIKey indicates the API key is missing
	ErrNoAPIKey = errors.New("API key is required")

	// ErrEmptyResponse indicates the API returned no choices
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrRateLimited indicates rate limiting
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents an error response from the chat-completions API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Code       string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	// 5xx errors are generally retryable
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}

	// Rate limit errors are retryable after a delay
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}

	switch e.Code {
	case "timeout", "connection_error", "server_error":
		return true
	}

	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "rate_limit_exceeded"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden || e.Code == "invalid_api_key"
}

// Is lets rate-limit API errors match ErrRateLimited.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.IsRateLimit()
}
