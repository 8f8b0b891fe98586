package agent

import (
	"errors"
	"fmt"

	"github.com/taskchat/taskchat/src/mcp"
	"github.com/taskchat/taskchat/src/modelclient"
	"github.com/taskchat/taskchat/src/storage"
)

// FailureClass buckets run failures for the transport layer. The HTTP
// server maps classes onto status codes; the message is always safe to show
// to the user.
type FailureClass int

const (
	// FailureInternal is an unclassified error: 500-equivalent.
	FailureInternal FailureClass = iota
	// FailureForbidden is an ownership violation: 403-equivalent.
	FailureForbidden
	// FailureNotFound means the conversation does not exist: 404-equivalent.
	FailureNotFound
	// FailureUnavailable means a dependency (store, model, tool server) is
	// down or rate limited: 503-equivalent.
	FailureUnavailable
)

// RunError is the orchestrator's terminal failure. Err holds the cause for
// logs; UserMessage is what the caller may display.
type RunError struct {
	Class       FailureClass
	UserMessage string
	Err         error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// classifyError wraps an arbitrary failure into a RunError with a
// human-readable message. Internal detail never leaks into UserMessage.
func classifyError(err error) *RunError {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr
	}

	switch {
	case errors.Is(err, storage.ErrForbidden):
		return &RunError{
			Class:       FailureForbidden,
			UserMessage: "You don't have access to this conversation.",
			Err:         err,
		}
	case errors.Is(err, storage.ErrNotFound):
		return &RunError{
			Class:       FailureNotFound,
			UserMessage: "That conversation could not be found.",
			Err:         err,
		}
	}

	var transportErr *mcp.TransportError
	if errors.As(err, &transportErr) {
		return &RunError{
			Class:       FailureUnavailable,
			UserMessage: "The task service is temporarily unavailable. Please try again shortly.",
			Err:         err,
		}
	}

	var apiErr *modelclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRateLimit() || apiErr.IsRetryable() {
			return &RunError{
				Class:       FailureUnavailable,
				UserMessage: "The assistant is temporarily unavailable. Please try again shortly.",
				Err:         err,
			}
		}
	}

	return &RunError{
		Class:       FailureInternal,
		UserMessage: "Something went wrong while processing your message.",
		Err:         err,
	}
}
