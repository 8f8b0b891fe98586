package modelclient

import (
	"log/slog"
	"time"
)

// Config holds the configuration for the model client.
type Config struct {
	// APIKey authenticates against the chat-completions endpoint.
	APIKey string

	// BaseURL of an OpenAI-compatible endpoint. Defaults to Gemini's
	// compatibility endpoint.
	BaseURL string

	// Model is the model identifier sent with every request.
	Model string

	// RetryCount is the total number of attempts per request.
	RetryCount int

	// RetryDelay is the base delay between attempts (grows linearly).
	RetryDelay time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Logger is optional; slog.Default is used when nil.
	Logger *slog.Logger
}
