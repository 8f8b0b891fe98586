// Package config loads and validates the service configuration from JSON
// files and environment overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the root service configuration.
type Config struct {
	Version string        `json:"version,omitempty"`
	Server  ServerConfig  `json:"server"`
	Model   ModelConfig   `json:"model"`
	Tools   ToolsConfig   `json:"tools"`
	Agent   AgentConfig   `json:"agent"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string   `json:"addr" validate:"required"`
	ReadTimeout     Duration `json:"readTimeout,omitempty"`
	WriteTimeout    Duration `json:"writeTimeout,omitempty"`
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty"`
}

// ModelConfig holds the chat-completion backend settings.
type ModelConfig struct {
	APIKey     string   `json:"apiKey,omitempty"`
	BaseURL    string   `json:"baseUrl,omitempty" validate:"omitempty,url"`
	Model      string   `json:"model" validate:"required"`
	RetryCount int      `json:"retryCount,omitempty" validate:"min=0,max=10"`
	RetryDelay Duration `json:"retryDelay,omitempty"`
	Timeout    Duration `json:"timeout,omitempty"`
}

// ToolsConfig holds the task tool-execution server settings.
type ToolsConfig struct {
	URL        string   `json:"url" validate:"required,url"`
	Timeout    Duration `json:"timeout,omitempty"`
	RetryCount int      `json:"retryCount,omitempty" validate:"min=0,max=10"`
	RetryDelay Duration `json:"retryDelay,omitempty"`
}

// AgentConfig tunes the orchestration behavior.
type AgentConfig struct {
	// MaxContextTokens is the token budget for conversation history.
	MaxContextTokens int `json:"maxContextTokens" validate:"min=256"`

	// MaxIterations bounds the model/tool loop per turn.
	MaxIterations int `json:"maxIterations,omitempty" validate:"min=0,max=20"`

	// FilterTaskReferences drops assistant history mentioning concrete
	// task data, so the model never reasons from stale lists. Pointer so
	// a file that omits the key keeps the default instead of forcing the
	// zero value.
	FilterTaskReferences *bool `json:"filterTaskReferences,omitempty"`

	// ReferenceMaxTurns and ReferenceMaxAge bound how long a displayed
	// task list stays resolvable for ordinal references.
	ReferenceMaxTurns int      `json:"referenceMaxTurns,omitempty" validate:"min=1"`
	ReferenceMaxAge   Duration `json:"referenceMaxAge,omitempty"`

	// EndOfDay and CloseOfBusiness override the times that "EOD" and
	// "COB" resolve to, as "HH:MM" or "HH:MM:SS".
	EndOfDay        string `json:"endOfDay,omitempty" validate:"omitempty,clock"`
	CloseOfBusiness string `json:"closeOfBusiness,omitempty" validate:"omitempty,clock"`
}

// FilterTaskRefs reports whether stale-task-reference filtering is enabled.
// Unset means the default, which is on.
func (c AgentConfig) FilterTaskRefs() bool {
	return c.FilterTaskReferences == nil || *c.FilterTaskReferences
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DatabasePath string `json:"databasePath,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" validate:"omitempty,log_level"`
	Format string `json:"format,omitempty" validate:"omitempty,log_format"`
}

// Duration wraps time.Duration with JSON support for "30s" style strings.
type Duration time.Duration

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Duration(d).String())), nil
}

// UnmarshalJSON accepts either a duration string or nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		parsed, err := time.ParseDuration(s[1 : len(s)-1])
		if err != nil {
			return fmt.Errorf("invalid duration %s: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if _, err := fmt.Sscanf(s, "%d", &ns); err != nil {
		return fmt.Errorf("invalid duration %s", s)
	}
	*d = Duration(ns)
	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Message)
}
