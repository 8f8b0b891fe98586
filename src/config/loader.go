package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix is the prefix for environment overrides, e.g. TASKCHAT_API_KEY.
const EnvPrefix = "TASKCHAT"

// Loader loads configuration from a file, applies environment overrides and
// validates the result.
type Loader struct {
	validator *Validator
}

// NewLoader creates a loader.
func NewLoader() *Loader {
	return &Loader{validator: NewValidator()}
}

// Load builds the effective configuration: defaults, then the file at path
// (a missing file at the default location is fine), then environment
// overrides. The result is validated before return.
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	fileCfg, err := l.loadFile(path)
	switch {
	case err == nil:
		merge(config, fileCfg)
	case os.IsNotExist(err) && !explicit:
		// default location absent, run on defaults
	default:
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	l.applyEnvironmentOverrides(config)

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &config, nil
}

// merge copies set fields from override into base.
func merge(base, override *Config) {
	if override.Version != "" {
		base.Version = override.Version
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ReadTimeout != 0 {
		base.Server.ReadTimeout = override.Server.ReadTimeout
	}
	if override.Server.WriteTimeout != 0 {
		base.Server.WriteTimeout = override.Server.WriteTimeout
	}
	if override.Server.ShutdownTimeout != 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Model.APIKey != "" {
		base.Model.APIKey = override.Model.APIKey
	}
	if override.Model.BaseURL != "" {
		base.Model.BaseURL = override.Model.BaseURL
	}
	if override.Model.Model != "" {
		base.Model.Model = override.Model.Model
	}
	if override.Model.RetryCount != 0 {
		base.Model.RetryCount = override.Model.RetryCount
	}
	if override.Model.RetryDelay != 0 {
		base.Model.RetryDelay = override.Model.RetryDelay
	}
	if override.Model.Timeout != 0 {
		base.Model.Timeout = override.Model.Timeout
	}

	if override.Tools.URL != "" {
		base.Tools.URL = override.Tools.URL
	}
	if override.Tools.Timeout != 0 {
		base.Tools.Timeout = override.Tools.Timeout
	}
	if override.Tools.RetryCount != 0 {
		base.Tools.RetryCount = override.Tools.RetryCount
	}
	if override.Tools.RetryDelay != 0 {
		base.Tools.RetryDelay = override.Tools.RetryDelay
	}

	if override.Agent.MaxContextTokens != 0 {
		base.Agent.MaxContextTokens = override.Agent.MaxContextTokens
	}
	if override.Agent.MaxIterations != 0 {
		base.Agent.MaxIterations = override.Agent.MaxIterations
	}
	if override.Agent.FilterTaskReferences != nil {
		base.Agent.FilterTaskReferences = override.Agent.FilterTaskReferences
	}
	if override.Agent.ReferenceMaxTurns != 0 {
		base.Agent.ReferenceMaxTurns = override.Agent.ReferenceMaxTurns
	}
	if override.Agent.ReferenceMaxAge != 0 {
		base.Agent.ReferenceMaxAge = override.Agent.ReferenceMaxAge
	}
	if override.Agent.EndOfDay != "" {
		base.Agent.EndOfDay = override.Agent.EndOfDay
	}
	if override.Agent.CloseOfBusiness != "" {
		base.Agent.CloseOfBusiness = override.Agent.CloseOfBusiness
	}

	if override.Storage.DatabasePath != "" {
		base.Storage.DatabasePath = override.Storage.DatabasePath
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}
}

// applyEnvironmentOverrides applies TASKCHAT_* variables on top of the
// loaded configuration. The API key also falls back to GEMINI_API_KEY.
func (l *Loader) applyEnvironmentOverrides(config *Config) {
	if v := os.Getenv(EnvPrefix + "_API_KEY"); v != "" {
		config.Model.APIKey = v
	}
	if config.Model.APIKey == "" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			config.Model.APIKey = v
		}
	}

	if v := os.Getenv(EnvPrefix + "_MODEL"); v != "" {
		config.Model.Model = v
	}
	if v := os.Getenv(EnvPrefix + "_BASE_URL"); v != "" {
		config.Model.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "_TOOLS_URL"); v != "" {
		config.Tools.URL = v
	}
	if v := os.Getenv(EnvPrefix + "_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "_DATABASE_PATH"); v != "" {
		config.Storage.DatabasePath = v
	}
	if v := os.Getenv(EnvPrefix + "_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if v := os.Getenv(EnvPrefix + "_MAX_CONTEXT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Agent.MaxContextTokens = n
		}
	}
	if v := os.Getenv(EnvPrefix + "_REFERENCE_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Agent.ReferenceMaxAge = Duration(d)
		}
	}
}
