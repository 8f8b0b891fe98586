package config

import "time"

func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns the stock configuration. Every field a config file
// or environment override may set starts from these values.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(120 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Model: ModelConfig{
			Model:      "gemini-2.0-flash",
			RetryCount: 2,
			RetryDelay: Duration(500 * time.Millisecond),
			Timeout:    Duration(60 * time.Second),
		},
		Tools: ToolsConfig{
			Timeout:    Duration(10 * time.Second),
			RetryCount: 3,
			RetryDelay: Duration(250 * time.Millisecond),
		},
		Agent: AgentConfig{
			MaxContextTokens:     8000,
			MaxIterations:        5,
			FilterTaskReferences: boolPtr(true),
			ReferenceMaxTurns:    5,
			ReferenceMaxAge:      Duration(5 * time.Minute),
			EndOfDay:             "23:59:59",
			CloseOfBusiness:      "17:00",
		},
		Storage: StorageConfig{
			DatabasePath: DefaultDatabasePath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
