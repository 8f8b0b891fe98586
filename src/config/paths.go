package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultDatabasePath returns the conversation database location under the
// XDG state directory.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.StateHome, "taskchat", "conversations.db")
}

// DefaultConfigPath returns the user configuration file location under the
// XDG config directory.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "taskchat", "config.json")
}
