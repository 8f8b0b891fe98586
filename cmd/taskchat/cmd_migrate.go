package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/taskchat/taskchat/src/config"
	"github.com/taskchat/taskchat/src/storage"
)

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up MigrateUpCmd `cmd:"" help:"Run pending migrations"`
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate up command
func (c *MigrateUpCmd) Run(kctx *kong.Context, cli *CLI) error {
	dbPath := c.DBPath
	if dbPath == "" {
		cfg, err := config.NewLoader().Load(cli.Config)
		if err != nil {
			return err
		}
		dbPath = cfg.Storage.DatabasePath
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Database ready: %s (migrations applied on open)\n", dbPath)
	return nil
}
