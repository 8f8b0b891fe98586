package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/taskchat/taskchat/src/agent"
	"github.com/taskchat/taskchat/src/config"
	"github.com/taskchat/taskchat/src/mcp"
	"github.com/taskchat/taskchat/src/modelclient"
	"github.com/taskchat/taskchat/src/normalize"
	"github.com/taskchat/taskchat/src/server"
	"github.com/taskchat/taskchat/src/storage"
)

// ServeCmd runs the HTTP service.
type ServeCmd struct {
	Addr string `help:"Listen address override"`
}

// Run executes the serve command
func (c *ServeCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := config.NewLoader().Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	store := storage.NewStore(db)

	model, err := modelclient.New(modelclient.Config{
		APIKey:     cfg.Model.APIKey,
		BaseURL:    cfg.Model.BaseURL,
		Model:      cfg.Model.Model,
		RetryCount: cfg.Model.RetryCount,
		RetryDelay: cfg.Model.RetryDelay.Std(),
		Timeout:    cfg.Model.Timeout.Std(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	dayTimes, err := dayTimesFrom(cfg.Agent)
	if err != nil {
		return err
	}

	orchestrator, err := agent.NewOrchestrator(agent.Options{
		Store: store,
		Model: model,
		ToolConfig: mcp.Config{
			URL:        cfg.Tools.URL,
			Timeout:    cfg.Tools.Timeout.Std(),
			RetryCount: cfg.Tools.RetryCount,
			RetryDelay: cfg.Tools.RetryDelay.Std(),
		},
		Resolver:      agent.NewReferenceResolver(store, cfg.Agent.ReferenceMaxTurns, cfg.Agent.ReferenceMaxAge.Std(), logger),
		Window:        agent.NewContextWindowManager(store, cfg.Agent.MaxContextTokens, cfg.Agent.FilterTaskRefs(), logger),
		DayTimes:      dayTimes,
		MaxIterations: cfg.Agent.MaxIterations,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(orchestrator, store, logger).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// dayTimesFrom converts the configured "HH:MM[:SS]" strings into the
// normalization clocks. Falls back to the stock convention for empty values.
func dayTimesFrom(cfg config.AgentConfig) (normalize.DayTimes, error) {
	dayTimes := normalize.DefaultDayTimes()

	if cfg.EndOfDay != "" {
		h, m, s, err := config.ParseClock(cfg.EndOfDay)
		if err != nil {
			return dayTimes, fmt.Errorf("invalid endOfDay: %w", err)
		}
		dayTimes.EndOfDay = normalize.Clock{Hour: h, Minute: m, Second: s}
	}
	if cfg.CloseOfBusiness != "" {
		h, m, s, err := config.ParseClock(cfg.CloseOfBusiness)
		if err != nil {
			return dayTimes, fmt.Errorf("invalid closeOfBusiness: %w", err)
		}
		dayTimes.CloseOfBusiness = normalize.Clock{Hour: h, Minute: m, Second: s}
	}

	return dayTimes, nil
}
