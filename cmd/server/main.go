// Package main is the entry point for the Hacker News GraphQL server.
//
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (file, env vars, flags)
// 2. Create the logger and make sure the data directory exists
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/graph, etc.).
//
// Usage:
//
//	JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
//	go run ./cmd/server --config config.yaml --port 4000
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/sakif/hackernews/internal/config"
	"github.com/sakif/hackernews/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Any("config", cfg))

	// Ensure the data directory exists for file-backed SQLite.
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	if cfg.DBDriver == config.DriverSQLite && cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
