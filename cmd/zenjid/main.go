// Command zenjid is the Zenjispace daemon: it owns the local state store, the
// GitHub identity session, the integration adapters, and the cloud sync
// engine, and serves the dashboard's message contract over HTTP.
//
// All logic lives in the internal packages; main only loads configuration,
// builds the logger, and starts the server.
package main

import (
	"log/slog"
	"os"

	"github.com/zenjispace/zenjid/internal/config"
	"github.com/zenjispace/zenjid/internal/server"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("ZENJID_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start daemon", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("daemon error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
