// Package main is the entry point for the snippet manager server. It loads
// configuration, creates the logger and the optional Docker runner, and
// hands everything to internal/server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/snipy/internal/config"
	"github.com/sakif/snipy/internal/executor"
	"github.com/sakif/snipy/internal/executor/docker"
	"github.com/sakif/snipy/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The database directory may not exist on first run.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// The Docker runner is optional: without a daemon the server still
	// starts, and POST /api/snippets/{id}/run reports execution disabled.
	var exec executor.Executor
	if cfg.RunnerEnabled {
		dockerExec, err := docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("Docker runner unavailable, snippet execution disabled",
				slog.String("error", err.Error()),
			)
		} else {
			defer dockerExec.Close()
			exec = dockerExec
		}
	}

	srv, err := server.New(cfg, logger, exec)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
