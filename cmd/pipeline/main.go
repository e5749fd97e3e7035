package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"jobwatch/internal/classify"
	"jobwatch/internal/config"
	"jobwatch/internal/pipeline"
	"jobwatch/internal/runlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	classifier, err := classify.LoadDefault()
	if err != nil {
		log.Error("load taxonomy", "error", err)
		os.Exit(1)
	}

	runLog := openRunLog(cfg, log)
	defer func() { _ = runLog.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting ingestion run", "keywords", len(cfg.Keywords), "output", cfg.OutputPath)

	p := pipeline.New(cfg, classifier, runLog, log)
	if err := p.Run(ctx); err != nil {
		log.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}

// openRunLog opens the sqlite run history; failure degrades to a no-op
// store because the run log must never block ingestion.
func openRunLog(cfg *config.Config, log *slog.Logger) runlog.Storage {
	if cfg.RunLogPath == "" {
		return runlog.Nop{}
	}
	if dir := filepath.Dir(cfg.RunLogPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Warn("create run-log directory", "path", dir, "error", err)
			return runlog.Nop{}
		}
	}
	store, err := runlog.NewSQLite(cfg.RunLogPath)
	if err != nil {
		log.Warn("open run log, continuing without", "path", cfg.RunLogPath, "error", err)
		return runlog.Nop{}
	}
	return store
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
