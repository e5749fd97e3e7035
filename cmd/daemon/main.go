// Command daemon runs the ingestion pipeline on an internal cron loop for
// deployments without an external scheduler. The cron spec comes from
// JOBS_CRON_SPEC and defaults to the first-half-hour grid that keeps the
// deep-run slots reachable.
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
	"jobwatch/internal/scheduler"
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

	var runLog runlog.Storage = runlog.Nop{}
	if cfg.RunLogPath != "" {
		if store, err := runlog.NewSQLite(cfg.RunLogPath); err == nil {
			runLog = store
		} else {
			log.Warn("open run log, continuing without", "error", err)
		}
	}
	defer func() { _ = runLog.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(cfg, classifier, runLog, log)
	sched := scheduler.New(p, os.Getenv("JOBS_CRON_SPEC"), log)
	if err := sched.Start(ctx); err != nil {
		log.Error("start scheduler", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	sched.Stop()
	log.Info("daemon stopped")
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
