// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the scrape windows and paging.
const (
	DefaultFreshHours    = 8
	DefaultRetentionDays = 8
	DefaultPageCap       = 5
)

var defaultKeywords = []string{
	"sdet",
	"qa automation engineer",
	"software test engineer",
	"devops engineer",
	"site reliability engineer",
}

// Config holds the application configuration.
type Config struct {
	OutputPath    string
	Keywords      []string
	BaseURL       string
	FreshHours    int
	RetentionDays int
	PageCap       int

	SummaryPath   string // optional: append a Markdown run block here
	SearchAPIKey  string // optional: enables the web-search adjunct
	TelegramToken string // optional: enables the Telegram run report
	TelegramChat  int64
	FeedURLs      []string // optional: extra RSS sources
	RunLogPath    string   // sqlite run history; empty disables

	LogLevel string

	// Now is the process clock. Tests pin it; production uses time.Now.
	Now func() time.Time
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OutputPath:    envOr("JOBS_OUTPUT_PATH", "./data/jobs.json"),
		Keywords:      splitList(envOr("JOBS_KEYWORDS", "")),
		BaseURL:       strings.TrimRight(envOr("JOBS_BASE_URL", "https://www.linkedin.com"), "/"),
		SummaryPath:   os.Getenv("RUN_SUMMARY_PATH"),
		SearchAPIKey:  os.Getenv("SEARCH_API_KEY"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		FeedURLs:      splitList(os.Getenv("JOBS_FEEDS")),
		RunLogPath:    envOr("RUNLOG_DB_PATH", "./data/runlog.db"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		Now:           time.Now,
	}

	if len(cfg.Keywords) == 0 {
		cfg.Keywords = defaultKeywords
	}

	var err error
	if cfg.FreshHours, err = envInt("JOBS_FRESH_HOURS", DefaultFreshHours); err != nil {
		return nil, err
	}
	if cfg.RetentionDays, err = envInt("JOBS_RETENTION_DAYS", DefaultRetentionDays); err != nil {
		return nil, err
	}
	if cfg.PageCap, err = envInt("JOBS_PAGE_CAP", DefaultPageCap); err != nil {
		return nil, err
	}
	if cfg.FreshHours <= 0 {
		return nil, fmt.Errorf("JOBS_FRESH_HOURS must be positive, got %d", cfg.FreshHours)
	}
	if cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("JOBS_RETENTION_DAYS must be positive, got %d", cfg.RetentionDays)
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChat = id
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
