package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"JOBS_OUTPUT_PATH", "JOBS_KEYWORDS", "JOBS_BASE_URL",
		"JOBS_FRESH_HOURS", "JOBS_RETENTION_DAYS", "JOBS_PAGE_CAP",
		"TELEGRAM_CHAT_ID", "JOBS_FEEDS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OutputPath != "./data/jobs.json" {
		t.Errorf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.BaseURL != "https://www.linkedin.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.FreshHours != DefaultFreshHours || cfg.RetentionDays != DefaultRetentionDays || cfg.PageCap != DefaultPageCap {
		t.Errorf("windows = %d/%d/%d, want defaults", cfg.FreshHours, cfg.RetentionDays, cfg.PageCap)
	}
	if diff := cmp.Diff(defaultKeywords, cfg.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
	if cfg.Now == nil {
		t.Error("Now clock not set")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JOBS_OUTPUT_PATH", "/tmp/out.json")
	t.Setenv("JOBS_KEYWORDS", " sdet , qa engineer ,, ")
	t.Setenv("JOBS_BASE_URL", "https://board.test/")
	t.Setenv("JOBS_FRESH_HOURS", "4")
	t.Setenv("JOBS_RETENTION_DAYS", "14")
	t.Setenv("JOBS_PAGE_CAP", "2")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123456")
	t.Setenv("JOBS_FEEDS", "https://a.test/feed,https://b.test/feed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BaseURL != "https://board.test" {
		t.Errorf("BaseURL = %q, trailing slash not trimmed", cfg.BaseURL)
	}
	if diff := cmp.Diff([]string{"sdet", "qa engineer"}, cfg.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
	if cfg.FreshHours != 4 || cfg.RetentionDays != 14 || cfg.PageCap != 2 {
		t.Errorf("windows = %d/%d/%d", cfg.FreshHours, cfg.RetentionDays, cfg.PageCap)
	}
	if cfg.TelegramChat != -100123456 {
		t.Errorf("TelegramChat = %d", cfg.TelegramChat)
	}
	if diff := cmp.Diff([]string{"https://a.test/feed", "https://b.test/feed"}, cfg.FeedURLs); diff != "" {
		t.Errorf("feeds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"JOBS_FRESH_HOURS", "soon"},
		{"JOBS_FRESH_HOURS", "0"},
		{"JOBS_RETENTION_DAYS", "-1"},
		{"JOBS_PAGE_CAP", "many"},
		{"TELEGRAM_CHAT_ID", "not-a-number"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}
