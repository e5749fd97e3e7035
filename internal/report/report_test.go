package report

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobwatch/internal/model"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

var stats = model.RunStats{
	StartedAt:   time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
	Duration:    90 * time.Second,
	Harvested:   120,
	Deduped:     95,
	RepostDrops: 7,
	Fresh:       12,
	Added:       9,
	Purged:      3,
	ProbedClose: 1,
	Total:       84,
}

func TestMarkdown(t *testing.T) {
	got := Markdown(stats)

	for _, want := range []string{
		"2026-08-24 08:00 UTC",
		"| harvested | 120 |",
		"| repost drops | 7 |",
		"| added | 9 |",
		"| corpus total | 84 |",
		"| duration | 1m30s |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown missing %q:\n%s", want, got)
		}
	}
}

func TestPublishAppendsSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	r := New(path, "", 0, testLog)

	r.Publish(stats)
	r.Publish(stats)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if got := strings.Count(string(raw), "### Jobs pipeline run"); got != 2 {
		t.Errorf("summary blocks = %d, want 2 (appended, not truncated)", got)
	}
}

func TestPublishWithoutSinks(t *testing.T) {
	// No summary path, no telegram token: must not panic or write anything.
	r := New("", "", 0, testLog)
	r.Publish(stats)
}

func TestTelegramText(t *testing.T) {
	got := telegramText(stats)
	for _, want := range []string{"9 added", "3 purged", "84 total", "7 repost drops"} {
		if !strings.Contains(got, want) {
			t.Errorf("telegram text missing %q: %s", want, got)
		}
	}
}
