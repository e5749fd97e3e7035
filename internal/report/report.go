// Package report publishes a short run summary: a Markdown block appended
// to a file when one is configured, and an optional Telegram message.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobwatch/internal/model"
)

// Reporter writes run summaries. Both sinks are optional; with neither
// configured the summary only goes to the log.
type Reporter struct {
	summaryPath string
	bot         *tgbotapi.BotAPI
	chatID      int64
	log         *slog.Logger
}

// New creates a Reporter. An empty token disables Telegram; an empty
// summaryPath disables the Markdown block.
func New(summaryPath, telegramToken string, chatID int64, log *slog.Logger) *Reporter {
	r := &Reporter{summaryPath: summaryPath, chatID: chatID, log: log}

	if telegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(telegramToken)
		if err != nil {
			log.Error("init telegram bot, reports disabled", "error", err)
		} else {
			r.bot = bot
		}
	}
	return r
}

// Publish emits the run summary to every configured sink. Failures are
// logged; reporting never fails the batch.
func (r *Reporter) Publish(stats model.RunStats) {
	r.log.Info("run complete",
		"harvested", stats.Harvested,
		"deduped", stats.Deduped,
		"repost_drops", stats.RepostDrops,
		"fresh", stats.Fresh,
		"added", stats.Added,
		"purged", stats.Purged,
		"probed_closed", stats.ProbedClose,
		"total", stats.Total,
		"duration", stats.Duration,
	)

	if r.summaryPath != "" {
		if err := appendMarkdown(r.summaryPath, stats); err != nil {
			r.log.Error("append run summary", "path", r.summaryPath, "error", err)
		}
	}

	if r.bot != nil {
		msg := tgbotapi.NewMessage(r.chatID, telegramText(stats))
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := r.bot.Send(msg); err != nil {
			r.log.Error("send telegram report", "error", err)
		}
	}
}

func appendMarkdown(path string, stats model.RunStats) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open summary file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(Markdown(stats)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Markdown renders the run summary block.
func Markdown(stats model.RunStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Jobs pipeline run %s\n\n", stats.StartedAt.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| harvested | %d |\n", stats.Harvested)
	fmt.Fprintf(&b, "| after dedup | %d |\n", stats.Deduped)
	fmt.Fprintf(&b, "| repost drops | %d |\n", stats.RepostDrops)
	fmt.Fprintf(&b, "| fresh | %d |\n", stats.Fresh)
	fmt.Fprintf(&b, "| added | %d |\n", stats.Added)
	fmt.Fprintf(&b, "| purged | %d |\n", stats.Purged)
	fmt.Fprintf(&b, "| probed closed | %d |\n", stats.ProbedClose)
	fmt.Fprintf(&b, "| corpus total | %d |\n", stats.Total)
	fmt.Fprintf(&b, "| duration | %s |\n\n", stats.Duration.Round(time.Millisecond))
	return b.String()
}

func telegramText(stats model.RunStats) string {
	return fmt.Sprintf(
		"<b>Jobs pipeline</b>: %d added, %d purged, %d total (%d harvested, %d repost drops)",
		stats.Added, stats.Purged, stats.Total, stats.Harvested, stats.RepostDrops,
	)
}
