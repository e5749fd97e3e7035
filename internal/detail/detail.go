// Package detail fetches a posting's detail endpoint and extracts the
// fields the search cards don't carry: exact post time, apply URL, full
// description, company URL, and whether the posting has closed.
package detail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobwatch/internal/agotime"
	"jobwatch/internal/httpx"
	"jobwatch/internal/model"
)

const (
	postingPath = "/jobs-guest/jobs/api/jobPosting/"
	maxBodySize = 2 << 20
)

// Fetcher retrieves and parses posting detail pages. The endpoint answers
// with either a JSON document or an HTML fragment depending on mood; both
// shapes are handled.
type Fetcher struct {
	client  httpx.Client
	baseURL string
	log     *slog.Logger
}

// New creates a Fetcher.
func New(client httpx.Client, baseURL string, log *slog.Logger) *Fetcher {
	return &Fetcher{client: client, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Fetch retrieves the detail record for one posting ID. Failures are
// logged and yield an empty record; they are never fatal for the batch.
func (f *Fetcher) Fetch(ctx context.Context, id string, now time.Time) model.DetailRecord {
	body, err := httpx.Get(ctx, f.client, f.baseURL+postingPath+id, maxBodySize)
	if err != nil {
		f.log.Error("fetch detail", "job_id", id, "error", err)
		return model.DetailRecord{}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if rec, err := parseJSON(trimmed); err == nil {
			return rec
		}
		// Fall through: some error pages are JSON-shaped but useless.
	}

	rec, err := parseHTML(trimmed, now)
	if err != nil {
		f.log.Error("parse detail", "job_id", id, "error", err)
		return model.DetailRecord{}
	}
	return rec
}

// jsonPosting mirrors the structured detail response.
type jsonPosting struct {
	PostedAt    *float64 `json:"postedAt"`
	ApplyURL    string   `json:"applyUrl"`
	Description string   `json:"description"`
	CompanyURL  string   `json:"companyUrl"`
	Closed      *bool    `json:"closed"`
}

func parseJSON(body []byte) (model.DetailRecord, error) {
	var p jsonPosting
	if err := json.Unmarshal(body, &p); err != nil {
		return model.DetailRecord{}, fmt.Errorf("json unmarshal: %w", err)
	}

	rec := model.DetailRecord{
		ApplyURL:    p.ApplyURL,
		Description: p.Description,
		CompanyURL:  p.CompanyURL,
		Closed:      p.Closed,
	}
	if p.PostedAt != nil {
		rec.PostedAt = epochToTime(*p.PostedAt)
	}
	return rec, nil
}

// epochToTime accepts epoch milliseconds or seconds.
func epochToTime(v float64) *time.Time {
	if v <= 0 {
		return nil
	}
	var t time.Time
	if v > 1e12 {
		t = time.UnixMilli(int64(v)).UTC()
	} else {
		t = time.Unix(int64(v), 0).UTC()
	}
	return &t
}

var applyURLRe = regexp.MustCompile(`"applyUrl"\s*:\s*"([^"]+)"`)

func parseHTML(body []byte, now time.Time) (model.DetailRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.DetailRecord{}, fmt.Errorf("parse html: %w", err)
	}

	var rec model.DetailRecord

	agoText := strings.TrimSpace(doc.Find(".posted-time-ago__text").First().Text())
	if t, ok := agotime.Parse(agoText, now); ok {
		rec.PostedAt = &t
	}

	if markup, err := doc.Find(".show-more-less-html__markup").First().Html(); err == nil && markup != "" {
		rec.Description = markupToText(markup)
	}

	if m := applyURLRe.FindSubmatch(body); m != nil {
		rec.ApplyURL = strings.ReplaceAll(string(m[1]), `\/`, "/")
	}

	if href, ok := doc.Find(`a[href*="/company/"]`).First().Attr("href"); ok {
		rec.CompanyURL = strings.TrimSpace(href)
	}

	if doc.Find(".closed-job, .top-card-layout__closed-job").Length() > 0 {
		closed := true
		rec.Closed = &closed
	}

	return rec, nil
}

var (
	liOpenRe     = regexp.MustCompile(`(?i)<li[^>]*>`)
	listOpenRe   = regexp.MustCompile(`(?i)<(?:ul|ol)[^>]*>`)
	blockCloseRe = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|ul|ol)>|<br\s*/?>`)
	spanCloseRe  = regexp.MustCompile(`(?i)</?span[^>]*>`)
	anyTagRe     = regexp.MustCompile(`<[^>]+>`)
	lineSpaceRe  = regexp.MustCompile(`[ \t]+`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// markupToText reduces the description container to plain text: list items
// become "* " bullets, block-level tags become newlines, runs of more than
// two blank lines are compacted.
func markupToText(markup string) string {
	// Newlines in the raw markup are insignificant; only tags decide breaks.
	s := strings.ReplaceAll(markup, "\n", " ")
	s = listOpenRe.ReplaceAllString(s, "\n")
	s = liOpenRe.ReplaceAllString(s, "\n* ")
	s = blockCloseRe.ReplaceAllString(s, "\n")
	s = spanCloseRe.ReplaceAllString(s, "")
	s = anyTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(lineSpaceRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
