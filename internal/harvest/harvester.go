// Package harvest pages through the job board's guest search wrapper and
// produces SearchHits for downstream enrichment.
package harvest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobwatch/internal/httpx"
	"jobwatch/internal/model"
)

const (
	searchPath  = "/jobs-guest/jobs/api/seeMoreJobPostings/search"
	pageSize    = 25
	maxBodySize = 4 << 20

	pageDelay    = 500 * time.Millisecond
	keywordDelay = 1000 * time.Millisecond
)

// Base query applied to every search: location, full-time, mid-to-senior
// experience bands, recency sort. The date-since filter derives from the
// freshness window.
const (
	queryLocation   = "United States"
	queryJobType    = "F"
	queryExperience = "2,3,4"
	querySort       = "DD"
)

// Harvester pages through keyword searches against the board.
type Harvester struct {
	client     httpx.Client
	baseURL    string
	pageCap    int
	freshHours int
	log        *slog.Logger

	// sleep is swappable so tests run without politeness pauses.
	sleep func(time.Duration)
}

// New creates a Harvester.
func New(client httpx.Client, baseURL string, pageCap, freshHours int, log *slog.Logger) *Harvester {
	return &Harvester{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageCap:    pageCap,
		freshHours: freshHours,
		log:        log,
		sleep:      time.Sleep,
	}
}

// SetSleep overrides the politeness pause (tests only).
func (h *Harvester) SetSleep(f func(time.Duration)) { h.sleep = f }

// Run harvests every keyword in order and returns all hits, tagged with the
// keyword that produced them. A keyword failure is logged and that keyword
// abandoned; the others proceed.
func (h *Harvester) Run(ctx context.Context, keywords []string) []model.SearchHit {
	var hits []model.SearchHit

	for i, kw := range keywords {
		if ctx.Err() != nil {
			return hits
		}
		if i > 0 {
			h.sleep(keywordDelay)
		}

		kwHits, err := h.harvestKeyword(ctx, kw)
		if err != nil {
			h.log.Error("harvest keyword", "keyword", kw, "error", err)
			continue
		}
		h.log.Info("harvested keyword", "keyword", kw, "hits", len(kwHits))
		hits = append(hits, kwHits...)
	}

	return hits
}

func (h *Harvester) harvestKeyword(ctx context.Context, keyword string) ([]model.SearchHit, error) {
	var hits []model.SearchHit

	for page := 0; page < h.pageCap; page++ {
		if page > 0 {
			h.sleep(pageDelay)
		}

		body, err := httpx.Get(ctx, h.client, h.pageURL(keyword, page), maxBodySize)
		if err != nil {
			return hits, fmt.Errorf("page %d: %w", page, err)
		}

		pageHits, err := parseSearchPage(body, keyword)
		if err != nil {
			return hits, fmt.Errorf("parse page %d: %w", page, err)
		}
		if len(pageHits) == 0 {
			break
		}
		hits = append(hits, pageHits...)
	}

	return hits, nil
}

func (h *Harvester) pageURL(keyword string, page int) string {
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("location", queryLocation)
	params.Set("f_TPR", "r"+strconv.Itoa(h.freshHours*3600))
	params.Set("f_JT", queryJobType)
	params.Set("f_E", queryExperience)
	params.Set("sortBy", querySort)
	params.Set("start", strconv.Itoa(page*pageSize))
	return h.baseURL + searchPath + "?" + params.Encode()
}

// parseSearchPage extracts hit cards from a search-result HTML fragment.
// An empty or card-less fragment yields zero hits, which ends the keyword.
func parseSearchPage(body []byte, keyword string) ([]model.SearchHit, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var hits []model.SearchHit
	doc.Find("li").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a.base-card__full-link").Attr("href")
		if !ok || href == "" {
			return
		}

		hit := model.SearchHit{
			URL:      strings.TrimSpace(href),
			Title:    cardText(card, ".base-search-card__title"),
			Company:  cardText(card, ".base-search-card__subtitle"),
			Location: cardText(card, ".job-search-card__location"),
			Keyword:  keyword,
		}

		timeEl := card.Find("time").First()
		hit.AgoTime = strings.TrimSpace(timeEl.Text())
		hit.ISODate, _ = timeEl.Attr("datetime")

		hits = append(hits, hit)
	})

	return hits, nil
}

func cardText(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}
