package harvest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"jobwatch/internal/httpx"
	"jobwatch/internal/model"
)

const maxFeedBody = 5 << 20

// FeedHarvester pulls extra SearchHits from configured job feeds. It is an
// optional adjunct; runs without configured feeds skip it entirely.
type FeedHarvester struct {
	client httpx.Client
	log    *slog.Logger
}

// NewFeedHarvester creates a FeedHarvester.
func NewFeedHarvester(client httpx.Client, log *slog.Logger) *FeedHarvester {
	return &FeedHarvester{client: client, log: log}
}

// Run fetches every feed URL and maps its items to SearchHits. A feed
// failure is logged and skipped.
func (f *FeedHarvester) Run(ctx context.Context, feedURLs []string) []model.SearchHit {
	var hits []model.SearchHit

	for _, feedURL := range feedURLs {
		if ctx.Err() != nil {
			return hits
		}
		feedHits, err := f.fetch(ctx, feedURL)
		if err != nil {
			f.log.Error("fetch feed", "url", feedURL, "error", err)
			continue
		}
		f.log.Info("harvested feed", "url", feedURL, "hits", len(feedHits))
		hits = append(hits, feedHits...)
	}

	return hits
}

func (f *FeedHarvester) fetch(ctx context.Context, feedURL string) ([]model.SearchHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", httpx.RandomUserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	keyword := "feed"
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		keyword = "feed:" + u.Host
	}

	hits := make([]model.SearchHit, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		hit := model.SearchHit{
			URL:     item.Link,
			Title:   item.Title,
			Company: feed.Title,
			Keyword: keyword,
			Source:  keyword,
		}
		if item.PublishedParsed != nil {
			hit.ISODate = item.PublishedParsed.UTC().Format("2006-01-02T15:04:05Z")
		}
		hits = append(hits, hit)
	}

	return hits, nil
}
