// Package websearch is an optional adjunct that asks a web-search API for
// recent posting URLs the board's own search may have missed.
//
// Without an API key the adjunct is disabled: Run returns nil without
// error and the pipeline proceeds on the primary harvest alone.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"jobwatch/internal/httpx"
	"jobwatch/internal/model"
)

const endpoint = "https://google.serper.dev/search"

// Client queries the web-search API.
type Client struct {
	apiKey   string
	endpoint string
	client   httpx.Client
	log      *slog.Logger
}

// New creates a Client. An empty apiKey yields a disabled client.
func New(apiKey string, client httpx.Client, log *slog.Logger) *Client {
	return &Client{apiKey: apiKey, endpoint: endpoint, client: client, log: log}
}

// SetEndpoint overrides the API endpoint (tests only).
func (c *Client) SetEndpoint(url string) { c.endpoint = url }

type searchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type searchResponse struct {
	Organic []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic"`
}

// Run searches for each keyword and returns hits whose links point at
// posting pages. Missing key disables the adjunct; per-keyword failures
// are logged and skipped.
func (c *Client) Run(ctx context.Context, keywords []string) []model.SearchHit {
	if c.apiKey == "" {
		c.log.Debug("web-search adjunct disabled: no API key")
		return nil
	}

	var hits []model.SearchHit
	for _, kw := range keywords {
		if ctx.Err() != nil {
			return hits
		}
		kwHits, err := c.search(ctx, kw)
		if err != nil {
			c.log.Error("web search", "keyword", kw, "error", err)
			continue
		}
		hits = append(hits, kwHits...)
	}
	return hits
}

func (c *Client) search(ctx context.Context, keyword string) ([]model.SearchHit, error) {
	payload, err := json.Marshal(searchRequest{
		Query: fmt.Sprintf("site:linkedin.com/jobs/view %s", keyword),
		Num:   10,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var hits []model.SearchHit
	for _, r := range body.Organic {
		if !strings.Contains(r.Link, "/jobs/view/") {
			continue
		}
		hits = append(hits, model.SearchHit{
			URL:     r.Link,
			Title:   r.Title,
			Keyword: "websearch:" + keyword,
		})
	}
	return hits, nil
}
