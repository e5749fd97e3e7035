// Package httpx holds the HTTP plumbing shared by the harvester, the
// detail fetcher, and the closure probe: a common client interface, a
// desktop user-agent pool, and a bounded retry helper.
package httpx

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// RequestTimeout applies to every upstream call.
const RequestTimeout = 12 * time.Second

// Client is the interface for performing HTTP requests.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient returns an http.Client with the standard request timeout.
func NewClient() *http.Client {
	return &http.Client{Timeout: RequestTimeout}
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
}

// RandomUserAgent picks a desktop user-agent for guest requests.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// NewRequest builds a GET request with the guest-traffic headers the board
// tolerates: randomized desktop UA, JSON-or-HTML accept, English locale.
func NewRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Accept", "application/json, text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return req, nil
}

// Get fetches url and returns the body. Non-2xx statuses are errors; 5xx
// and 429 are retried a bounded number of times with fibonacci backoff.
// This retry is for reliability only; politeness pacing between calls is
// the caller's job.
func Get(ctx context.Context, client Client, url string, maxBody int64) ([]byte, error) {
	var body []byte

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := NewRequest(ctx, url)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
