package websearch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jobwatch/internal/model"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubClient struct {
	body string
	reqs []*http.Request
}

func (s *stubClient) Do(req *http.Request) (*http.Response, error) {
	s.reqs = append(s.reqs, req)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     make(http.Header),
	}, nil
}

func TestRunDisabledWithoutKey(t *testing.T) {
	stub := &stubClient{}
	c := New("", stub, testLog)

	if hits := c.Run(context.Background(), []string{"sdet"}); hits != nil {
		t.Errorf("disabled client returned hits: %v", hits)
	}
	if len(stub.reqs) != 0 {
		t.Errorf("disabled client made %d requests", len(stub.reqs))
	}
}

func TestRunFiltersPostingLinks(t *testing.T) {
	stub := &stubClient{body: `{
		"organic": [
			{"title": "Senior SDET", "link": "https://www.linkedin.com/jobs/view/4300865412"},
			{"title": "10 tips for interviews", "link": "https://blog.example.com/tips"},
			{"title": "QA Engineer", "link": "https://www.linkedin.com/jobs/view/4300870001?refId=x"}
		]
	}`}
	c := New("test-key", stub, testLog)

	hits := c.Run(context.Background(), []string{"sdet"})

	want := []model.SearchHit{
		{URL: "https://www.linkedin.com/jobs/view/4300865412", Title: "Senior SDET", Keyword: "websearch:sdet"},
		{URL: "https://www.linkedin.com/jobs/view/4300870001?refId=x", Title: "QA Engineer", Keyword: "websearch:sdet"},
	}
	if diff := cmp.Diff(want, hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}

	if len(stub.reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(stub.reqs))
	}
	req := stub.reqs[0]
	if req.Method != http.MethodPost || req.Header.Get("X-API-KEY") != "test-key" {
		t.Errorf("request not authenticated: %s %v", req.Method, req.Header)
	}
}
