package detail

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var (
	testLog = slog.New(slog.NewTextHandler(io.Discard, nil))
	now     = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
)

// stubClient answers every request with a fixed body and status.
type stubClient struct {
	status int
	body   string
	urls   []string
}

func (s *stubClient) Do(req *http.Request) (*http.Response, error) {
	s.urls = append(s.urls, req.URL.String())
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     make(http.Header),
	}, nil
}

func TestFetchJSON(t *testing.T) {
	client := &stubClient{body: `{
		"postedAt": 1787917200000,
		"applyUrl": "https://careers.example.com/apply/42",
		"description": "5+ years of experience in test automation",
		"companyUrl": "https://www.linkedin.com/company/bigcorp",
		"closed": false
	}`}

	f := New(client, "https://www.linkedin.com", testLog)
	rec := f.Fetch(context.Background(), "4300865412", now)

	if rec.PostedAt == nil {
		t.Fatal("PostedAt is nil")
	}
	want := time.UnixMilli(1787917200000).UTC()
	if !rec.PostedAt.Equal(want) {
		t.Errorf("PostedAt = %v, want %v", rec.PostedAt, want)
	}
	if rec.ApplyURL != "https://careers.example.com/apply/42" {
		t.Errorf("ApplyURL = %q", rec.ApplyURL)
	}
	if rec.Closed == nil || *rec.Closed {
		t.Errorf("Closed = %v, want false", rec.Closed)
	}

	wantURL := "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/4300865412"
	if len(client.urls) != 1 || client.urls[0] != wantURL {
		t.Errorf("requested %v, want [%s]", client.urls, wantURL)
	}
}

func TestFetchJSONEpochSeconds(t *testing.T) {
	client := &stubClient{body: `{"postedAt": 1787917200}`}
	f := New(client, "https://www.linkedin.com", testLog)
	rec := f.Fetch(context.Background(), "1", now)

	if rec.PostedAt == nil {
		t.Fatal("PostedAt is nil")
	}
	want := time.Unix(1787917200, 0).UTC()
	if !rec.PostedAt.Equal(want) {
		t.Errorf("PostedAt = %v, want %v", rec.PostedAt, want)
	}
}

const detailHTML = `
<section>
  <span class="posted-time-ago__text">2 hours ago</span>
  <a class="topcard__org-name-link" href="https://www.linkedin.com/company/bigcorp?trk=x">BigCorp</a>
  <div class="show-more-less-html__markup">
    <p>We build things.</p>
    <ul>
      <li>5+ years of <span>experience</span></li>
      <li>Selenium &amp; Cypress</li>
    </ul>
  </div>
  <code>{"applyUrl":"https:\/\/careers.example.com\/apply\/42"}</code>
</section>`

func TestFetchHTML(t *testing.T) {
	client := &stubClient{body: detailHTML}
	f := New(client, "https://www.linkedin.com", testLog)
	rec := f.Fetch(context.Background(), "4300865412", now)

	if rec.PostedAt == nil || !rec.PostedAt.Equal(now.Add(-2*time.Hour)) {
		t.Errorf("PostedAt = %v, want %v", rec.PostedAt, now.Add(-2*time.Hour))
	}
	if rec.ApplyURL != "https://careers.example.com/apply/42" {
		t.Errorf("ApplyURL = %q, escaped slashes not cleaned", rec.ApplyURL)
	}
	if rec.CompanyURL != "https://www.linkedin.com/company/bigcorp?trk=x" {
		t.Errorf("CompanyURL = %q", rec.CompanyURL)
	}
	if rec.Closed != nil {
		t.Errorf("Closed = %v, want nil for open posting", *rec.Closed)
	}

	wantDesc := "We build things.\n\n* 5+ years of experience\n* Selenium & Cypress"
	if diff := cmp.Diff(wantDesc, rec.Description); diff != "" {
		t.Errorf("Description mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchHTMLClosed(t *testing.T) {
	client := &stubClient{body: `<div class="closed-job">No longer accepting applications</div>`}
	f := New(client, "https://www.linkedin.com", testLog)
	rec := f.Fetch(context.Background(), "1", now)

	if rec.Closed == nil || !*rec.Closed {
		t.Errorf("Closed = %v, want true", rec.Closed)
	}
}

func TestFetchFailureYieldsEmpty(t *testing.T) {
	client := &stubClient{status: http.StatusNotFound, body: "gone"}
	f := New(client, "https://www.linkedin.com", testLog)
	rec := f.Fetch(context.Background(), "1", now)

	if diff := cmp.Diff(rec.PostedAt, (*time.Time)(nil)); diff != "" {
		t.Errorf("failed fetch should yield empty record, got PostedAt %v", rec.PostedAt)
	}
	if rec.Description != "" || rec.ApplyURL != "" || rec.Closed != nil {
		t.Errorf("failed fetch should yield empty record, got %+v", rec)
	}
}

func TestMarkupToText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "bullets",
			markup: "<ul><li>one</li><li>two</li></ul>",
			want:   "* one\n* two",
		},
		{
			name:   "breaks and paragraphs",
			markup: "<p>first</p><br><p>second</p>",
			want:   "first\n\nsecond",
		},
		{
			name:   "blank runs compacted",
			markup: "<p>a</p><div></div><div></div><div></div><p>b</p>",
			want:   "a\n\nb",
		},
		{
			name:   "entities unescaped",
			markup: "<p>C&#43;&#43; &amp; Go</p>",
			want:   "C++ & Go",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, markupToText(tt.markup)); diff != "" {
				t.Errorf("markupToText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
