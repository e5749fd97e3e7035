package harvest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/h2non/gock"

	"jobwatch/internal/model"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

const searchPageHTML = `
<ul>
  <li>
    <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/senior-sdet-4300865412?refId=x">
      Senior SDET
    </a>
    <h3 class="base-search-card__title"> Senior SDET </h3>
    <h4 class="base-search-card__subtitle">BigCorp</h4>
    <span class="job-search-card__location">Austin, TX</span>
    <time class="job-search-card__listdate" datetime="2026-08-24">2 hours ago</time>
  </li>
  <li>
    <div class="promo">sponsored card without a job link</div>
  </li>
  <li>
    <a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/4300870001"></a>
    <h3 class="base-search-card__title">QA Engineer</h3>
    <h4 class="base-search-card__subtitle">SmallCo</h4>
    <span class="job-search-card__location">Remote</span>
    <time>1 hour ago</time>
  </li>
</ul>`

func TestParseSearchPage(t *testing.T) {
	hits, err := parseSearchPage([]byte(searchPageHTML), "sdet")
	if err != nil {
		t.Fatalf("parseSearchPage: %v", err)
	}

	want := []model.SearchHit{
		{
			URL:      "https://www.linkedin.com/jobs/view/senior-sdet-4300865412?refId=x",
			Title:    "Senior SDET",
			Company:  "BigCorp",
			Location: "Austin, TX",
			AgoTime:  "2 hours ago",
			ISODate:  "2026-08-24",
			Keyword:  "sdet",
		},
		{
			URL:      "https://www.linkedin.com/jobs/view/4300870001",
			Title:    "QA Engineer",
			Company:  "SmallCo",
			Location: "Remote",
			AgoTime:  "1 hour ago",
			Keyword:  "sdet",
		},
	}
	if diff := cmp.Diff(want, hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSearchPageEmpty(t *testing.T) {
	for _, body := range []string{"", "   \n  ", "<ul></ul>"} {
		hits, err := parseSearchPage([]byte(body), "sdet")
		if err != nil {
			t.Fatalf("parseSearchPage(%q): %v", body, err)
		}
		if len(hits) != 0 {
			t.Errorf("parseSearchPage(%q) = %d hits, want 0", body, len(hits))
		}
	}
}

func newTestHarvester(t *testing.T, pageCap int) *Harvester {
	t.Helper()
	client := &http.Client{}
	gock.InterceptClient(client)
	t.Cleanup(gock.Off)

	h := New(client, "https://board.test", pageCap, 8, testLog)
	h.SetSleep(func(time.Duration) {})
	return h
}

func TestHarvesterStopsOnEmptyPage(t *testing.T) {
	h := newTestHarvester(t, 5)

	gock.New("https://board.test").
		Get("/jobs-guest/jobs/api/seeMoreJobPostings/search").
		MatchParam("keywords", "sdet").
		MatchParam("start", "0").
		Reply(200).
		BodyString(searchPageHTML)
	gock.New("https://board.test").
		Get("/jobs-guest/jobs/api/seeMoreJobPostings/search").
		MatchParam("keywords", "sdet").
		MatchParam("start", "25").
		Reply(200).
		BodyString("")

	hits := h.Run(context.Background(), []string{"sdet"})
	if len(hits) != 2 {
		t.Errorf("len(hits) = %d, want 2 (one populated page, then stop)", len(hits))
	}
	if !gock.IsDone() {
		t.Error("not all mocked pages were requested")
	}
}

func TestHarvesterQueryShape(t *testing.T) {
	h := newTestHarvester(t, 1)

	gock.New("https://board.test").
		Get("/jobs-guest/jobs/api/seeMoreJobPostings/search").
		MatchParam("keywords", "qa automation engineer").
		MatchParam("location", "United States").
		MatchParam("f_TPR", "r28800").
		MatchParam("f_JT", "F").
		MatchParam("f_E", "2,3,4").
		MatchParam("sortBy", "DD").
		MatchParam("start", "0").
		Reply(200).
		BodyString(searchPageHTML)

	hits := h.Run(context.Background(), []string{"qa automation engineer"})
	if len(hits) != 2 {
		t.Errorf("len(hits) = %d, want 2", len(hits))
	}
	if !gock.IsDone() {
		t.Error("search request did not carry the expected query parameters")
	}
}

func TestHarvesterKeywordFailureNonFatal(t *testing.T) {
	h := newTestHarvester(t, 1)

	// Every attempt for the first keyword fails, retries included.
	gock.New("https://board.test").
		Get("/jobs-guest/jobs/api/seeMoreJobPostings/search").
		MatchParam("keywords", "devops engineer").
		Persist().
		Reply(500)
	gock.New("https://board.test").
		Get("/jobs-guest/jobs/api/seeMoreJobPostings/search").
		MatchParam("keywords", "sdet").
		Reply(200).
		BodyString(searchPageHTML)

	hits := h.Run(context.Background(), []string{"devops engineer", "sdet"})
	if len(hits) != 2 {
		t.Errorf("len(hits) = %d, want 2 from the surviving keyword", len(hits))
	}
	for _, hit := range hits {
		if hit.Keyword != "sdet" {
			t.Errorf("hit keyword = %q, want %q", hit.Keyword, "sdet")
		}
	}
}

func TestHarvesterPageCap(t *testing.T) {
	h := newTestHarvester(t, 2)

	for _, start := range []string{"0", "25"} {
		gock.New("https://board.test").
			Get("/jobs-guest/jobs/api/seeMoreJobPostings/search").
			MatchParam("keywords", "sdet").
			MatchParam("start", start).
			Reply(200).
			BodyString(searchPageHTML)
	}

	hits := h.Run(context.Background(), []string{"sdet"})
	if len(hits) != 4 {
		t.Errorf("len(hits) = %d, want 4 (two pages, capped)", len(hits))
	}
	if !gock.IsDone() {
		t.Error("harvest stopped before the page cap")
	}
}
