package corpus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"jobwatch/internal/model"
)

// probeConcurrency caps the closure-probe fan-out so the one parallel
// stage cannot hammer the upstream board.
const probeConcurrency = 8

// probeMinAge: only postings older than this are worth re-checking.
const probeMinAge = 48 * time.Hour

// Prober re-fetches a posting's detail record. Satisfied by detail.Fetcher.
type Prober interface {
	Fetch(ctx context.Context, id string, now time.Time) model.DetailRecord
}

// ProbeClosed re-checks aged primary-board postings and drops those whose
// detail page reports them closed. Probes run in parallel under a bounded
// semaphore; a failed probe keeps its posting.
func ProbeClosed(ctx context.Context, postings []model.Posting, prober Prober, now time.Time, log *slog.Logger) (kept []model.Posting, dropped int) {
	var candidates []int
	for i, p := range postings {
		if p.Source == model.SourceLinkedIn && now.Sub(p.DatePosted) > probeMinAge {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return postings, 0
	}
	log.Info("probing aged postings for closure", "count", len(candidates))

	sem := semaphore.NewWeighted(probeConcurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	closed := make(map[int]bool, len(candidates))

	for _, idx := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)

			rec := prober.Fetch(ctx, postings[idx].JobID, now)
			if rec.Closed != nil && *rec.Closed {
				mu.Lock()
				closed[idx] = true
				mu.Unlock()
			}
		}(idx)
	}
	wg.Wait()

	kept = make([]model.Posting, 0, len(postings))
	for i, p := range postings {
		if closed[i] {
			dropped++
			log.Info("dropping closed posting", "job_id", p.JobID, "title", p.Title)
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}
