// Package pipeline orchestrates one ingestion run: harvest, dedup, detail
// enrichment, freshness gating, extraction, classification, and the final
// corpus merge.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"jobwatch/internal/agotime"
	"jobwatch/internal/classify"
	"jobwatch/internal/config"
	"jobwatch/internal/corpus"
	"jobwatch/internal/detail"
	"jobwatch/internal/experience"
	"jobwatch/internal/harvest"
	"jobwatch/internal/httpx"
	"jobwatch/internal/jobid"
	"jobwatch/internal/model"
	"jobwatch/internal/report"
	"jobwatch/internal/runlog"
	"jobwatch/internal/sanitize"
	"jobwatch/internal/websearch"
)

const detailDelay = 500 * time.Millisecond

// Employment type implied by the base query's full-time filter.
const employmentType = "Full-time"

// Pipeline holds the wired stages of one ingestion run.
type Pipeline struct {
	cfg        *config.Config
	log        *slog.Logger
	store      *corpus.Store
	harvester  *harvest.Harvester
	feeds      *harvest.FeedHarvester
	webSearch  *websearch.Client
	detailer   *detail.Fetcher
	classifier *classify.Classifier
	runLog     runlog.Storage
	reporter   *report.Reporter

	sleep func(time.Duration)
}

// New wires a Pipeline from configuration.
func New(cfg *config.Config, cls *classify.Classifier, runLog runlog.Storage, log *slog.Logger) *Pipeline {
	return NewWithClient(cfg, cls, runLog, log, httpx.NewClient())
}

// NewWithClient wires a Pipeline around a custom HTTP client (useful for
// testing).
func NewWithClient(cfg *config.Config, cls *classify.Classifier, runLog runlog.Storage, log *slog.Logger, client httpx.Client) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		log:        log,
		store:      corpus.NewStore(cfg.OutputPath, log),
		harvester:  harvest.New(client, cfg.BaseURL, cfg.PageCap, cfg.FreshHours, log),
		feeds:      harvest.NewFeedHarvester(client, log),
		webSearch:  websearch.New(cfg.SearchAPIKey, client, log),
		detailer:   detail.New(client, cfg.BaseURL, log),
		classifier: cls,
		runLog:     runLog,
		reporter:   report.New(cfg.SummaryPath, cfg.TelegramToken, cfg.TelegramChat, log),
		sleep:      time.Sleep,
	}
}

// SetSleep overrides the politeness pause between detail fetches (tests).
func (p *Pipeline) SetSleep(f func(time.Duration)) {
	p.sleep = f
	p.harvester.SetSleep(f)
}

// Run executes one full batch. Only the final corpus write can fail it;
// every upstream error degrades to a logged skip.
func (p *Pipeline) Run(ctx context.Context) error {
	now := p.cfg.Now().UTC()
	stats := model.RunStats{StartedAt: now}

	existing := p.store.Load()

	hits := p.harvester.Run(ctx, p.cfg.Keywords)
	hits = append(hits, p.feeds.Run(ctx, p.cfg.FeedURLs)...)
	hits = append(hits, p.webSearch.Run(ctx, p.cfg.Keywords)...)
	stats.Harvested = len(hits)

	hits = dedupeByURL(hits)
	stats.Deduped = len(hits)

	survivors := p.filterKnown(hits, existing.Data, &stats)

	fresh := p.enrich(ctx, survivors, now, &stats)
	stats.Fresh = len(fresh)

	kept, purged := corpus.Age(existing.Data, now, p.cfg.RetentionDays)
	stats.Purged = purged

	if corpus.IsDeepRun(now) {
		var closedDrops int
		kept, closedDrops = corpus.ProbeClosed(ctx, kept, p.detailer, now, p.log)
		stats.ProbedClose = closedDrops
	}

	merged, added := corpus.Merge(kept, fresh)
	stats.Added = added
	stats.Total = len(merged)

	out := &model.Corpus{
		TotalCount:         len(merged),
		RecentlyAddedCount: added,
		RecentlyUpdatedOn:  existing.RecentlyUpdatedOn,
		Data:               merged,
	}
	if added > 0 {
		out.RecentlyUpdatedOn = &now
	}

	if err := p.store.Write(out); err != nil {
		return err
	}

	stats.Duration = p.cfg.Now().UTC().Sub(now)
	if err := p.runLog.RecordRun(ctx, stats); err != nil {
		p.log.Error("record run", "error", err)
	}
	p.reporter.Publish(stats)
	return nil
}

// dedupeByURL drops hits whose cleaned canonical URL was already seen,
// keeping the first occurrence.
func dedupeByURL(hits []model.SearchHit) []model.SearchHit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]model.SearchHit, 0, len(hits))
	for _, h := range hits {
		key := jobid.CleanURL(h.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

type idHit struct {
	hit model.SearchHit
	id  string

	// primary marks hits addressed on the main board: they get the
	// detail fetch and the repost heuristic. Adjunct hits whose URL is
	// not a board URL pass through with their own source metadata.
	primary bool
}

// filterKnown applies the ID-level filters: hits without digits, IDs
// already in the corpus, and the repost heuristic (any ID numerically
// below the maximum known board ID is assumed to be a repost). The
// heuristic only makes sense for board IDs, so adjunct hits with foreign
// URLs are exempt.
func (p *Pipeline) filterKnown(hits []model.SearchHit, existing []model.Posting, stats *model.RunStats) []idHit {
	known := make(map[string]struct{}, len(existing))
	ids := make([]string, 0, len(existing))
	for _, post := range existing {
		known[post.JobID] = struct{}{}
		if post.Source == model.SourceLinkedIn {
			ids = append(ids, post.JobID)
		}
	}
	maxKnown := jobid.Max(ids)

	var out []idHit
	for _, h := range hits {
		primary := h.Source == "" || jobid.FromBoardURL(h.URL) != ""

		id := jobid.FromURL(h.URL)
		if id == "" {
			p.log.Warn("no posting id in url", "url", h.URL)
			continue
		}
		if _, ok := known[id]; ok {
			stats.KnownDrops++
			continue
		}
		if primary && maxKnown != "" && jobid.Less(id, maxKnown) {
			stats.RepostDrops++
			p.log.Debug("repost heuristic drop", "job_id", id, "max_known", maxKnown)
			continue
		}
		out = append(out, idHit{hit: h, id: id, primary: primary})
	}

	if stats.RepostDrops > 0 {
		p.log.Info("repost heuristic drops", "count", stats.RepostDrops)
	}
	return out
}

// enrich fetches details for each surviving hit and builds full postings,
// applying the freshness gate and the text pipeline.
func (p *Pipeline) enrich(ctx context.Context, survivors []idHit, now time.Time, stats *model.RunStats) []model.Posting {
	freshCutoff := now.Add(-time.Duration(p.cfg.FreshHours) * time.Hour)

	var postings []model.Posting
	fetched := 0
	for _, s := range survivors {
		if ctx.Err() != nil {
			return postings
		}

		// The detail endpoint only knows board postings; adjunct hits
		// keep whatever the feed itself carried.
		var rec model.DetailRecord
		if s.primary {
			if fetched > 0 {
				p.sleep(detailDelay)
			}
			rec = p.detailer.Fetch(ctx, s.id, now)
			fetched++
		}

		postedAt, ok := resolvePostTime(s.hit, rec, now)
		if !ok {
			p.log.Info("dropping posting without post time", "job_id", s.id)
			continue
		}
		if postedAt.Before(freshCutoff) {
			p.log.Debug("dropping stale posting", "job_id", s.id, "posted_at", postedAt)
			continue
		}

		postings = append(postings, p.buildPosting(s, rec, postedAt))
	}
	return postings
}

// resolvePostTime picks the best post-time source: exact detail timestamp,
// then the card's relative-time string, then the card's datetime attribute.
// The result is clamped to now.
func resolvePostTime(hit model.SearchHit, rec model.DetailRecord, now time.Time) (time.Time, bool) {
	if rec.PostedAt != nil {
		t := rec.PostedAt.UTC()
		if t.After(now) {
			t = now
		}
		return t, true
	}
	if t, ok := agotime.Parse(hit.AgoTime, now); ok {
		return t.UTC(), true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02"} {
		if t, err := time.Parse(layout, hit.ISODate); err == nil {
			t = t.UTC()
			if t.After(now) {
				t = now
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *Pipeline) buildPosting(s idHit, rec model.DetailRecord, postedAt time.Time) model.Posting {
	title := sanitize.Clean(s.hit.Title)
	description := sanitize.Clean(rec.Description)
	canonical := jobid.CleanURL(s.hit.URL)

	yoe, ok := experience.Extract(title + " " + description)
	if !ok {
		yoe = model.YoeUnknown
	}

	destination := rec.ApplyURL
	if destination == "" {
		destination = canonical
	}

	source := model.SourceLinkedIn
	if !s.primary {
		source = s.hit.Source
	}

	return model.Posting{
		Title:          title,
		Company:        sanitize.Clean(s.hit.Company),
		Location:       s.hit.Location,
		Type:           employmentType,
		DatePosted:     postedAt,
		URL:            destination,
		Source:         source,
		SourceURL:      canonical,
		JobID:          s.id,
		Description:    description,
		CompanyURL:     rec.CompanyURL,
		Yoe:            yoe,
		Classification: p.classifier.Classify(title, description),
	}
}
