// Package corpus owns the persisted posting store: loading, retention
// aging, closure probing, merging, and the atomic write.
package corpus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"jobwatch/internal/model"
)

// Store reads and writes the single-file corpus.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a Store for the corpus file at path.
func NewStore(path string, log *slog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the existing corpus. A missing or unreadable file is treated
// as an empty corpus: the run proceeds and writes a fresh file.
func (s *Store) Load() *model.Corpus {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read corpus, starting empty", "path", s.path, "error", err)
		}
		return &model.Corpus{}
	}

	var c model.Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		s.log.Warn("corpus unreadable, starting empty", "path", s.path, "error", err)
		return &model.Corpus{}
	}
	return &c
}

// Write serializes the corpus with a trailing newline and swaps it into
// place via a temporary file, so a crash never leaves a torn corpus.
func (s *Store) Write(c *model.Corpus) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".jobs-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("swap corpus file: %w", err)
	}
	return nil
}

// RetentionCutoff is start-of-UTC-day(now) minus the retention window.
func RetentionCutoff(now time.Time, retentionDays int) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -retentionDays)
}

// Age drops postings older than the retention cutoff and reports how many
// were purged.
func Age(postings []model.Posting, now time.Time, retentionDays int) (kept []model.Posting, purged int) {
	cutoff := RetentionCutoff(now, retentionDays)
	kept = make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if p.DatePosted.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, p)
	}
	return kept, purged
}

// IsDeepRun reports whether now falls in a designated deep-run slot: three
// per UTC day, in the first half-hour.
func IsDeepRun(now time.Time) bool {
	u := now.UTC()
	switch u.Hour() {
	case 0, 8, 16:
		return u.Minute() < 30
	}
	return false
}

// Merge folds incoming postings into the existing set, keyed by posting
// ID. On conflict the newer-by-post-time record wins, with empty fields
// falling back to the older record. Returns the merged set sorted newest
// first and the count of genuinely new IDs.
func Merge(existing, incoming []model.Posting) (merged []model.Posting, added int) {
	byID := make(map[string]model.Posting, len(existing))
	order := make([]string, 0, len(existing)+len(incoming))
	for _, p := range existing {
		if _, ok := byID[p.JobID]; !ok {
			order = append(order, p.JobID)
		}
		byID[p.JobID] = p
	}

	for _, p := range incoming {
		old, ok := byID[p.JobID]
		if !ok {
			byID[p.JobID] = p
			order = append(order, p.JobID)
			added++
			continue
		}
		byID[p.JobID] = mergePosting(old, p)
	}

	merged = make([]model.Posting, 0, len(byID))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DatePosted.After(merged[j].DatePosted)
	})
	return merged, added
}

// mergePosting resolves a same-ID conflict: the newer record's fields win
// and missing fields fall back to the older record.
func mergePosting(a, b model.Posting) model.Posting {
	newer, older := a, b
	if b.DatePosted.After(a.DatePosted) {
		newer, older = b, a
	}

	out := newer
	out.Title = firstNonEmpty(newer.Title, older.Title)
	out.Company = firstNonEmpty(newer.Company, older.Company)
	out.Location = firstNonEmpty(newer.Location, older.Location)
	out.Type = firstNonEmpty(newer.Type, older.Type)
	out.URL = firstNonEmpty(newer.URL, older.URL)
	out.Source = firstNonEmpty(newer.Source, older.Source)
	out.SourceURL = firstNonEmpty(newer.SourceURL, older.SourceURL)
	out.Description = firstNonEmpty(newer.Description, older.Description)
	out.CompanyURL = firstNonEmpty(newer.CompanyURL, older.CompanyURL)
	if newer.Yoe == "" || newer.Yoe == model.YoeUnknown {
		out.Yoe = firstNonEmpty(older.Yoe, newer.Yoe)
	}
	if newer.Classification.RoleType == "" {
		out.Classification = older.Classification
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
