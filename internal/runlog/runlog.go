// Package runlog defines the run-history persistence interface and its
// implementations.
package runlog

import (
	"context"
	"time"

	"jobwatch/internal/model"
)

// Run is one recorded pipeline run.
type Run struct {
	ID          int64
	StartedAt   time.Time
	DurationMs  int64
	Harvested   int
	Deduped     int
	RepostDrops int
	Fresh       int
	Added       int
	Purged      int
	ProbedClose int
	Total       int
}

// Storage is the interface for run-history persistence. The run log is
// observability, not pipeline state: implementations must never make a
// batch fail.
type Storage interface {
	RecordRun(ctx context.Context, stats model.RunStats) error
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	// RepostDropSum totals repost-heuristic drops since a point in time,
	// so growth of the drop counter is observable.
	RepostDropSum(ctx context.Context, since time.Time) (int, error)
	Close() error
}

// Nop is the Storage used when the run log is disabled.
type Nop struct{}

func (Nop) RecordRun(context.Context, model.RunStats) error       { return nil }
func (Nop) RecentRuns(context.Context, int) ([]Run, error)        { return nil, nil }
func (Nop) RepostDropSum(context.Context, time.Time) (int, error) { return 0, nil }
func (Nop) Close() error                                          { return nil }
