package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"jobwatch/internal/model"
	"jobwatch/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RecordRun inserts one run-summary row.
func (s *SQLite) RecordRun(ctx context.Context, st model.RunStats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, duration_ms, harvested, deduped, repost_drops,
		                   fresh, added, purged, probed_closed, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.StartedAt.UTC().Format(timeLayout), st.Duration.Milliseconds(),
		st.Harvested, st.Deduped, st.RepostDrops,
		st.Fresh, st.Added, st.Purged, st.ProbedClose, st.Total,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *SQLite) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, harvested, deduped, repost_drops,
		        fresh, added, purged, probed_closed, total
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(
			&r.ID, &started, &r.DurationMs, &r.Harvested, &r.Deduped, &r.RepostDrops,
			&r.Fresh, &r.Added, &r.Purged, &r.ProbedClose, &r.Total,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RepostDropSum totals repost drops recorded since the given time.
func (s *SQLite) RepostDropSum(ctx context.Context, since time.Time) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(repost_drops) FROM runs WHERE started_at >= ?`,
		since.UTC().Format(timeLayout),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum repost drops: %w", err)
	}
	return int(total.Int64), nil
}
