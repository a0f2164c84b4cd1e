// Package store records classification runs in a SQLite database so that
// accuracy can be compared across k, backends and datasets over time.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	dataset     TEXT NOT NULL,
	k           INTEGER NOT NULL,
	backend     TEXT NOT NULL,
	n_train     INTEGER NOT NULL,
	n_test      INTEGER NOT NULL,
	accuracy    REAL NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one recorded classification run.
type Run struct {
	ID        string
	StartedAt time.Time
	Dataset   string
	K         int
	Backend   string
	NTrain    int
	NTest     int
	Accuracy  float64
	Duration  time.Duration
}

// Store is a run history backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.NewValidationError("history_db", "must not be empty", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}
	// in-memory データベースは接続ごとに別物になるため1本に固定する
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply history schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts run. An empty ID is replaced by a new UUID and a zero
// StartedAt by the current time; the stored run is returned.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, dataset, k, backend, n_train, n_test, accuracy, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UnixMilli(),
		run.Dataset,
		run.K,
		run.Backend,
		run.NTrain,
		run.NTest,
		run.Accuracy,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return Run{}, errors.Wrap(err, "failed to record run")
	}
	return run, nil
}

// List returns up to limit runs, most recent first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: 負の LIMIT は無制限
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, dataset, k, backend, n_train, n_test, accuracy, duration_ms
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			durationMs int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &r.Dataset, &r.K, &r.Backend,
			&r.NTrain, &r.NTest, &r.Accuracy, &durationMs); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		r.StartedAt = time.UnixMilli(startedAt)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}
