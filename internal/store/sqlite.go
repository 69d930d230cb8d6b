// Package store persists daily report snapshots so the dashboard can serve
// history without recomputing past days.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports that no snapshot exists for the requested date.
var ErrNotFound = eris.New("store: snapshot not found")

// Snapshot is one stored report.
type Snapshot struct {
	ID         string    `json:"id"`
	ReportDate string    `json:"report_date"`
	Payload    []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotStore keeps report snapshots in SQLite, one row per report date.
type SnapshotStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the snapshot database at dsn and configures
// WAL mode.
func NewSQLite(dsn string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &SnapshotStore{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS report_snapshots (
	id          TEXT PRIMARY KEY,
	report_date TEXT NOT NULL UNIQUE,
	payload     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_report_snapshots_date ON report_snapshots(report_date);
`

// Migrate creates the snapshot schema.
func (s *SnapshotStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Save stores payload as the snapshot for reportDate (YYYY-MM-DD),
// replacing any earlier snapshot of the same date.
func (s *SnapshotStore) Save(ctx context.Context, reportDate string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_snapshots (id, report_date, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(report_date) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at`,
		uuid.New().String(), reportDate, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "store: save snapshot %s", reportDate)
}

// Get returns the snapshot payload for reportDate, ErrNotFound when absent.
func (s *SnapshotStore) Get(ctx context.Context, reportDate string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM report_snapshots WHERE report_date = ?`, reportDate,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: get snapshot %s", reportDate)
	}
	return []byte(payload), nil
}

// List returns the most recent snapshots, newest first, without payloads.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 31
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_date, created_at
		FROM report_snapshots
		ORDER BY report_date DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.ReportDate, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan snapshot")
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate snapshots")
}

// Close releases the database handle.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
