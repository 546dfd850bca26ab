// Package activitydb implements a sqlite-backed activity.Provider, storing
// each activity's bounding box alongside its encoded polyline so tile
// renders can be served by an indexed bbox query instead of a full scan.
package activitydb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/MeKo-Tech/routeheat/internal/activity"
	"github.com/MeKo-Tech/routeheat/internal/types"
)

// DefaultBatchSize is the number of activities buffered before an automatic
// flush to the database.
const DefaultBatchSize = 100

// Store is a sqlite-backed activity.Provider, also used by the prerender /
// ingestion path to populate the activities table.
type Store struct {
	db        *sql.DB
	batch     []activity.Activity
	batchSize int
	mu        sync.Mutex
}

// Open creates (if needed) and opens the activities database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("activitydb: failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 50000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("activitydb: failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("activitydb: failed to create schema: %w", err)
	}

	return &Store{db: db, batchSize: DefaultBatchSize}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			activity_type TEXT NOT NULL,
			encoded_summary TEXT NOT NULL,
			start_date INTEGER NOT NULL,
			min_lon REAL NOT NULL,
			min_lat REAL NOT NULL,
			max_lon REAL NOT NULL,
			max_lat REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS activities_bbox ON activities (min_lon, max_lon, min_lat, max_lat);
		CREATE INDEX IF NOT EXISTS activities_type ON activities (activity_type);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Put buffers an activity for insertion, flushing automatically once the
// batch reaches DefaultBatchSize.
func (s *Store) Put(a activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch = append(s.batch, a)
	if len(s.batch) >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

// Flush writes any buffered activities to the database.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("activitydb: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO activities
			(id, activity_type, encoded_summary, start_date, min_lon, min_lat, max_lon, max_lat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("activitydb: failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range s.batch {
		_, err := stmt.Exec(
			a.ID, a.Type, a.EncodedSummary, a.StartDate.Unix(),
			a.Bounds.MinLon, a.Bounds.MinLat, a.Bounds.MaxLon, a.Bounds.MaxLat,
		)
		if err != nil {
			return fmt.Errorf("activitydb: failed to insert activity %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("activitydb: failed to commit transaction: %w", err)
	}

	s.batch = s.batch[:0]
	return nil
}

// Activities implements activity.Provider, pushing the bounding-box and type
// filter down into the SQL query so only rows that can possibly intersect
// the tile are scanned.
func (s *Store) Activities(ctx context.Context, f activity.Filter) ([]activity.Activity, error) {
	query := `
		SELECT id, activity_type, encoded_summary, start_date, min_lon, min_lat, max_lon, max_lat
		FROM activities
		WHERE min_lon <= ? AND max_lon >= ?
		  AND min_lat <= ? AND max_lat >= ?
	`
	args := []any{f.Bounds.MaxLon, f.Bounds.MinLon, f.Bounds.MaxLat, f.Bounds.MinLat}

	if f.Type != "" {
		query += " AND activity_type = ?"
		args = append(args, f.Type)
	}
	if !f.StartDate.IsZero() {
		query += " AND start_date >= ?"
		args = append(args, f.StartDate.Unix())
	}
	if !f.EndDate.IsZero() {
		query += " AND start_date <= ?"
		args = append(args, f.EndDate.Unix())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("activitydb: query failed: %w", err)
	}
	defer rows.Close()

	var out []activity.Activity
	for rows.Next() {
		var a activity.Activity
		var startUnix int64
		var bounds types.BoundingBox

		if err := rows.Scan(&a.ID, &a.Type, &a.EncodedSummary, &startUnix,
			&bounds.MinLon, &bounds.MinLat, &bounds.MaxLon, &bounds.MaxLat); err != nil {
			return nil, fmt.Errorf("activitydb: scan failed: %w", err)
		}
		a.StartDate = time.Unix(startUnix, 0).UTC()
		a.Bounds = bounds
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activitydb: row iteration failed: %w", err)
	}

	return out, nil
}

// Close flushes any remaining activities and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("activitydb: failed to close database: %w", err)
	}
	return nil
}
