// Package store persists activity records and daily summaries in SQLite.
// It is the only shared mutable resource in worklens: the monitor loop is its
// single writer, everything else reads.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/worklens/worklens/internal/activity"
)

// ErrNotFound is returned when a record or summary does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	app_name TEXT NOT NULL,
	window_title TEXT,
	screenshot_path TEXT NOT NULL,
	category TEXT,
	description TEXT,
	confidence INTEGER,
	analyzed BOOLEAN NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities(timestamp);
CREATE INDEX IF NOT EXISTS idx_activities_analyzed ON activities(analyzed);

CREATE TABLE IF NOT EXISTS daily_summaries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL UNIQUE,
	summary_text TEXT NOT NULL,
	generated_at TEXT NOT NULL
);
`

// Store wraps the SQLite database. Safe for a single writer with any number
// of concurrent readers; every method is one atomic call.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path and initializes the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps :memory: databases coherent and serializes
	// the single-writer discipline at the driver level.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// recordRow mirrors the activities table; timestamps travel as RFC3339 text.
type recordRow struct {
	ID             int64   `db:"id"`
	Timestamp      string  `db:"timestamp"`
	AppName        string  `db:"app_name"`
	WindowTitle    string  `db:"window_title"`
	ScreenshotPath string  `db:"screenshot_path"`
	Category       *string `db:"category"`
	Description    *string `db:"description"`
	Confidence     *int    `db:"confidence"`
	Analyzed       bool    `db:"analyzed"`
}

func (r recordRow) toRecord() (activity.Record, error) {
	ts, err := time.ParseInLocation(time.RFC3339, r.Timestamp, time.Local)
	if err != nil {
		return activity.Record{}, fmt.Errorf("parsing timestamp of record %d: %w", r.ID, err)
	}
	return activity.Record{
		ID:             r.ID,
		Timestamp:      ts,
		AppName:        r.AppName,
		WindowTitle:    r.WindowTitle,
		ScreenshotPath: r.ScreenshotPath,
		Category:       r.Category,
		Description:    r.Description,
		Confidence:     r.Confidence,
		Analyzed:       r.Analyzed,
	}, nil
}

func toRecords(rows []recordRow) ([]activity.Record, error) {
	records := make([]activity.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// CreateRecord inserts a new unanalyzed record and returns its id.
func (s *Store) CreateRecord(timestamp time.Time, appName, windowTitle, screenshotPath string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO activities (timestamp, app_name, window_title, screenshot_path, analyzed)
		VALUES (?, ?, ?, ?, 0)`,
		timestamp.Format(time.RFC3339), appName, windowTitle, screenshotPath,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting activity record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted record id: %w", err)
	}
	return id, nil
}

// GetRecord fetches one record by id. Returns ErrNotFound if it is absent.
func (s *Store) GetRecord(id int64) (activity.Record, error) {
	var row recordRow
	err := s.db.Get(&row, `SELECT * FROM activities WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Record{}, ErrNotFound
	}
	if err != nil {
		return activity.Record{}, fmt.Errorf("fetching record %d: %w", id, err)
	}
	return row.toRecord()
}

// MarkAnalyzed stores the analysis result and flips the analyzed flag. An
// already-analyzed record is left untouched: the flag flips exactly once and
// analysis fields are never revised.
func (s *Store) MarkAnalyzed(id int64, category, description string, confidence int) error {
	res, err := s.db.Exec(`
		UPDATE activities
		SET category = ?, description = ?, confidence = ?, analyzed = 1
		WHERE id = ? AND analyzed = 0`,
		category, description, confidence, id,
	)
	if err != nil {
		return fmt.Errorf("marking record %d analyzed: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking record %d analyzed: %w", id, err)
	}
	if affected == 0 {
		// Either absent or already analyzed; distinguish for the caller.
		var exists bool
		if err := s.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM activities WHERE id = ?)`, id); err != nil {
			return fmt.Errorf("checking record %d: %w", id, err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// QueryByDateRange returns records with start <= timestamp < end, ascending.
func (s *Store) QueryByDateRange(start, end time.Time) ([]activity.Record, error) {
	var rows []recordRow
	err := s.db.Select(&rows, `
		SELECT * FROM activities
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("querying records by date range: %w", err)
	}
	return toRecords(rows)
}

// QueryByDate returns all records on the given local calendar date
// (YYYY-MM-DD), ascending.
func (s *Store) QueryByDate(date string) ([]activity.Record, error) {
	start, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", date, err)
	}
	return s.QueryByDateRange(start, start.Add(24*time.Hour))
}

// RecentAnalyzedBefore returns up to limit analyzed records strictly earlier
// than ref, newest-first. This is the candidate set for the context window.
func (s *Store) RecentAnalyzedBefore(ref time.Time, limit int) ([]activity.Record, error) {
	var rows []recordRow
	err := s.db.Select(&rows, `
		SELECT * FROM activities
		WHERE timestamp < ? AND analyzed = 1
		ORDER BY timestamp DESC
		LIMIT ?`,
		ref.Format(time.RFC3339), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent analyzed records: %w", err)
	}
	return toRecords(rows)
}

// Unanalyzed returns up to limit records still awaiting analysis, oldest id
// first. Consumed only by the explicit backlog sweep.
func (s *Store) Unanalyzed(limit int) ([]activity.Record, error) {
	var rows []recordRow
	err := s.db.Select(&rows, `
		SELECT * FROM activities
		WHERE analyzed = 0
		ORDER BY id ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unanalyzed records: %w", err)
	}
	return toRecords(rows)
}

// UpsertSummary stores the summary for a date, overwriting any existing text
// and regenerating its timestamp. No history of prior summaries is kept.
func (s *Store) UpsertSummary(date string, text string) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_summaries (date, summary_text, generated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			summary_text = excluded.summary_text,
			generated_at = excluded.generated_at`,
		date, text, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting summary for %s: %w", date, err)
	}
	return nil
}

// GetSummary fetches the summary for a date. Returns ErrNotFound if absent.
func (s *Store) GetSummary(date string) (activity.DailySummary, error) {
	var row struct {
		ID          int64  `db:"id"`
		Date        string `db:"date"`
		SummaryText string `db:"summary_text"`
		GeneratedAt string `db:"generated_at"`
	}
	err := s.db.Get(&row, `SELECT * FROM daily_summaries WHERE date = ?`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.DailySummary{}, ErrNotFound
	}
	if err != nil {
		return activity.DailySummary{}, fmt.Errorf("fetching summary for %s: %w", date, err)
	}

	generatedAt, err := time.ParseInLocation(time.RFC3339, row.GeneratedAt, time.Local)
	if err != nil {
		return activity.DailySummary{}, fmt.Errorf("parsing summary timestamp: %w", err)
	}
	return activity.DailySummary{
		ID:          row.ID,
		Date:        row.Date,
		SummaryText: row.SummaryText,
		GeneratedAt: generatedAt,
	}, nil
}
