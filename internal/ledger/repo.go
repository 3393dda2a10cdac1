package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/postmigrate/internal/apperr"
	"github.com/starford/postmigrate/internal/models"
)

// beginRun inserts a run header and returns its id.
func beginRun(ex execer, s models.RunSummary) (int64, error) {
	started := s.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	res, err := ex.Exec(
		`INSERT INTO runs (pattern, results_dir, started_at) VALUES (?, ?, ?)`,
		s.Pattern, s.ResultsDir, started)
	if err != nil {
		return 0, fmt.Errorf("ledger: begin run: %w", err)
	}
	return res.LastInsertId()
}

// RecordFile stores the outcome of one file. Recording the same source twice
// in a run replaces the earlier row.
func (db *DB) RecordFile(runID int64, r models.FileResult) error {
	return recordFile(db.conn, runID, r)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func recordFile(ex execer, runID int64, r models.FileResult) error {
	warnings, _ := json.Marshal(r.Warnings)
	_, err := ex.Exec(`
		INSERT INTO files (run_id, source, output, title, slug, date, checksum, status, error, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, source) DO UPDATE SET
			output   = excluded.output,
			title    = excluded.title,
			slug     = excluded.slug,
			date     = excluded.date,
			checksum = excluded.checksum,
			status   = excluded.status,
			error    = excluded.error,
			warnings = excluded.warnings
	`, runID, r.Source, r.Output, r.Title, r.Slug, r.Timestamp, r.Checksum, r.Status, r.Error, string(warnings))
	if err != nil {
		return fmt.Errorf("ledger: record %s: %w", r.Source, err)
	}
	return nil
}

func finishRun(ex execer, runID int64, s models.RunSummary) error {
	finished := s.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := ex.Exec(
		`UPDATE runs SET finished_at = ?, total = ?, converted = ?, failed = ? WHERE id = ?`,
		finished, s.Total, s.Converted, s.Failed, runID)
	if err != nil {
		return fmt.Errorf("ledger: finish run: %w", err)
	}
	return nil
}

// Record stores a completed run and all of its files in one transaction and
// sets s.RunID. On failure nothing of the run is kept.
func (db *DB) Record(s *models.RunSummary) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	runID, err := beginRun(tx, *s)
	if err != nil {
		return err
	}
	for _, f := range s.Files {
		if err := recordFile(tx, runID, f); err != nil {
			return err
		}
	}
	if err := finishRun(tx, runID, *s); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit: %w", err)
	}

	s.RunID = runID
	return nil
}

// LastRun returns the most recent run with its files, or apperr.ErrNotFound.
func (db *DB) LastRun() (*models.RunSummary, error) {
	var (
		s        models.RunSummary
		finished sql.NullTime
	)
	err := db.conn.QueryRow(`
		SELECT id, pattern, results_dir, started_at, finished_at, total, converted, failed
		FROM runs ORDER BY id DESC LIMIT 1
	`).Scan(&s.RunID, &s.Pattern, &s.ResultsDir, &s.StartedAt, &finished, &s.Total, &s.Converted, &s.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: last run: %w", err)
	}
	if finished.Valid {
		s.FinishedAt = finished.Time
	}

	files, err := db.Files(s.RunID)
	if err != nil {
		return nil, err
	}
	s.Files = files
	return &s, nil
}

// Files returns the file outcomes of a run ordered by source path.
func (db *DB) Files(runID int64) ([]models.FileResult, error) {
	rows, err := db.conn.Query(`
		SELECT source, output, title, slug, date, checksum, status, error, warnings
		FROM files WHERE run_id = ? ORDER BY source
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: files: %w", err)
	}
	defer rows.Close()

	var out []models.FileResult
	for rows.Next() {
		var (
			r        models.FileResult
			warnings string
		)
		if err := rows.Scan(&r.Source, &r.Output, &r.Title, &r.Slug, &r.Timestamp, &r.Checksum, &r.Status, &r.Error, &warnings); err != nil {
			return nil, fmt.Errorf("ledger: scan file: %w", err)
		}
		if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
			return nil, fmt.Errorf("ledger: decode warnings of %s: %w", r.Source, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
