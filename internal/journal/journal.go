// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records conversion runs in a SQLite database so the
// history of a world directory's migration can be inspected after the
// fact, including which files were rewritten and which were skipped.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/costconv/pkg/types"
)

// timeFormat keeps started_at lexically sortable.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Journal manages the run journal database.
type Journal struct {
	db *sql.DB
}

// Run is one recorded conversion run.
type Run struct {
	ID            string
	StartedAt     time.Time
	ObjectDir     string
	CopperPerGold int64
	SkipThreshold int64
	DryRun        bool
	Processed     int
	Converted     int
	Files         []File
}

// File is one file's outcome within a run.
type File struct {
	Path         string
	Outcome      types.Outcome
	ChangedLines int
	MatchedLines int
	Error        string
}

// Open opens or creates the journal at path, creating the parent directory
// and schema as needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			object_dir TEXT NOT NULL,
			copper_per_gold INTEGER NOT NULL,
			skip_threshold INTEGER NOT NULL,
			dry_run INTEGER NOT NULL,
			processed INTEGER NOT NULL,
			converted INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			outcome TEXT NOT NULL,
			changed_lines INTEGER NOT NULL,
			matched_lines INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_path ON files(path)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its files in one transaction. An empty run.ID is
// replaced with a new time-ordered UUID; the stored ID is returned.
func (j *Journal) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generating run id: %w", err)
		}
		run.ID = id.String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, object_dir, copper_per_gold, skip_threshold, dry_run, processed, converted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeFormat), run.ObjectDir,
		run.CopperPerGold, run.SkipThreshold, run.DryRun, run.Processed, run.Converted,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO files (run_id, path, outcome, changed_lines, matched_lines, error)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range run.Files {
		_, err := stmt.ExecContext(ctx,
			run.ID, f.Path, string(f.Outcome), f.ChangedLines, f.MatchedLines, nullString(f.Error),
		)
		if err != nil {
			return "", fmt.Errorf("inserting file %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// Runs returns the most recent runs, newest first, without their files.
// A limit of zero or less returns every run.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, object_dir, copper_per_gold, skip_threshold, dry_run, processed, converted
		FROM runs ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.ObjectDir, &r.CopperPerGold,
			&r.SkipThreshold, &r.DryRun, &r.Processed, &r.Converted); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeFormat, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Files returns the file records of one run ordered by path.
func (j *Journal) Files(ctx context.Context, runID string) ([]File, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT path, outcome, changed_lines, matched_lines, error
		 FROM files WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var outcome string
		var errText sql.NullString
		if err := rows.Scan(&f.Path, &outcome, &f.ChangedLines, &f.MatchedLines, &errText); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		f.Outcome = types.Outcome(outcome)
		f.Error = errText.String
		files = append(files, f)
	}
	return files, rows.Err()
}

// LastConverted returns when path was last rewritten by a non-dry run, or
// false if it never was.
func (j *Journal) LastConverted(ctx context.Context, path string) (time.Time, bool, error) {
	var started string
	err := j.db.QueryRowContext(ctx,
		`SELECT r.started_at FROM files f JOIN runs r ON r.id = f.run_id
		 WHERE f.path = ? AND f.outcome = ? AND r.dry_run = 0
		 ORDER BY r.started_at DESC LIMIT 1`,
		path, string(types.OutcomeConverted),
	).Scan(&started)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("querying last conversion: %w", err)
	}
	t, err := time.Parse(timeFormat, started)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing timestamp %q: %w", started, err)
	}
	return t, true, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
