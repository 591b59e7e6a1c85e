// Package catalog records synthesized components and their latest
// verification outcome in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"componentforge/internal/diag"
	"componentforge/internal/logging"
)

// ErrNotFound is returned by Get for an unknown artifact path.
var ErrNotFound = errors.New("catalog entry not found")

// Entry is one catalogued artifact.
type Entry struct {
	Name       string    `json:"name"`
	ClassName  string    `json:"class_name"`
	Path       string    `json:"path"`
	Kind       string    `json:"kind"`
	Success    bool      `json:"success"`
	Fatals     int       `json:"fatals"`
	Warnings   int       `json:"warnings"`
	LoadID     string    `json:"load_id,omitempty"`
	VerifiedAt time.Time `json:"verified_at"`
}

// EntryFromReport summarizes a verification report.
func EntryFromReport(name, kind string, r *diag.Report) Entry {
	return Entry{
		Name:       name,
		ClassName:  r.DetectedClassName,
		Path:       r.ArtifactPath,
		Kind:       kind,
		Success:    r.Success,
		Fatals:     len(r.Fatals()),
		Warnings:   len(r.Warnings()),
		LoadID:     r.LoadID,
		VerifiedAt: time.Now().UTC(),
	}
}

// Store is the catalog database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the catalog at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer keeps SQLite from reporting SQLITE_BUSY under VerifyAll
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Catalog("Catalog opened at %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS artifacts (
		path TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		class_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		success INTEGER NOT NULL,
		fatals INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		load_id TEXT,
		verified_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_name ON artifacts(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts or replaces the entry for e.Path.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Path == "" {
		return fmt.Errorf("catalog entry needs a path")
	}
	if e.VerifiedAt.IsZero() {
		e.VerifiedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (path, name, class_name, kind, success, fatals, warnings, load_id, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			class_name = excluded.class_name,
			kind = excluded.kind,
			success = excluded.success,
			fatals = excluded.fatals,
			warnings = excluded.warnings,
			load_id = excluded.load_id,
			verified_at = excluded.verified_at`,
		e.Path, e.Name, e.ClassName, e.Kind, boolToInt(e.Success), e.Fatals, e.Warnings,
		e.LoadID, e.VerifiedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", e.Path, err)
	}

	logging.CatalogDebug("Recorded %s (success=%v)", e.Path, e.Success)
	return nil
}

// Get returns the entry for an artifact path.
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, name, class_name, kind, success, fatals, warnings, load_id, verified_at
		FROM artifacts WHERE path = ?`, path)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e, nil
}

// List returns every entry ordered by name, then path.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, class_name, kind, success, fatals, warnings, load_id, verified_at
		FROM artifacts ORDER BY name, path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Delete removes the entry for path. Deleting an unknown path is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e        Entry
		success  int
		loadID   sql.NullString
		verified string
	)
	if err := sc.Scan(&e.Path, &e.Name, &e.ClassName, &e.Kind, &success, &e.Fatals, &e.Warnings, &loadID, &verified); err != nil {
		return nil, err
	}
	e.Success = success != 0
	e.LoadID = loadID.String
	t, err := time.Parse(time.RFC3339Nano, verified)
	if err != nil {
		return nil, fmt.Errorf("bad verified_at %q: %w", verified, err)
	}
	e.VerifiedAt = t
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
