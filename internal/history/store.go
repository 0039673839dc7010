// Package history keeps the on-disk index of generated artifacts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	filename        TEXT NOT NULL UNIQUE,
	company         TEXT NOT NULL DEFAULT '',
	job_title       TEXT NOT NULL DEFAULT '',
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	source_checksum TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at DESC);
`

// Record describes one generated artifact.
type Record struct {
	Filename       string
	Company        string
	JobTitle       string
	FirstName      string
	LastName       string
	SourceChecksum string
	CreatedAt      time.Time
}

// Store is a SQLite-backed artifact index living next to the artifacts
// themselves.
type Store struct {
	db  *sql.DB
	dir string
}

// Open creates the output directory if needed and opens the index database
// inside it.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &Store{db: db, dir: dir}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Save records an artifact. A zero CreatedAt is filled with the current time.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.Filename) == "" {
		return fmt.Errorf("record with a filename is required")
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (filename, company, job_title, first_name, last_name, source_checksum, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
			company = excluded.company,
			job_title = excluded.job_title,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			source_checksum = excluded.source_checksum,
			created_at = excluded.created_at`,
		rec.Filename, rec.Company, rec.JobTitle, rec.FirstName, rec.LastName, rec.SourceChecksum, created,
	)
	if err != nil {
		return fmt.Errorf("save artifact record: %w", err)
	}
	return nil
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, company, job_title, first_name, last_name, source_checksum, created_at
		 FROM artifacts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list artifact records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Filename, &rec.Company, &rec.JobTitle, &rec.FirstName, &rec.LastName, &rec.SourceChecksum, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Path resolves an artifact filename to a path inside the store directory.
// Filenames with path separators are rejected to keep traversal out.
func (s *Store) Path(filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("invalid artifact filename: %q", filename)
	}
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("artifact %q: %w", filename, err)
	}
	return path, nil
}

// WriteArtifact stores artifact bytes under a generated filename and returns
// that filename.
func (s *Store) WriteArtifact(first, last, company, title string, data []byte) (string, error) {
	filename := Filename(first, last, company, title)
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return filename, nil
}

// Filename builds a readable, filesystem-safe artifact name.
func Filename(first, last, company, title string) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{first, last, company, title} {
		if cleaned := sanitize(part); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "resume")
	}
	stamp := time.Now().UTC().Format("20060102-150405")
	return strings.Join(parts, "_") + "_" + stamp + ".html"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
