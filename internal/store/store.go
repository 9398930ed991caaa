// Package store keeps a SQLite history of export passes.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/longform/internal/unroll"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("export record not found")

// Record is one finished (or failed) export.
type Record struct {
	ID         string           `json:"id"`
	Root       string           `json:"root"`
	Backend    string           `json:"backend"`
	Title      string           `json:"title"`
	OutputFile string           `json:"output_file,omitempty"`
	Labels     int              `json:"labels"`
	Media      int              `json:"media"`
	BibKeys    int              `json:"bib_keys"`
	Warnings   []unroll.Warning `json:"warnings,omitempty"`
	Error      string           `json:"error,omitempty"`
	Duration   time.Duration    `json:"duration"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Store is a SQLite export history. SQLite allows one writer, so the pool is
// limited to a single connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts r. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	warnings := r.Warnings
	if warnings == nil {
		warnings = []unroll.Warning{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exports (id, root, backend, title, output_file, labels, media, bib_keys, warnings, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Root, r.Backend, r.Title, r.OutputFile, r.Labels, r.Media, r.BibKeys,
		string(warningsJSON), r.Error, r.Duration.Milliseconds(), r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert export %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectExports+` WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

// List returns the newest records first. An empty root lists all roots.
func (s *Store) List(ctx context.Context, root string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := selectExports
	var args []any
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const selectExports = `SELECT id, root, backend, title, output_file, labels, media, bib_keys, warnings, error, duration_ms, created_at FROM exports`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r            Record
		warningsJSON string
		durationMS   int64
		createdMS    int64
	)
	err := sc.Scan(&r.ID, &r.Root, &r.Backend, &r.Title, &r.OutputFile, &r.Labels, &r.Media, &r.BibKeys,
		&warningsJSON, &r.Error, &durationMS, &createdMS)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(warningsJSON), &r.Warnings); err != nil {
		return Record{}, fmt.Errorf("decode warnings for %s: %w", r.ID, err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.CreatedAt = time.UnixMilli(createdMS)
	return r, nil
}
