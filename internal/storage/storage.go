// Package storage persists the fake-book index in SQLite and answers
// candidate queries with the whole-word matcher rendered as SQL.
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"modernc.org/sqlite"

	"github.com/lehigh-university-libraries/fakebook/internal/match"
	"github.com/lehigh-university-libraries/fakebook/internal/models"
	"github.com/lehigh-university-libraries/fakebook/internal/offsets"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// ErrBookNotFound is returned when a (source, local name) pair has no book row
var ErrBookNotFound = errors.New("book not found")

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	code     TEXT PRIMARY KEY,
	name     TEXT NOT NULL UNIQUE,
	priority INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS canonicals (
	name     TEXT PRIMARY KEY,
	priority INTEGER NOT NULL,
	file     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS books (
	source_code TEXT NOT NULL,
	local_name  TEXT NOT NULL,
	canonical   TEXT NOT NULL,
	PRIMARY KEY (source_code, local_name)
);

CREATE TABLE IF NOT EXISTS offsets (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	source_code  TEXT NOT NULL,
	local_name   TEXT NOT NULL,
	sheet_start  INTEGER NOT NULL,
	sheet_offset INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS titles (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	composer    TEXT,
	sheet       TEXT NOT NULL,
	source_code TEXT NOT NULL,
	local_name  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_titles_book ON titles (source_code, local_name);
CREATE INDEX IF NOT EXISTS idx_offsets_book ON offsets (source_code, local_name, seq);
`

const candidateSelect = `
SELECT t.title, COALESCE(t.composer, ''), t.sheet, t.source_code, t.local_name,
       COALESCE(b.canonical, ''), COALESCE(c.file, ''), s.priority, c.priority
FROM titles t
LEFT JOIN books b ON b.source_code = t.source_code AND b.local_name = t.local_name
LEFT JOIN sources s ON s.code = t.source_code
LEFT JOIN canonicals c ON c.name = b.canonical
`

const candidateOrder = ` ORDER BY t.title, t.source_code, t.local_name, t.id`

var registerLower = sync.OnceValue(func() error {
	// SQLite's built-in lower() folds ASCII only; the Go matcher folds Unicode
	return sqlite.RegisterDeterministicScalarFunction("lower", 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return fmt.Sprint(v), nil
		}
	})
})

// Store is the SQLite-backed index
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
// MemoryPath gives a private database that lives as long as the Store.
func Open(path string) (*Store, error) {
	if err := registerLower(); err != nil {
		return nil, fmt.Errorf("failed to register lower(): %w", err)
	}

	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SyncCatalog replaces the stored sources and canonicals with the configured ones
func (s *Store) SyncCatalog(ctx context.Context, sources []models.IndexSource, canonicals []models.Canonical) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sources`); err != nil {
			return fmt.Errorf("failed to clear sources: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM canonicals`); err != nil {
			return fmt.Errorf("failed to clear canonicals: %w", err)
		}

		for _, src := range sources {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sources (code, name, priority) VALUES (?, ?, ?)
				ON CONFLICT(code) DO UPDATE SET
					name = excluded.name,
					priority = excluded.priority
			`, src.Code, src.Name, src.Priority)
			if err != nil {
				return fmt.Errorf("failed to save source %s: %w", src.Code, err)
			}
		}

		for _, c := range canonicals {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO canonicals (name, priority, file) VALUES (?, ?, ?)
				ON CONFLICT(name) DO UPDATE SET
					priority = excluded.priority,
					file = excluded.file
			`, c.Name, c.Priority, c.File)
			if err != nil {
				return fmt.Errorf("failed to save canonical %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

// AddBooks records which canonical book each local edition is
func (s *Store) AddBooks(ctx context.Context, books []models.LocalBook) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO books (source_code, local_name, canonical) VALUES (?, ?, ?)
			ON CONFLICT(source_code, local_name) DO UPDATE SET
				canonical = excluded.canonical
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare book insert: %w", err)
		}
		defer stmt.Close()

		for _, b := range books {
			if _, err := stmt.ExecContext(ctx, b.SourceCode, b.LocalName, b.Canonical); err != nil {
				return fmt.Errorf("failed to save book %s/%s: %w", b.SourceCode, b.LocalName, err)
			}
		}
		return nil
	})
}

// AddOffsets appends offset rules. Sequence numbers follow insertion order,
// so a later rule supersedes an earlier one; any Seq on the input is ignored.
func (s *Store) AddOffsets(ctx context.Context, rules []models.OffsetRule) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO offsets (source_code, local_name, sheet_start, sheet_offset) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare offset insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rules {
			if _, err := stmt.ExecContext(ctx, r.SourceCode, r.LocalName, r.SheetStart, r.SheetOffset); err != nil {
				return fmt.Errorf("failed to save offset for %s/%s: %w", r.SourceCode, r.LocalName, err)
			}
		}
		return nil
	})
}

// AddTitles appends index entries
func (s *Store) AddTitles(ctx context.Context, titles []models.TitleRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO titles (title, composer, sheet, source_code, local_name) VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare title insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range titles {
			var composer any
			if t.Composer != "" {
				composer = t.Composer
			}
			if _, err := stmt.ExecContext(ctx, t.Title, composer, t.Sheet, t.SourceCode, t.LocalName); err != nil {
				return fmt.Errorf("failed to save title %q: %w", t.Title, err)
			}
		}
		return nil
	})
}

// OffsetTable loads every offset rule in sequence order
func (s *Store) OffsetTable(ctx context.Context) (*offsets.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_code, local_name, sheet_start, sheet_offset, seq
		FROM offsets ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query offsets: %w", err)
	}
	defer rows.Close()

	var rules []models.OffsetRule
	for rows.Next() {
		var r models.OffsetRule
		if err := rows.Scan(&r.SourceCode, &r.LocalName, &r.SheetStart, &r.SheetOffset, &r.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan offset: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offsets: %w", err)
	}

	return offsets.NewTable(rules), nil
}

// Books lists every local book ordered by source and name
func (s *Store) Books(ctx context.Context) ([]models.LocalBook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_code, local_name, canonical FROM books
		ORDER BY source_code, local_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []models.LocalBook
	for rows.Next() {
		var b models.LocalBook
		if err := rows.Scan(&b.SourceCode, &b.LocalName, &b.Canonical); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}
	return books, nil
}

// Book returns one local book
func (s *Store) Book(ctx context.Context, sourceCode, localName string) (models.LocalBook, error) {
	b := models.LocalBook{SourceCode: sourceCode, LocalName: localName}
	err := s.db.QueryRowContext(ctx, `
		SELECT canonical FROM books WHERE source_code = ? AND local_name = ?
	`, sourceCode, localName).Scan(&b.Canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LocalBook{}, fmt.Errorf("%w: %s/%s", ErrBookNotFound, sourceCode, localName)
	}
	if err != nil {
		return models.LocalBook{}, fmt.Errorf("failed to query book: %w", err)
	}
	return b, nil
}

// CanonicalFile returns the PDF file linked to a canonical book, or "" if none
func (s *Store) CanonicalFile(ctx context.Context, canonical string) (string, error) {
	var file string
	err := s.db.QueryRowContext(ctx, `SELECT file FROM canonicals WHERE name = ?`, canonical).Scan(&file)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query canonical: %w", err)
	}
	return file, nil
}

// Candidates returns the rows whose title and composer match the filter,
// joined with their canonical book and priorities. Rows whose source or
// canonical is not configured carry nil priorities.
func (s *Store) Candidates(ctx context.Context, filter models.Filter) ([]models.CandidateRow, error) {
	title, err := match.Compile(filter.Title).SQL("t.title")
	if err != nil {
		return nil, err
	}
	composer, err := match.Compile(filter.Composer).SQL("t.composer")
	if err != nil {
		return nil, err
	}

	where := match.And(title, composer)
	return s.queryCandidates(ctx, candidateSelect+" WHERE "+where.SQL+candidateOrder, where.Args...)
}

// AllCandidates returns every row, in the same order as Candidates
func (s *Store) AllCandidates(ctx context.Context) ([]models.CandidateRow, error) {
	return s.queryCandidates(ctx, candidateSelect+candidateOrder)
}

func (s *Store) queryCandidates(ctx context.Context, query string, args ...any) ([]models.CandidateRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var result []models.CandidateRow
	for rows.Next() {
		var (
			r                 models.CandidateRow
			srcPriority       sql.NullInt64
			canonicalPriority sql.NullInt64
		)
		if err := rows.Scan(&r.Title, &r.Composer, &r.Sheet, &r.SourceCode, &r.LocalName,
			&r.Canonical, &r.File, &srcPriority, &canonicalPriority); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if srcPriority.Valid {
			r.SourcePriority = models.IntPtr(int(srcPriority.Int64))
		}
		if canonicalPriority.Valid {
			r.CanonicalPriority = models.IntPtr(int(canonicalPriority.Int64))
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return result, nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
