package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLimit = 20

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query TEXT NOT NULL,
    mode TEXT NOT NULL DEFAULT '',
    backend TEXT NOT NULL,
    answer TEXT NOT NULL,
    has_code BOOLEAN NOT NULL DEFAULT FALSE,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at DESC);

CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    query,
    answer,
    content='entries',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, query, answer) VALUES (new.id, new.query, new.answer);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, query, answer) VALUES ('delete', old.id, old.query, old.answer);
END;
`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// NewSQLiteStore opens (creating if needed) the database at cfg.Path.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("get db path: %w", err)
		}
		dbPath = p
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, cfg: cfg}, nil
}

// Add inserts e, fills in its ID and CreatedAt, and trims the table to
// MaxCount entries.
func (s *SQLiteStore) Add(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (query, mode, backend, answer, has_code, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Query, e.Mode, e.Backend, e.Answer, e.HasCode, e.Duration.Milliseconds(), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return s.cleanup(ctx)
}

// cleanup keeps only the newest MaxCount entries.
func (s *SQLiteStore) cleanup(ctx context.Context) error {
	if s.cfg.MaxCount <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM entries WHERE id IN (
			SELECT id FROM entries
			ORDER BY id DESC
			LIMIT -1 OFFSET ?
		)`, s.cfg.MaxCount)
	if err != nil {
		return fmt.Errorf("enforce max count: %w", err)
	}
	return nil
}

const selectColumns = `e.id, e.query, e.mode, e.backend, e.answer, e.has_code, e.duration_ms, e.created_at`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var (
		e  Entry
		ms int64
	)
	err := row.Scan(&e.ID, &e.Query, &e.Mode, &e.Backend, &e.Answer, &e.HasCode, &ms, &e.CreatedAt)
	e.Duration = time.Duration(ms) * time.Millisecond
	return e, err
}

// Get retrieves an entry by ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entries e WHERE e.id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &e, nil
}

// List returns the newest entries first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return s.query(ctx, `SELECT `+selectColumns+` FROM entries e ORDER BY e.id DESC LIMIT ?`, limit)
}

// Search runs an FTS5 query over questions and answers.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	return s.query(ctx, `
		SELECT `+selectColumns+`
		FROM entries_fts f
		JOIN entries e ON e.id = f.rowid
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts)
		LIMIT ?`, match, limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ftsQuery quotes each word so user input like "lm(y ~ x)" is not read
// as FTS5 syntax. Words are ANDed.
func ftsQuery(query string) string {
	var terms []string
	for _, word := range strings.Fields(query) {
		word = strings.ReplaceAll(word, `"`, `""`)
		terms = append(terms, `"`+word+`"`)
	}
	return strings.Join(terms, " ")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
