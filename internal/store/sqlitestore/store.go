// Package sqlitestore persists versioned wiki pages in SQLite.
//
// Every mutation appends a revision row; the current state of a page is its
// newest row. Moves and deletions are revisions too, so history survives
// both. We use modernc.org/sqlite, a pure-Go driver, to keep the binary
// cgo-free.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	apperrors "github.com/scribewiki/scribe/internal/errors"
	"github.com/scribewiki/scribe/internal/wiki"
)

const schema = `
CREATE TABLE IF NOT EXISTS revisions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	path       TEXT    NOT NULL,
	version    TEXT    NOT NULL UNIQUE,
	content    BLOB    NOT NULL DEFAULT X'',
	attributes TEXT    NOT NULL DEFAULT '{}',
	author     TEXT    NOT NULL DEFAULT '',
	message    TEXT    NOT NULL DEFAULT '',
	deleted    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS revisions_path_idx ON revisions(path, id);
`

// Store implements wiki.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the page database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dir, "pages.db")
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening page database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

type revision struct {
	id         int64
	path       string
	version    string
	content    []byte
	attributes string
	author     string
	message    string
	deleted    bool
	createdAt  string
}

func scanRevision(row interface{ Scan(...any) error }) (*revision, error) {
	var r revision
	err := row.Scan(&r.id, &r.path, &r.version, &r.content, &r.attributes,
		&r.author, &r.message, &r.deleted, &r.createdAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const revisionCols = "id, path, version, content, attributes, author, message, deleted, created_at"

func (r *revision) toPage() (*wiki.Page, error) {
	attrs := make(map[string]string)
	if r.attributes != "" {
		if err := json.Unmarshal([]byte(r.attributes), &attrs); err != nil {
			return nil, fmt.Errorf("decoding attributes of %q@%s: %w", r.path, r.version, err)
		}
	}
	p := wiki.NewPage(r.path)
	p.Content = r.content
	p.Attributes = attrs
	p.Loaded(wiki.Version(r.version))
	return p, nil
}

// Find implements wiki.Store.
func (s *Store) Find(ctx context.Context, path string) (*wiki.Page, error) {
	path = wiki.NormalizePath(path)
	return findCurrent(ctx, s.db, path)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func findCurrent(ctx context.Context, q querier, path string) (*wiki.Page, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+revisionCols+" FROM revisions WHERE path = ? ORDER BY id DESC LIMIT 1", path)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("page %q", path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading page %q: %w", path, err)
	}
	if rev.deleted {
		return nil, apperrors.NotFound("page %q", path)
	}
	return rev.toPage()
}

// FindVersion implements wiki.Store.
func (s *Store) FindVersion(ctx context.Context, path string, v wiki.Version) (*wiki.Page, error) {
	path = wiki.NormalizePath(path)
	if v == "" {
		return s.Find(ctx, path)
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+revisionCols+" FROM revisions WHERE path = ? AND version = ?", path, string(v))
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("page %q at version %s", path, v)
	}
	if err != nil {
		return nil, fmt.Errorf("loading page %q@%s: %w", path, v, err)
	}
	if rev.deleted {
		return nil, apperrors.NotFound("page %q at version %s", path, v)
	}
	page, err := rev.toPage()
	if err != nil {
		return nil, err
	}

	var prev, next string
	err = s.db.QueryRowContext(ctx,
		"SELECT version FROM revisions WHERE path = ? AND id < ? ORDER BY id DESC LIMIT 1",
		path, rev.id).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolving previous version of %q: %w", path, err)
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT version FROM revisions WHERE path = ? AND id > ? AND deleted = 0 ORDER BY id ASC LIMIT 1",
		path, rev.id).Scan(&next)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolving next version of %q: %w", path, err)
	}
	page.PrevVersion = wiki.Version(prev)
	page.NextVersion = wiki.Version(next)
	return page, nil
}

// History implements wiki.Store. It returns all remaining entries from the
// offset; callers window the result.
func (s *Store) History(ctx context.Context, path string, offset int) ([]wiki.HistoryEntry, error) {
	path = wiki.NormalizePath(path)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT version, author, message, created_at FROM revisions WHERE path = ? ORDER BY id DESC LIMIT -1 OFFSET ?",
		path, offset)
	if err != nil {
		return nil, fmt.Errorf("loading history of %q: %w", path, err)
	}
	defer rows.Close()

	var entries []wiki.HistoryEntry
	for rows.Next() {
		var e wiki.HistoryEntry
		var version, createdAt string
		if err := rows.Scan(&version, &e.Author, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history of %q: %w", path, err)
		}
		e.Version = wiki.Version(version)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.Date = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Diff implements wiki.Store. An empty from diffs against the empty page.
func (s *Store) Diff(ctx context.Context, path string, from, to wiki.Version) (*wiki.Diff, error) {
	path = wiki.NormalizePath(path)

	var fromContent []byte
	var fromVersion *wiki.Version
	if from != "" {
		p, err := s.FindVersion(ctx, path, from)
		if err != nil {
			return nil, err
		}
		fromContent = p.Content
		v := p.Version
		fromVersion = &v
	}
	toPage, err := s.FindVersion(ctx, path, to)
	if err != nil {
		return nil, err
	}

	return &wiki.Diff{
		From:  fromVersion,
		To:    toPage.Version,
		Hunks: diffLines(string(fromContent), string(toPage.Content)),
	}, nil
}

func newVersion() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
