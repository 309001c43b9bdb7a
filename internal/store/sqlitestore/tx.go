package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scribewiki/scribe/internal/wiki"
)

// tx implements wiki.Tx. Staged rows are inserted inside the SQL
// transaction with placeholder metadata; Commit stamps the message and
// author and publishes everything atomically.
type tx struct {
	sql       *sql.Tx
	staged    []stagedOp
	committed bool
}

type stagedOp struct {
	rowID   int64
	version wiki.Version
	// page, when set, is told its new version after a successful commit.
	page *wiki.Page
}

// Begin implements wiki.Store.
func (s *Store) Begin(ctx context.Context) (wiki.Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &tx{sql: sqlTx}, nil
}

// Find implements wiki.Tx.
func (t *tx) Find(ctx context.Context, path string) (*wiki.Page, error) {
	return findCurrent(ctx, t.sql, wiki.NormalizePath(path))
}

// CurrentVersion implements wiki.Tx. It must be called before staging any
// mutation for the path, since staged rows are visible inside the
// transaction.
func (t *tx) CurrentVersion(ctx context.Context, path string) (wiki.Version, error) {
	var version string
	var deleted bool
	err := t.sql.QueryRowContext(ctx,
		"SELECT version, deleted FROM revisions WHERE path = ? ORDER BY id DESC LIMIT 1",
		wiki.NormalizePath(path)).Scan(&version, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading current version of %q: %w", path, err)
	}
	if deleted {
		return "", nil
	}
	return wiki.Version(version), nil
}

// Save implements wiki.Tx.
func (t *tx) Save(ctx context.Context, p *wiki.Page) error {
	return t.stage(ctx, p, p.Path, p.Content, p.Attributes, false)
}

// Move implements wiki.Tx. The source gets a deletion revision and the full
// page state is staged at the destination.
func (t *tx) Move(ctx context.Context, p *wiki.Page, destination string) error {
	destination = wiki.NormalizePath(destination)
	if err := t.stage(ctx, nil, p.Path, nil, nil, true); err != nil {
		return err
	}
	if err := t.stage(ctx, p, destination, p.Content, p.Attributes, false); err != nil {
		return err
	}
	p.Path = destination
	return nil
}

// Delete implements wiki.Tx.
func (t *tx) Delete(ctx context.Context, p *wiki.Page) error {
	return t.stage(ctx, nil, p.Path, nil, nil, true)
}

func (t *tx) stage(ctx context.Context, p *wiki.Page, path string, content []byte, attrs map[string]string, deleted bool) error {
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encoding attributes of %q: %w", path, err)
	}
	if content == nil {
		content = []byte{}
	}
	version := newVersion()
	res, err := t.sql.ExecContext(ctx,
		"INSERT INTO revisions (path, version, content, attributes, deleted, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		path, version, content, string(encoded), deleted, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("staging revision of %q: %w", path, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("staging revision of %q: %w", path, err)
	}
	t.staged = append(t.staged, stagedOp{rowID: rowID, version: wiki.Version(version), page: p})
	return nil
}

// Commit implements wiki.Tx.
func (t *tx) Commit(ctx context.Context, message, author string) error {
	for _, op := range t.staged {
		_, err := t.sql.ExecContext(ctx,
			"UPDATE revisions SET message = ?, author = ? WHERE id = ?",
			message, author, op.rowID)
		if err != nil {
			return fmt.Errorf("stamping revision: %w", err)
		}
	}
	if err := t.sql.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	t.committed = true
	for _, op := range t.staged {
		if op.page != nil {
			op.page.Loaded(op.version)
		}
	}
	return nil
}

// Rollback implements wiki.Tx.
func (t *tx) Rollback() error {
	if t.committed {
		return nil
	}
	return t.sql.Rollback()
}
