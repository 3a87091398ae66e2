package realm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// SQLite driver for the document realm.
	_ "github.com/mattn/go-sqlite3"
)

// DocumentRealm is the asynchronous document-store realm, backed by a
// SQLite table. It stands in for the browser's indexed document store:
// reads and writes go through the driver's own I/O and may lag the
// synchronous realms.
type DocumentRealm struct {
	db *sql.DB
}

// OpenDocument opens (or creates) the SQLite-backed realm at path.
func OpenDocument(path string) (*DocumentRealm, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=1000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open document realm: %w", err)
	}
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &DocumentRealm{db: db}, nil
}

func (r *DocumentRealm) Name() string { return "document" }

func (r *DocumentRealm) Capabilities() Capabilities {
	return Capabilities{Synchronous: false}
}

func (r *DocumentRealm) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (r *DocumentRealm) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *DocumentRealm) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying database.
func (r *DocumentRealm) Close() error {
	return r.db.Close()
}
