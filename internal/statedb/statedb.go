// Package statedb is a small local SQLite index of which output shards have
// already been mirrored to the object store, used by the s3_upload
// companion tool to avoid re-gzipping and re-uploading a shard
// that hasn't changed since its last successful mirror.
package statedb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection holding the upload index.
type DB struct {
	conn *sql.DB
}

// Connect opens (creating if necessary) a WAL-mode SQLite database at
// dbPath, limited to a single connection since SQLite allows only one
// writer at a time.
func Connect(dbPath string) (*DB, error) {
	dsn := dbPath + "?_journal=WAL&_fk=1&_busy_timeout=5000"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("statedb: opening database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("statedb: pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			log.Printf("statedb: warning: failed to set %s: %v", pragma, err)
		}
	}

	log.Printf("statedb: connected to %s", dbPath)
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the upload index table if it doesn't exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS mirrored_shards (
		run_id TEXT NOT NULL,
		relative_path TEXT PRIMARY KEY,
		size_bytes INTEGER NOT NULL,
		uploaded_at_utc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mirrored_shards_uploaded ON mirrored_shards(uploaded_at_utc DESC);
	`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("statedb: creating schema: %w", err)
	}
	return nil
}

// LastMirrored returns the size the shard at relativePath had the last time
// it was successfully mirrored, or ok=false if it has never been mirrored.
func (db *DB) LastMirrored(ctx context.Context, relativePath string) (sizeBytes int64, ok bool, err error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT size_bytes FROM mirrored_shards WHERE relative_path = ?`, relativePath)
	if err := row.Scan(&sizeBytes); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("statedb: querying %s: %w", relativePath, err)
	}
	return sizeBytes, true, nil
}

// MarkMirrored records that relativePath was uploaded at its current size,
// tagged with a fresh run id for log correlation.
func (db *DB) MarkMirrored(ctx context.Context, relativePath string, sizeBytes int64) error {
	runID := uuid.NewString()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO mirrored_shards (run_id, relative_path, size_bytes, uploaded_at_utc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(relative_path) DO UPDATE SET
			run_id = excluded.run_id,
			size_bytes = excluded.size_bytes,
			uploaded_at_utc = excluded.uploaded_at_utc`,
		runID, relativePath, sizeBytes, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("statedb: marking %s mirrored: %w", relativePath, err)
	}
	return nil
}
