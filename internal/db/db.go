// Package db provides the embedded SQLite database that backs butler's
// session, delta, file, bookmark, and search stores.
//
// The database runs embedded (ncruces/go-sqlite3, wasm build) with WAL mode
// so the daemon's single writer does not block readers such as the CLI.
package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/lwd-temp/gitbutler/errors"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection shared by all stores.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates (if needed) and opens the butler database at path.
// The caller must Close() it when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.DatabaseOpen(path, err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, errors.DatabaseOpen(path, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, errors.DatabaseOpen(path, err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.DatabaseOpen(path, err)
		}
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Conn returns the underlying sql.DB for the store packages.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	// Best effort; the WAL is replayed on next open if this fails
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := db.conn.Close()
	db.conn = nil
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseOpen, "failed to close database")
	}
	return nil
}

// initSchema creates all tables and indexes. Idempotent.
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		start_ts INTEGER NOT NULL,
		last_ts INTEGER NOT NULL,
		head TEXT,
		open INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS deltas (
		session_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		seq INTEGER NOT NULL,
		ts INTEGER NOT NULL,
		operations TEXT NOT NULL, -- JSON array of insert/delete operations
		PRIMARY KEY (session_id, file_path, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS files (
		session_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		content BLOB NOT NULL,
		PRIMARY KEY (session_id, file_path),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		project_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		deleted INTEGER NOT NULL DEFAULT 0,
		updated_ts INTEGER NOT NULL,
		PRIMARY KEY (project_id, ts)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id, start_ts);
	CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions(project_id, open);
	CREATE INDEX IF NOT EXISTS idx_deltas_session ON deltas(session_id, ts);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_project ON bookmarks(project_id, ts);

	CREATE VIRTUAL TABLE IF NOT EXISTS content_index USING fts5(
		project_id UNINDEXED,
		session_id UNINDEXED,
		file_path,
		content
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseOpen, "failed to initialize schema")
	}
	return nil
}
