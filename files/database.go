// Package files stores per-session base snapshots: the content a file had
// when it was first touched in a session. Replaying a session's deltas on
// top of the base reconstructs every intermediate version.
package files

import (
	"context"
	"database/sql"

	"github.com/lwd-temp/gitbutler/errors"
)

// Database persists base snapshots in the shared butler database.
type Database struct {
	conn *sql.DB
}

// NewDatabase creates a snapshot store on the shared connection.
func NewDatabase(conn *sql.DB) *Database {
	return &Database{conn: conn}
}

// SaveBase records content as the base snapshot for (sessionID, filePath).
// Only the first write per session and path sticks; later calls, including
// replays of the same event, leave the recorded base untouched.
func (d *Database) SaveBase(ctx context.Context, sessionID, filePath, content string) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO files (session_id, file_path, content)
		 VALUES (?, ?, ?)`,
		sessionID, filePath, []byte(content))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseWrite, "failed to save base snapshot")
	}
	return nil
}

// GetBase returns the base snapshot for (sessionID, filePath). The second
// return value reports whether a snapshot exists.
func (d *Database) GetBase(ctx context.Context, sessionID, filePath string) (string, bool, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT content FROM files WHERE session_id = ? AND file_path = ?`,
		sessionID, filePath)
	var content []byte
	if err := row.Scan(&content); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to read base snapshot")
	}
	return string(content), true, nil
}

// ListBySession returns every base snapshot of a session keyed by file path.
func (d *Database) ListBySession(ctx context.Context, sessionID string) (map[string]string, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT file_path, content FROM files WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to list base snapshots")
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var (
			path    string
			content []byte
		)
		if err := rows.Scan(&path, &content); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to scan base snapshot")
		}
		result[path] = string(content)
	}
	return result, rows.Err()
}
