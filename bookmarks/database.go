package bookmarks

import (
	"context"
	"database/sql"

	"github.com/lwd-temp/gitbutler/errors"
)

// Database persists bookmarks in the shared butler database.
type Database struct {
	conn *sql.DB
}

// NewDatabase creates a bookmark store on the shared connection.
func NewDatabase(conn *sql.DB) *Database {
	return &Database{conn: conn}
}

// Upsert writes a bookmark, replacing any existing one for the same project
// and timestamp only when the incoming version is newer.
func (d *Database) Upsert(ctx context.Context, b *Bookmark) error {
	deleted := 0
	if b.Deleted {
		deleted = 1
	}
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO bookmarks (project_id, ts, note, deleted, updated_ts)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, ts) DO UPDATE SET
		   note = excluded.note,
		   deleted = excluded.deleted,
		   updated_ts = excluded.updated_ts
		 WHERE excluded.updated_ts >= bookmarks.updated_ts`,
		b.ProjectID, b.TimestampMs, b.Note, deleted, b.UpdatedMs)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseWrite, "failed to save bookmark")
	}
	return nil
}

// ListByProject returns a project's live bookmarks, newest first.
func (d *Database) ListByProject(ctx context.Context, projectID string) ([]*Bookmark, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT project_id, ts, note, deleted, updated_ts FROM bookmarks
		 WHERE project_id = ? AND deleted = 0 ORDER BY ts DESC`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to list bookmarks")
	}
	defer rows.Close()

	var list []*Bookmark
	for rows.Next() {
		var (
			b       Bookmark
			deleted int
		)
		if err := rows.Scan(&b.ProjectID, &b.TimestampMs, &b.Note, &deleted, &b.UpdatedMs); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to scan bookmark")
		}
		b.Deleted = deleted != 0
		list = append(list, &b)
	}
	return list, rows.Err()
}

// Get returns the bookmark at (projectID, ts), including soft-deleted ones.
// The second return value reports whether it exists.
func (d *Database) Get(ctx context.Context, projectID string, ts int64) (*Bookmark, bool, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT project_id, ts, note, deleted, updated_ts FROM bookmarks
		 WHERE project_id = ? AND ts = ?`, projectID, ts)
	var (
		b       Bookmark
		deleted int
	)
	if err := row.Scan(&b.ProjectID, &b.TimestampMs, &b.Note, &deleted, &b.UpdatedMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to read bookmark")
	}
	b.Deleted = deleted != 0
	return &b, true, nil
}
