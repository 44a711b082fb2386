package deltas

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lwd-temp/gitbutler/errors"
)

// Database persists deltas in the shared butler database.
type Database struct {
	conn *sql.DB
}

// NewDatabase creates a delta store on the shared connection.
func NewDatabase(conn *sql.DB) *Database {
	return &Database{conn: conn}
}

// Insert records a delta as entry seq for (sessionID, filePath). The write is
// keyed on (session, path, seq) and replaces on conflict, so replaying the
// same event is harmless.
func (d *Database) Insert(ctx context.Context, sessionID, filePath string, seq int, delta *Delta) error {
	payload, err := json.Marshal(delta.Operations)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDeltaFailed, "failed to encode operations")
	}
	_, err = d.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO deltas (session_id, file_path, seq, ts, operations)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, filePath, seq, delta.TimestampMs, string(payload))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseWrite, "failed to insert delta")
	}
	return nil
}

// NextSeq returns the next sequence number for (sessionID, filePath).
func (d *Database) NextSeq(ctx context.Context, sessionID, filePath string) (int, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq) + 1, 0) FROM deltas
		 WHERE session_id = ? AND file_path = ?`, sessionID, filePath)
	var seq int
	if err := row.Scan(&seq); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to query delta sequence")
	}
	return seq, nil
}

// ListByFile returns the deltas for one file in a session, in record order.
func (d *Database) ListByFile(ctx context.Context, sessionID, filePath string) ([]*Delta, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT ts, operations FROM deltas
		 WHERE session_id = ? AND file_path = ? ORDER BY seq`, sessionID, filePath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to list deltas")
	}
	defer rows.Close()
	return scanDeltas(rows)
}

// ListBySession returns all deltas of a session grouped by file path.
func (d *Database) ListBySession(ctx context.Context, sessionID string) (map[string][]*Delta, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT file_path, ts, operations FROM deltas
		 WHERE session_id = ? ORDER BY file_path, seq`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to list deltas")
	}
	defer rows.Close()

	result := make(map[string][]*Delta)
	for rows.Next() {
		var (
			path    string
			ts      int64
			payload string
		)
		if err := rows.Scan(&path, &ts, &payload); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to scan delta")
		}
		delta := &Delta{TimestampMs: ts}
		if err := json.Unmarshal([]byte(payload), &delta.Operations); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDeltaFailed, "corrupt delta operations")
		}
		result[path] = append(result[path], delta)
	}
	return result, rows.Err()
}

func scanDeltas(rows *sql.Rows) ([]*Delta, error) {
	var list []*Delta
	for rows.Next() {
		var (
			ts      int64
			payload string
		)
		if err := rows.Scan(&ts, &payload); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to scan delta")
		}
		delta := &Delta{TimestampMs: ts}
		if err := json.Unmarshal([]byte(payload), &delta.Operations); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDeltaFailed, "corrupt delta operations")
		}
		list = append(list, delta)
	}
	return list, rows.Err()
}
