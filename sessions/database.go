package sessions

import (
	"context"
	"database/sql"
	"time"

	"github.com/lwd-temp/gitbutler/errors"
)

// Database persists sessions in the shared butler database.
type Database struct {
	conn *sql.DB
}

// NewDatabase creates a session store on the shared connection.
func NewDatabase(conn *sql.DB) *Database {
	return &Database{conn: conn}
}

// GetCurrent returns the open session for a project, or nil when none is open.
func (d *Database) GetCurrent(ctx context.Context, projectID string) (*Session, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT id, project_id, start_ts, last_ts, head, open
		 FROM sessions WHERE project_id = ? AND open = 1
		 ORDER BY start_ts DESC LIMIT 1`, projectID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to query current session")
	}
	return session, nil
}

// GetOrCreateCurrent returns the open session for a project, creating one
// when none is open. The boolean reports whether a new session was created.
func (d *Database) GetOrCreateCurrent(ctx context.Context, projectID, head string) (*Session, bool, error) {
	current, err := d.GetCurrent(ctx, projectID)
	if err != nil {
		return nil, false, err
	}
	if current != nil {
		return current, false, nil
	}

	now := time.Now().UTC()
	session := &Session{
		ID:           newID(),
		ProjectID:    projectID,
		StartedAt:    now,
		LastActivity: now,
		Head:         head,
		Open:         true,
	}
	_, err = d.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, project_id, start_ts, last_ts, head, open)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		session.ID, session.ProjectID, session.StartedAt.UnixMilli(),
		session.LastActivity.UnixMilli(), session.Head)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeDatabaseWrite, "failed to create session")
	}
	return session, true, nil
}

// Touch records activity on a session, pushing back the inactivity flush.
func (d *Database) Touch(ctx context.Context, sessionID string, at time.Time) error {
	_, err := d.conn.ExecContext(ctx,
		`UPDATE sessions SET last_ts = ? WHERE id = ?`, at.UnixMilli(), sessionID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseWrite, "failed to touch session")
	}
	return nil
}

// Close marks a session as closed. Closing an already-closed or unknown
// session is a no-op, which makes session-boundary events safe to replay.
func (d *Database) Close(ctx context.Context, sessionID string) error {
	_, err := d.conn.ExecContext(ctx,
		`UPDATE sessions SET open = 0 WHERE id = ?`, sessionID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseWrite, "failed to close session")
	}
	return nil
}

// Get returns a session by id.
func (d *Database) Get(ctx context.Context, sessionID string) (*Session, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT id, project_id, start_ts, last_ts, head, open
		 FROM sessions WHERE id = ?`, sessionID)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeSessionFailed, "session not found").
			WithDetail("session", sessionID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to query session")
	}
	return session, nil
}

// ListByProject returns all sessions for a project, newest first.
func (d *Database) ListByProject(ctx context.Context, projectID string) ([]*Session, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, project_id, start_ts, last_ts, head, open
		 FROM sessions WHERE project_id = ? ORDER BY start_ts DESC`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to list sessions")
	}
	defer rows.Close()

	var list []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseQuery, "failed to scan session")
		}
		list = append(list, session)
	}
	return list, rows.Err()
}

// DeleteByProject removes all sessions (and via cascade, deltas and files)
// recorded for a project.
func (d *Database) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := d.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE project_id = ?`, projectID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseWrite, "failed to delete sessions")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s       Session
		startTS int64
		lastTS  int64
		head    sql.NullString
		open    int
	)
	if err := row.Scan(&s.ID, &s.ProjectID, &startTS, &lastTS, &head, &open); err != nil {
		return nil, err
	}
	s.StartedAt = time.UnixMilli(startTS).UTC()
	s.LastActivity = time.UnixMilli(lastTS).UTC()
	s.Head = head.String
	s.Open = open == 1
	return &s, nil
}
