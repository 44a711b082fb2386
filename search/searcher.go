// Package search maintains a full-text index over the file contents recorded
// in sessions, and answers ranked queries scoped to a project.
package search

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lwd-temp/gitbutler/errors"
)

// Result is one indexed document matching a query.
type Result struct {
	ProjectID string `json:"projectId"`
	SessionID string `json:"sessionId"`
	FilePath  string `json:"filePath"`
	// Snippet is an excerpt of the matched content with the match
	// highlighted.
	Snippet string `json:"snippet"`
}

// Searcher indexes and queries session file contents.
type Searcher struct {
	conn *sql.DB
}

// NewSearcher creates a searcher on the shared connection.
func NewSearcher(conn *sql.DB) *Searcher {
	return &Searcher{conn: conn}
}

// Index records the latest content of (sessionID, filePath). Reindexing the
// same document replaces the previous entry, so replays converge on one row.
func (s *Searcher) Index(ctx context.Context, projectID, sessionID, filePath, content string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to begin index transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM content_index WHERE session_id = ? AND file_path = ?`,
		sessionID, filePath)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to drop stale index entry")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO content_index (project_id, session_id, file_path, content)
		 VALUES (?, ?, ?, ?)`,
		projectID, sessionID, filePath, content)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to index content")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to commit index entry")
	}
	return nil
}

// DeleteSession drops every index entry belonging to a session.
func (s *Searcher) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM content_index WHERE session_id = ?`, sessionID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to drop session index")
	}
	return nil
}

// DeleteProject drops every index entry belonging to a project.
func (s *Searcher) DeleteProject(ctx context.Context, projectID string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM content_index WHERE project_id = ?`, projectID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to drop project index")
	}
	return nil
}

// Search returns documents in a project matching query, best match first.
// Limit caps the result count; zero means a default of 50.
func (s *Searcher) Search(ctx context.Context, projectID, query string, limit int) ([]*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.InvalidInput("search query is empty")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT project_id, session_id, file_path,
		        snippet(content_index, 3, '[', ']', '...', 16)
		 FROM content_index
		 WHERE project_id = ? AND content_index MATCH ?
		 ORDER BY rank LIMIT ?`,
		projectID, escapeQuery(query), limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIndexFailed, "search query failed")
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ProjectID, &r.SessionID, &r.FilePath, &r.Snippet); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to scan search result")
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// escapeQuery quotes each term so user input cannot inject fts5 query
// syntax like NEAR() or column filters.
func escapeQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
