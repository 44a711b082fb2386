package app

import (
	"context"
	"os"
	"time"

	"github.com/lwd-temp/gitbutler/bookmarks"
	"github.com/lwd-temp/gitbutler/errors"
	"github.com/lwd-temp/gitbutler/pkg/paths"
	"github.com/lwd-temp/gitbutler/projects"
	"github.com/lwd-temp/gitbutler/search"
	"github.com/lwd-temp/gitbutler/sessions"
)

// AddProject registers a directory for recording. The directory must be a
// git work dir, since session boundaries come from its HEAD.
func (a *App) AddProject(ctx context.Context, path, title string) (*projects.Project, error) {
	if !a.repo.IsGitRepo(ctx, path) {
		return nil, errors.InvalidInput("not a git repository: " + path)
	}
	return a.projects.Add(path, title)
}

// Single-shot operations used by the daemon API and the CLI. Each one
// resolves the project first so callers get PROJECT_NOT_FOUND rather than
// an empty result for a bad ID.

// ListSessions returns a project's sessions, newest first.
func (a *App) ListSessions(ctx context.Context, projectID string) ([]*sessions.Session, error) {
	if _, err := a.projects.Get(projectID); err != nil {
		return nil, err
	}
	return a.sessions.ListByProject(ctx, projectID)
}

// ListSessionFiles returns the final content of every file a session
// touched, reconstructed from the base snapshots and deltas.
func (a *App) ListSessionFiles(ctx context.Context, sessionID string) (map[string]string, error) {
	if _, err := a.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	bases, err := a.files.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	list, err := a.deltas.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(bases))
	for path, base := range bases {
		content := base
		for _, delta := range list[path] {
			content, err = delta.Apply(content)
			if err != nil {
				return nil, errors.DeltaFailed(path, err)
			}
		}
		result[path] = content
	}
	return result, nil
}

// ListDeltas returns a session's deltas grouped by file path.
func (a *App) ListDeltas(ctx context.Context, sessionID string) (map[string][]*DeltaView, error) {
	if _, err := a.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	raw, err := a.deltas.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]*DeltaView, len(raw))
	for path, list := range raw {
		for _, delta := range list {
			result[path] = append(result[path], &DeltaView{
				TimestampMs: delta.TimestampMs,
				Operations:  len(delta.Operations),
			})
		}
	}
	return result, nil
}

// DeltaView is a compact delta summary for listings.
type DeltaView struct {
	TimestampMs int64 `json:"timestampMs"`
	Operations  int   `json:"operations"`
}

// Search queries a project's content index.
func (a *App) Search(ctx context.Context, projectID, query string, limit int) ([]*search.Result, error) {
	if _, err := a.projects.Get(projectID); err != nil {
		return nil, err
	}
	return a.searcher.Search(ctx, projectID, query, limit)
}

// UpsertBookmark stores a bookmark stamped with the current time.
func (a *App) UpsertBookmark(ctx context.Context, projectID string, ts int64, note string, deleted bool) (*bookmarks.Bookmark, error) {
	if _, err := a.projects.Get(projectID); err != nil {
		return nil, err
	}
	b := &bookmarks.Bookmark{
		ProjectID:   projectID,
		TimestampMs: ts,
		Note:        note,
		Deleted:     deleted,
		UpdatedMs:   time.Now().UnixMilli(),
	}
	if err := a.bookmarks.Upsert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookmarks returns a project's live bookmarks.
func (a *App) ListBookmarks(ctx context.Context, projectID string) ([]*bookmarks.Bookmark, error) {
	if _, err := a.projects.Get(projectID); err != nil {
		return nil, err
	}
	return a.bookmarks.ListByProject(ctx, projectID)
}

// Head returns the project repository's current HEAD ref.
func (a *App) Head(ctx context.Context, projectID string) (string, error) {
	project, err := a.projects.Get(projectID)
	if err != nil {
		return "", err
	}
	return a.repo.Head(ctx, project.Path)
}

// IndexSize returns the number of entries in the project's git index.
func (a *App) IndexSize(ctx context.Context, projectID string) (int, error) {
	project, err := a.projects.Get(projectID)
	if err != nil {
		return 0, err
	}
	return a.repo.IndexSize(ctx, project.Path)
}

// RemoteBranches lists the project repository's remote branches.
func (a *App) RemoteBranches(ctx context.Context, projectID string) ([]string, error) {
	project, err := a.projects.Get(projectID)
	if err != nil {
		return nil, err
	}
	return a.repo.RemoteBranches(ctx, project.Path)
}

// TestPush dry-runs a push to check credentials and connectivity.
func (a *App) TestPush(ctx context.Context, projectID, remote, branch string) error {
	project, err := a.projects.Get(projectID)
	if err != nil {
		return err
	}
	return a.repo.TestPush(ctx, project.Path, remote, branch)
}

// TestFetch dry-runs a fetch to check connectivity.
func (a *App) TestFetch(ctx context.Context, projectID, remote string) error {
	project, err := a.projects.Get(projectID)
	if err != nil {
		return err
	}
	return a.repo.TestFetch(ctx, project.Path, remote)
}

// GitGlobalConfig reads a key from the user's global git configuration.
func (a *App) GitGlobalConfig(ctx context.Context, key string) (string, bool, error) {
	return a.repo.GetGlobal(ctx, key)
}

// SetGitGlobalConfig writes a key to the user's global git configuration.
func (a *App) SetGitGlobalConfig(ctx context.Context, key, value string) error {
	return a.repo.SetGlobal(ctx, key, value)
}

// RemoveProject stops the project's watcher, deletes its recorded data, and
// removes it from the registry.
func (a *App) RemoveProject(ctx context.Context, projectID string) error {
	if _, err := a.projects.Get(projectID); err != nil {
		return err
	}
	a.StopProject(projectID)
	if err := a.searcher.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	if err := a.sessions.DeleteByProject(ctx, projectID); err != nil {
		return err
	}
	return a.projects.Delete(projectID)
}

// DeleteAllData closes the app and removes the database and the project
// registry from disk.
func (a *App) DeleteAllData() error {
	if err := a.Close(); err != nil {
		return err
	}
	if err := os.Remove(paths.DatabasePath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to remove database")
	}
	if err := os.Remove(paths.ProjectsFile()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to remove project registry")
	}
	return nil
}
