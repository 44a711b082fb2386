package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwd-temp/gitbutler/config"
	"github.com/lwd-temp/gitbutler/errors"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("BUTLER_HOME", t.TempDir())
	a, err := New(&config.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAppRecordsProjectActivity(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workdir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workdir, ".git"), 0o755))
	project, err := a.Projects().Add(workdir, "demo")
	require.NoError(t, err)

	require.NoError(t, a.StartAll(ctx))
	// Idempotent start.
	require.NoError(t, a.StartProject(ctx, project.ID))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(workdir, "notes.txt"), []byte("first line"), 0o644))
	require.Eventually(t, func() bool {
		list, err := a.ListSessions(ctx, project.ID)
		return err == nil && len(list) == 1
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, a.Flush(ctx, project.ID))
	require.Eventually(t, func() bool {
		list, err := a.ListSessions(ctx, project.ID)
		return err == nil && len(list) == 1 && !list[0].Open
	}, 3*time.Second, 20*time.Millisecond)

	list, err := a.ListSessions(ctx, project.ID)
	require.NoError(t, err)
	contents, err := a.ListSessionFiles(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"notes.txt": "first line"}, contents)
}

func TestAppUnknownProject(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.ListSessions(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeProjectNotFound))

	err = a.StartProject(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeProjectNotFound))
}

func TestAppFlushWithoutWatcher(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	workdir := t.TempDir()
	project, err := a.Projects().Add(workdir, "idle")
	require.NoError(t, err)

	// No open session: flush is a no-op.
	require.NoError(t, a.Flush(ctx, project.ID))
}

func TestAppArchivedProjectsStayStopped(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	workdir := t.TempDir()
	project, err := a.Projects().Add(workdir, "old")
	require.NoError(t, err)
	_, err = a.Projects().SetArchived(project.ID, true)
	require.NoError(t, err)

	require.NoError(t, a.StartAll(ctx))
	a.mu.Lock()
	running := len(a.watchers)
	a.mu.Unlock()
	assert.Zero(t, running)
}

func TestAppBookmarks(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	project, err := a.Projects().Add(t.TempDir(), "bm")
	require.NoError(t, err)

	_, err = a.UpsertBookmark(ctx, project.ID, 1000, "interesting moment", false)
	require.NoError(t, err)

	list, err := a.ListBookmarks(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "interesting moment", list[0].Note)
}
