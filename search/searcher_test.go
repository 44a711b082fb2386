package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwd-temp/gitbutler/internal/db"
)

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "butler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewSearcher(database.Conn())
}

func TestIndexAndSearch(t *testing.T) {
	s := newTestSearcher(t)
	ctx := context.Background()

	require.NoError(t, s.Index(ctx, "p1", "s1", "main.go", "package main\n\nfunc main() { startWatcher() }"))
	require.NoError(t, s.Index(ctx, "p1", "s1", "readme.md", "notes about the session recorder"))
	require.NoError(t, s.Index(ctx, "p2", "s9", "main.go", "package main // watcher elsewhere"))

	results, err := s.Search(ctx, "p1", "watcher", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "main.go", results[0].FilePath)
	assert.Equal(t, "s1", results[0].SessionID)
	assert.Contains(t, results[0].Snippet, "[startWatcher]")
}

func TestIndexReplacesPrevious(t *testing.T) {
	s := newTestSearcher(t)
	ctx := context.Background()

	require.NoError(t, s.Index(ctx, "p1", "s1", "a.txt", "first version alpha"))
	require.NoError(t, s.Index(ctx, "p1", "s1", "a.txt", "second version beta"))

	stale, err := s.Search(ctx, "p1", "alpha", 0)
	require.NoError(t, err)
	assert.Empty(t, stale)

	fresh, err := s.Search(ctx, "p1", "beta", 0)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestSearchQuotedInput(t *testing.T) {
	s := newTestSearcher(t)
	ctx := context.Background()
	require.NoError(t, s.Index(ctx, "p1", "s1", "a.txt", "plain text body"))

	// Punctuation and quotes in user input must not reach fts5 as syntax.
	results, err := s.Search(ctx, "p1", `"text" body,`, 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = s.Search(ctx, "p1", `NEAR(`, 0)
	require.NoError(t, err)

	_, err = s.Search(ctx, "p1", "   ", 0)
	assert.Error(t, err)
}

func TestDeleteSession(t *testing.T) {
	s := newTestSearcher(t)
	ctx := context.Background()

	require.NoError(t, s.Index(ctx, "p1", "s1", "a.txt", "gone soon"))
	require.NoError(t, s.Index(ctx, "p1", "s2", "b.txt", "gone never"))
	require.NoError(t, s.DeleteSession(ctx, "s1"))

	results, err := s.Search(ctx, "p1", "gone", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s2", results[0].SessionID)
}
