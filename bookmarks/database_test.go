package bookmarks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwd-temp/gitbutler/internal/db"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "butler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewDatabase(database.Conn())
}

func TestUpsertAndList(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p1", TimestampMs: 100, Note: "before refactor", UpdatedMs: 100}))
	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p1", TimestampMs: 200, Note: "after refactor", UpdatedMs: 200}))
	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p2", TimestampMs: 150, Note: "other project", UpdatedMs: 150}))

	list, err := d.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "after refactor", list[0].Note)
	assert.Equal(t, "before refactor", list[1].Note)
}

func TestUpsertNewerWins(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p1", TimestampMs: 100, Note: "first", UpdatedMs: 10}))
	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p1", TimestampMs: 100, Note: "edited", UpdatedMs: 20}))
	// Stale update is dropped.
	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p1", TimestampMs: 100, Note: "stale", UpdatedMs: 5}))

	b, found, err := d.Get(ctx, "p1", 100)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "edited", b.Note)
}

func TestSoftDelete(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p1", TimestampMs: 100, Note: "keep?", UpdatedMs: 10}))
	require.NoError(t, d.Upsert(ctx, &Bookmark{ProjectID: "p1", TimestampMs: 100, Deleted: true, UpdatedMs: 20}))

	list, err := d.ListByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)

	// Still readable directly for sync.
	b, found, err := d.Get(ctx, "p1", 100)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, b.Deleted)
}
