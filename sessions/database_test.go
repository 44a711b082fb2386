package sessions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lwd-temp/gitbutler/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "butler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewDatabase(database.Conn())
}

func TestGetOrCreateCurrent(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	// No session yet
	current, err := d.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, current)

	// First call creates
	first, created, err := d.GetOrCreateCurrent(ctx, "p1", "refs/heads/main")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.Open)
	assert.Equal(t, "refs/heads/main", first.Head)

	// Second call reuses
	second, created, err := d.GetOrCreateCurrent(ctx, "p1", "refs/heads/main")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Sessions are per project
	other, created, err := d.GetOrCreateCurrent(ctx, "p2", "refs/heads/main")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCloseIsIdempotent(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	session, _, err := d.GetOrCreateCurrent(ctx, "p1", "")
	require.NoError(t, err)

	require.NoError(t, d.Close(ctx, session.ID))
	require.NoError(t, d.Close(ctx, session.ID))
	require.NoError(t, d.Close(ctx, "no-such-session"))

	current, err := d.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, current)

	// A new session starts after close
	next, created, err := d.GetOrCreateCurrent(ctx, "p1", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, session.ID, next.ID)
}

func TestTouch(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	session, _, err := d.GetOrCreateCurrent(ctx, "p1", "")
	require.NoError(t, err)

	later := session.LastActivity.Add(42 * time.Second)
	require.NoError(t, d.Touch(ctx, session.ID, later))

	got, err := d.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, later.UnixMilli(), got.LastActivity.UnixMilli())
}

func TestListByProject(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	first, _, err := d.GetOrCreateCurrent(ctx, "p1", "")
	require.NoError(t, err)
	require.NoError(t, d.Close(ctx, first.ID))
	_, _, err = d.GetOrCreateCurrent(ctx, "p1", "")
	require.NoError(t, err)

	list, err := d.ListByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeleteByProject(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	_, _, err := d.GetOrCreateCurrent(ctx, "p1", "")
	require.NoError(t, err)

	require.NoError(t, d.DeleteByProject(ctx, "p1"))
	list, err := d.ListByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
