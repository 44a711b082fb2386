package deltas

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwd-temp/gitbutler/internal/db"
)

func newTestDatabase(t *testing.T) (*Database, *sql.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "butler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewDatabase(database.Conn()), database.Conn()
}

func seedSession(t *testing.T, conn *sql.DB, id string) {
	t.Helper()
	_, err := conn.Exec(
		`INSERT INTO sessions (id, project_id, start_ts, last_ts, head, open)
		 VALUES (?, 'p1', 0, 0, 'refs/heads/main', 1)`, id)
	require.NoError(t, err)
}

func TestInsertAndList(t *testing.T) {
	d, conn := newTestDatabase(t)
	ctx := context.Background()
	seedSession(t, conn, "s1")

	first := Diff("", "hello", time.UnixMilli(1))
	second := Diff("hello", "hello world", time.UnixMilli(2))
	require.NoError(t, d.Insert(ctx, "s1", "a.txt", 0, first))
	require.NoError(t, d.Insert(ctx, "s1", "a.txt", 1, second))
	require.NoError(t, d.Insert(ctx, "s1", "b.txt", 0, Diff("", "other", time.UnixMilli(3))))

	byFile, err := d.ListByFile(ctx, "s1", "a.txt")
	require.NoError(t, err)
	require.Len(t, byFile, 2)
	assert.Equal(t, int64(1), byFile[0].TimestampMs)
	assert.Equal(t, int64(2), byFile[1].TimestampMs)

	// Replaying the deltas reconstructs the final content.
	content := ""
	for _, delta := range byFile {
		var applyErr error
		content, applyErr = delta.Apply(content)
		require.NoError(t, applyErr)
	}
	assert.Equal(t, "hello world", content)

	bySession, err := d.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, bySession, 2)
	assert.Len(t, bySession["a.txt"], 2)
	assert.Len(t, bySession["b.txt"], 1)
}

func TestInsertReplayIdempotent(t *testing.T) {
	d, conn := newTestDatabase(t)
	ctx := context.Background()
	seedSession(t, conn, "s1")

	delta := Diff("x", "xy", time.UnixMilli(5))
	require.NoError(t, d.Insert(ctx, "s1", "a.txt", 0, delta))
	require.NoError(t, d.Insert(ctx, "s1", "a.txt", 0, delta))

	list, err := d.ListByFile(ctx, "s1", "a.txt")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNextSeq(t *testing.T) {
	d, conn := newTestDatabase(t)
	ctx := context.Background()
	seedSession(t, conn, "s1")

	seq, err := d.NextSeq(ctx, "s1", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, seq)

	require.NoError(t, d.Insert(ctx, "s1", "a.txt", seq, Diff("", "v1", time.UnixMilli(1))))
	seq, err = d.NextSeq(ctx, "s1", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	// Sequences are tracked per file.
	seq, err = d.NextSeq(ctx, "s1", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, seq)
}
