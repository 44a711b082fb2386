package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwd-temp/gitbutler/deltas"
	"github.com/lwd-temp/gitbutler/files"
	"github.com/lwd-temp/gitbutler/internal/db"
	"github.com/lwd-temp/gitbutler/notify"
	"github.com/lwd-temp/gitbutler/projects"
	"github.com/lwd-temp/gitbutler/search"
	"github.com/lwd-temp/gitbutler/sessions"
)

// fakeRepo is a RepositoryProvider whose HEAD can be moved by tests.
type fakeRepo struct {
	mu   sync.Mutex
	head string
}

func (f *fakeRepo) setHead(head string) {
	f.mu.Lock()
	f.head = head
	f.mu.Unlock()
}

func (f *fakeRepo) Head(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeRepo) IsGitRepo(context.Context, string) bool                   { return true }
func (f *fakeRepo) GetGitRoot(_ context.Context, dir string) (string, error) { return dir, nil }
func (f *fakeRepo) RemoteBranches(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeRepo) IndexSize(context.Context, string) (int, error)           { return 0, nil }
func (f *fakeRepo) TestPush(context.Context, string, string, string) error   { return nil }
func (f *fakeRepo) TestFetch(context.Context, string, string) error          { return nil }

// recorder is a Sender that keeps every message for inspection.
type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Send(msg notify.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Type
	}
	return out
}

type fixture struct {
	handler  *Handler
	sessions *sessions.Database
	deltas   *deltas.Database
	files    *files.Database
	searcher *search.Searcher
	repo     *fakeRepo
	notes    *recorder
	project  *projects.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "butler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	f := &fixture{
		sessions: sessions.NewDatabase(database.Conn()),
		deltas:   deltas.NewDatabase(database.Conn()),
		files:    files.NewDatabase(database.Conn()),
		searcher: search.NewSearcher(database.Conn()),
		repo:     &fakeRepo{head: "refs/heads/main"},
		notes:    &recorder{},
		project:  &projects.Project{ID: "p1", Title: "demo", Path: t.TempDir()},
	}
	f.handler = NewHandler(f.project, f.sessions, f.deltas, f.files, f.searcher, f.repo, f.notes, 5*time.Minute)
	return f
}

// settle handles an event and then every event it derives, in order, and
// returns everything that was handled.
func settle(t *testing.T, f *fixture, ev Event) []Event {
	t.Helper()
	ctx := context.Background()
	pending := []Event{ev}
	var handled []Event
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		handled = append(handled, next)
		derived, err := f.handler.Handle(ctx, next)
		require.NoError(t, err)
		pending = append(pending, derived...)
		require.Less(t, len(handled), 32, "derivation did not terminate")
	}
	return handled
}

func TestFileChangeStartsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	handled := settle(t, f, FileChange{Path: "a.txt", Content: "x"})
	require.Len(t, handled, 2)
	assert.Equal(t, "index-file", handled[1].Kind())

	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "refs/heads/main", sess.Head)

	// First touch is the base snapshot, not a delta.
	base, found, err := f.files.GetBase(ctx, sess.ID, "a.txt")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "x", base)
	list, err := f.deltas.ListByFile(ctx, sess.ID, "a.txt")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, []string{notify.TypeSessionCreated, notify.TypeFileIndexed}, f.notes.types())
}

func TestFileChangeRecordsDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "x"})
	settle(t, f, FileChange{Path: "a.txt", Content: "xy"})

	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	list, err := f.deltas.ListByFile(ctx, sess.ID, "a.txt")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Operations, 1)
	op := list[0].Operations[0]
	require.NotNil(t, op.Insert)
	assert.Equal(t, 1, op.Insert.Offset)
	assert.Equal(t, "y", op.Insert.Text)
}

func TestRapidEditsKeepOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "one"})
	settle(t, f, FileChange{Path: "a.txt", Content: "one two"})
	settle(t, f, FileChange{Path: "a.txt", Content: "one two three"})

	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	list, err := f.deltas.ListByFile(ctx, sess.ID, "a.txt")
	require.NoError(t, err)
	require.Len(t, list, 2)

	content := "one"
	for _, delta := range list {
		content, err = delta.Apply(content)
		require.NoError(t, err)
	}
	assert.Equal(t, "one two three", content)
}

func TestDeleteAndRecreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "keep me"})
	settle(t, f, FileChange{Path: "a.txt", Deleted: true})
	settle(t, f, FileChange{Path: "a.txt", Content: "fresh start"})

	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	list, err := f.deltas.ListByFile(ctx, sess.ID, "a.txt")
	require.NoError(t, err)
	require.Len(t, list, 2)

	content := "keep me"
	for _, delta := range list {
		content, err = delta.Apply(content)
		require.NoError(t, err)
	}
	assert.Equal(t, "fresh start", content)
}

func TestUnchangedContentRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "same"})
	settle(t, f, FileChange{Path: "a.txt", Content: "same"})

	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	list, err := f.deltas.ListByFile(ctx, sess.ID, "a.txt")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHeadMoveFlushesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "x"})
	first, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)

	// Same HEAD: no boundary.
	derived, err := f.handler.Handle(ctx, GitFileChange{Path: "HEAD"})
	require.NoError(t, err)
	assert.Empty(t, derived)

	// Non-HEAD git files never flush.
	derived, err = f.handler.Handle(ctx, GitFileChange{Path: "index"})
	require.NoError(t, err)
	assert.Empty(t, derived)

	f.repo.setHead("refs/heads/feature")
	settle(t, f, GitFileChange{Path: "HEAD"})

	closed, err := f.sessions.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, closed.Open)

	// The next change opens a new session on the new head.
	settle(t, f, FileChange{Path: "a.txt", Content: "xy"})
	second, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "refs/heads/feature", second.Head)
}

func TestTickFlushesIdleSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "x"})
	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)

	// Recent activity: tick is a no-op.
	derived, err := f.handler.Handle(ctx, Tick{Time: time.Now()})
	require.NoError(t, err)
	assert.Empty(t, derived)

	// Idle past the threshold: flushed.
	settle(t, f, Tick{Time: time.Now().Add(10 * time.Minute)})
	closed, err := f.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, closed.Open)
}

func TestTickWithoutSession(t *testing.T) {
	f := newFixture(t)
	derived, err := f.handler.Handle(context.Background(), Tick{Time: time.Now()})
	require.NoError(t, err)
	assert.Empty(t, derived)
}

func TestFlushIndexesFinalContents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "alpha draft"})
	settle(t, f, FileChange{Path: "a.txt", Content: "alpha final"})
	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)

	settle(t, f, Flush{Session: sess})

	results, err := f.searcher.Search(ctx, "p1", "final", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt", results[0].FilePath)

	// The draft was replaced in the index by the final content.
	stale, err := f.searcher.Search(ctx, "p1", "draft", 0)
	require.NoError(t, err)
	assert.Empty(t, stale)

	assert.Contains(t, f.notes.types(), notify.TypeSessionClosed)
	assert.Contains(t, f.notes.types(), notify.TypeSessionIndexed)
}

func TestFlushReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	settle(t, f, FileChange{Path: "a.txt", Content: "x"})
	sess, err := f.sessions.GetCurrent(ctx, "p1")
	require.NoError(t, err)

	settle(t, f, Flush{Session: sess})
	settle(t, f, Flush{Session: sess})

	closed, err := f.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, closed.Open)
}
