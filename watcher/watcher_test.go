package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwd-temp/gitbutler/config"
)

func watchConfigForTest() config.WatchConfig {
	// A long tick keeps timer events out of assertions.
	return config.WatchConfig{TickInterval: "1h"}
}

func startWatcher(t *testing.T, f *fixture) *Watcher {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(f.project.Path, ".git"), 0o755))

	watchCfg := watchConfigForTest()
	dispatcher, err := NewDispatcher(f.project, watchCfg)
	require.NoError(t, err)
	w := New(f.project, dispatcher, f.handler, watchCfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not shut down")
		}
	})
	time.Sleep(100 * time.Millisecond)
	return w
}

func TestWatcherRecordsEdits(t *testing.T) {
	f := newFixture(t)
	startWatcher(t, f)
	ctx := context.Background()

	path := filepath.Join(f.project.Path, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	require.Eventually(t, func() bool {
		sess, err := f.sessions.GetCurrent(ctx, "p1")
		if err != nil || sess == nil {
			return false
		}
		base, found, err := f.files.GetBase(ctx, sess.ID, "main.go")
		return err == nil && found && base == "package main\n"
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.Eventually(t, func() bool {
		sess, err := f.sessions.GetCurrent(ctx, "p1")
		if err != nil || sess == nil {
			return false
		}
		list, err := f.deltas.ListByFile(ctx, sess.ID, "main.go")
		return err == nil && len(list) > 0
	}, 3*time.Second, 20*time.Millisecond)

	// Derived indexing settles too: the edited file is searchable.
	require.Eventually(t, func() bool {
		results, err := f.searcher.Search(ctx, "p1", "main", 0)
		return err == nil && len(results) == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherExplicitFlush(t *testing.T) {
	f := newFixture(t)
	w := startWatcher(t, f)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(f.project.Path, "a.txt"), []byte("x"), 0o644))
	var sessionID string
	require.Eventually(t, func() bool {
		sess, err := f.sessions.GetCurrent(ctx, "p1")
		if err != nil || sess == nil {
			return false
		}
		sessionID = sess.ID
		return true
	}, 3*time.Second, 20*time.Millisecond)

	sess, err := f.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	w.Post(Flush{Session: sess})

	require.Eventually(t, func() bool {
		closed, err := f.sessions.Get(ctx, sessionID)
		return err == nil && !closed.Open
	}, 3*time.Second, 20*time.Millisecond)
}

type unknownEvent struct{}

func (unknownEvent) Kind() string { return "unknown" }

func TestWatcherSurvivesHandlerError(t *testing.T) {
	f := newFixture(t)
	w := startWatcher(t, f)
	ctx := context.Background()

	// An event the handler cannot interpret is logged and dropped; the
	// loop keeps serving later events.
	w.Post(unknownEvent{})

	require.NoError(t, os.WriteFile(filepath.Join(f.project.Path, "after.txt"), []byte("still alive"), 0o644))
	require.Eventually(t, func() bool {
		sess, err := f.sessions.GetCurrent(ctx, "p1")
		return err == nil && sess != nil
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherOutlivesDispatcherFailure(t *testing.T) {
	f := newFixture(t)
	// An unwatchable project directory fails the dispatcher right away.
	f.project.Path = filepath.Join(t.TempDir(), "gone")

	watchCfg := watchConfigForTest()
	dispatcher, err := NewDispatcher(f.project, watchCfg)
	require.NoError(t, err)
	w := New(f.project, dispatcher, f.handler, watchCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// The loop logs the dispatcher error and keeps running.
	select {
	case err := <-done:
		t.Fatalf("loop terminated on dispatcher failure: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	// Posted events are still served; only filesystem observation is gone.
	w.Post(FileChange{Path: "posted.txt", Content: "still recording"})
	require.Eventually(t, func() bool {
		sess, err := f.sessions.GetCurrent(context.Background(), "p1")
		return err == nil && sess != nil
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("watcher did not shut down")
	}
}

func TestWatcherStopServesQueuedEvents(t *testing.T) {
	f := newFixture(t)
	w := startWatcher(t, f)

	require.NoError(t, os.WriteFile(filepath.Join(f.project.Path, "a.txt"), []byte("x"), 0o644))
	require.Eventually(t, func() bool {
		sess, err := f.sessions.GetCurrent(context.Background(), "p1")
		return err == nil && sess != nil
	}, 3*time.Second, 20*time.Millisecond)

	sess, err := f.sessions.GetCurrent(context.Background(), "p1")
	require.NoError(t, err)

	// Events already queued when Stop is called are served before Run
	// returns, so the flush still lands.
	w.Post(Flush{Session: sess})
	w.Stop()

	require.Eventually(t, func() bool {
		closed, err := f.sessions.Get(context.Background(), sess.ID)
		return err == nil && !closed.Open
	}, 3*time.Second, 20*time.Millisecond)
}
