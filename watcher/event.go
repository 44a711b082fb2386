// Package watcher runs the per-project event loop that turns filesystem
// activity into recorded sessions and deltas. A dispatcher observes the
// project and publishes events onto a queue; a single loop consumes them one
// at a time and hands each to the handler, whose derived events go back onto
// the same queue. The derivation graph is finite, so every observed event
// settles after a bounded number of steps:
//
//	FileChange    -> IndexFile
//	GitFileChange -> Flush (on HEAD move)
//	Tick          -> Flush (on inactivity)
//	Flush         -> IndexSession
//	IndexFile, IndexSession -> terminal
package watcher

import (
	"time"

	"github.com/lwd-temp/gitbutler/sessions"
)

// Event is one unit of work for the loop. Events carry everything the
// handler needs; handling never re-reads state that may have moved since
// the event was observed.
type Event interface {
	// Kind names the event for logging.
	Kind() string
}

// FileChange reports that a tracked work-directory file changed. Content is
// the file's full content as read at observation time; Deleted marks that
// the file was gone when read.
type FileChange struct {
	// Path is relative to the project root.
	Path    string
	Content string
	Deleted bool
}

func (FileChange) Kind() string { return "file-change" }

// GitFileChange reports that a file under the repository's .git directory
// changed. Only git metadata relevant to session boundaries is dispatched.
type GitFileChange struct {
	// Path is relative to the .git directory, e.g. "HEAD".
	Path string
}

func (GitFileChange) Kind() string { return "git-file-change" }

// Tick is the dispatcher's periodic timer event.
type Tick struct {
	Time time.Time
}

func (Tick) Kind() string { return "tick" }

// Flush asks for the given session to be closed and indexed. It carries the
// session it was derived for, so a session opened later is never affected.
type Flush struct {
	Session *sessions.Session
}

func (Flush) Kind() string { return "flush" }

// IndexFile asks for one file's current content to be added to the search
// index.
type IndexFile struct {
	SessionID string
	Path      string
	Content   string
}

func (IndexFile) Kind() string { return "index-file" }

// IndexSession asks for a closed session's final file contents to be added
// to the search index.
type IndexSession struct {
	Session *sessions.Session
}

func (IndexSession) Kind() string { return "index-session" }
