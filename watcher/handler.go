package watcher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lwd-temp/gitbutler/deltas"
	"github.com/lwd-temp/gitbutler/errors"
	"github.com/lwd-temp/gitbutler/files"
	"github.com/lwd-temp/gitbutler/git"
	"github.com/lwd-temp/gitbutler/logging"
	"github.com/lwd-temp/gitbutler/notify"
	"github.com/lwd-temp/gitbutler/projects"
	"github.com/lwd-temp/gitbutler/search"
	"github.com/lwd-temp/gitbutler/sessions"
)

// Handler interprets one event at a time for one project and returns the
// derived events to publish. It owns all effects: session lifecycle, delta
// recording, indexing, and notifications.
type Handler struct {
	project    *projects.Project
	sessions   *sessions.Database
	deltas     *deltas.Database
	files      *files.Database
	searcher   *search.Searcher
	repo       git.RepositoryProvider
	notifier   notify.Sender
	inactivity time.Duration
	log        *logrus.Entry
}

// NewHandler wires a handler for a project.
func NewHandler(
	project *projects.Project,
	sessionDB *sessions.Database,
	deltaDB *deltas.Database,
	fileDB *files.Database,
	searcher *search.Searcher,
	repo git.RepositoryProvider,
	notifier notify.Sender,
	inactivity time.Duration,
) *Handler {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Handler{
		project:    project,
		sessions:   sessionDB,
		deltas:     deltaDB,
		files:      fileDB,
		searcher:   searcher,
		repo:       repo,
		notifier:   notifier,
		inactivity: inactivity,
		log:        logging.NewLogger("handler").WithField("project", project.ID),
	}
}

// Handle processes one event and returns the events it derives. Effects run
// before derived events are returned, so a derived event only exists once
// its cause has been durably handled.
func (h *Handler) Handle(ctx context.Context, ev Event) ([]Event, error) {
	switch e := ev.(type) {
	case FileChange:
		return h.handleFileChange(ctx, e)
	case GitFileChange:
		return h.handleGitFileChange(ctx, e)
	case Tick:
		return h.handleTick(ctx, e)
	case Flush:
		return h.handleFlush(ctx, e)
	case IndexFile:
		return nil, h.handleIndexFile(ctx, e)
	case IndexSession:
		return nil, h.handleIndexSession(ctx, e)
	default:
		return nil, errors.Internal("unhandled event kind "+ev.Kind(), nil)
	}
}

func (h *Handler) handleFileChange(ctx context.Context, ev FileChange) ([]Event, error) {
	sess, err := h.currentOrNewSession(ctx)
	if err != nil {
		return nil, err
	}

	content := ev.Content
	if ev.Deleted {
		content = ""
	}

	last, known, err := h.lastRecordedContent(ctx, sess.ID, ev.Path)
	if err != nil {
		return nil, err
	}
	if !known {
		// First touch in this session establishes the base snapshot;
		// later changes are recorded as deltas against it.
		if err := h.files.SaveBase(ctx, sess.ID, ev.Path, content); err != nil {
			return nil, err
		}
	} else if delta := deltas.Diff(last, content, time.Now()); delta != nil {
		seq, err := h.deltas.NextSeq(ctx, sess.ID, ev.Path)
		if err != nil {
			return nil, err
		}
		if err := h.deltas.Insert(ctx, sess.ID, ev.Path, seq, delta); err != nil {
			return nil, err
		}
		h.notifier.Send(notify.Message{
			Type:      notify.TypeDeltaRecorded,
			ProjectID: h.project.ID,
			Data: map[string]interface{}{
				"sessionId": sess.ID,
				"filePath":  ev.Path,
				"seq":       seq,
			},
		})
	}

	if err := h.sessions.Touch(ctx, sess.ID, time.Now()); err != nil {
		return nil, err
	}
	return []Event{IndexFile{SessionID: sess.ID, Path: ev.Path, Content: content}}, nil
}

func (h *Handler) handleGitFileChange(ctx context.Context, ev GitFileChange) ([]Event, error) {
	if ev.Path != "HEAD" {
		return nil, nil
	}
	current, err := h.sessions.GetCurrent(ctx, h.project.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	head, err := h.repo.Head(ctx, h.project.Path)
	if err != nil {
		return nil, errors.GitFailed("head", err)
	}
	if head == current.Head {
		return nil, nil
	}
	h.log.WithFields(logrus.Fields{"from": current.Head, "to": head}).Info("HEAD moved, flushing session")
	return []Event{Flush{Session: current}}, nil
}

func (h *Handler) handleTick(ctx context.Context, ev Tick) ([]Event, error) {
	current, err := h.sessions.GetCurrent(ctx, h.project.ID)
	if err != nil {
		return nil, err
	}
	if current == nil || ev.Time.Sub(current.LastActivity) < h.inactivity {
		return nil, nil
	}
	h.log.WithField("session", current.ID).Info("Session idle, flushing")
	return []Event{Flush{Session: current}}, nil
}

func (h *Handler) handleFlush(ctx context.Context, ev Flush) ([]Event, error) {
	if err := h.sessions.Close(ctx, ev.Session.ID); err != nil {
		return nil, err
	}
	h.notifier.Send(notify.Message{
		Type:      notify.TypeSessionClosed,
		ProjectID: h.project.ID,
		Data:      map[string]interface{}{"sessionId": ev.Session.ID},
	})
	return []Event{IndexSession{Session: ev.Session}}, nil
}

func (h *Handler) handleIndexFile(ctx context.Context, ev IndexFile) error {
	if err := h.searcher.Index(ctx, h.project.ID, ev.SessionID, ev.Path, ev.Content); err != nil {
		return err
	}
	h.notifier.Send(notify.Message{
		Type:      notify.TypeFileIndexed,
		ProjectID: h.project.ID,
		Data:      map[string]interface{}{"sessionId": ev.SessionID, "filePath": ev.Path},
	})
	return nil
}

func (h *Handler) handleIndexSession(ctx context.Context, ev IndexSession) error {
	contents, err := h.finalContents(ctx, ev.Session.ID)
	if err != nil {
		return err
	}
	for path, content := range contents {
		if err := h.searcher.Index(ctx, h.project.ID, ev.Session.ID, path, content); err != nil {
			return err
		}
	}
	h.notifier.Send(notify.Message{
		Type:      notify.TypeSessionIndexed,
		ProjectID: h.project.ID,
		Data:      map[string]interface{}{"sessionId": ev.Session.ID, "files": len(contents)},
	})
	return nil
}

// currentOrNewSession returns the project's open session, creating one when
// none exists.
func (h *Handler) currentOrNewSession(ctx context.Context) (*sessions.Session, error) {
	head, err := h.repo.Head(ctx, h.project.Path)
	if err != nil {
		// Recording works in non-git directories too; the session just
		// has no head ref.
		head = ""
	}
	sess, created, err := h.sessions.GetOrCreateCurrent(ctx, h.project.ID, head)
	if err != nil {
		return nil, err
	}
	if created {
		h.log.WithField("session", sess.ID).Info("Session started")
		h.notifier.Send(notify.Message{
			Type:      notify.TypeSessionCreated,
			ProjectID: h.project.ID,
			Data:      map[string]interface{}{"sessionId": sess.ID, "head": sess.Head},
		})
	}
	return sess, nil
}

// lastRecordedContent reconstructs the most recent recorded content of a
// file within a session by replaying its deltas over the base snapshot.
func (h *Handler) lastRecordedContent(ctx context.Context, sessionID, path string) (string, bool, error) {
	base, found, err := h.files.GetBase(ctx, sessionID, path)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	list, err := h.deltas.ListByFile(ctx, sessionID, path)
	if err != nil {
		return "", false, err
	}
	content := base
	for _, delta := range list {
		content, err = delta.Apply(content)
		if err != nil {
			return "", false, errors.DeltaFailed(path, err)
		}
	}
	return content, true, nil
}

// finalContents reconstructs every touched file's final content for a
// session.
func (h *Handler) finalContents(ctx context.Context, sessionID string) (map[string]string, error) {
	bases, err := h.files.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(bases))
	for path := range bases {
		content, _, err := h.lastRecordedContent(ctx, sessionID, path)
		if err != nil {
			return nil, err
		}
		result[path] = content
	}
	return result, nil
}
