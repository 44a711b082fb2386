// Package app assembles the recorder: the shared database, the project
// registry, the git accessor, the notification hub, and one watcher per
// active project. The daemon and the CLI commands both go through it.
package app

import (
	"context"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lwd-temp/gitbutler/bookmarks"
	"github.com/lwd-temp/gitbutler/config"
	"github.com/lwd-temp/gitbutler/deltas"
	"github.com/lwd-temp/gitbutler/errors"
	"github.com/lwd-temp/gitbutler/files"
	"github.com/lwd-temp/gitbutler/git"
	"github.com/lwd-temp/gitbutler/internal/db"
	"github.com/lwd-temp/gitbutler/logging"
	"github.com/lwd-temp/gitbutler/notify"
	"github.com/lwd-temp/gitbutler/pkg/paths"
	"github.com/lwd-temp/gitbutler/projects"
	"github.com/lwd-temp/gitbutler/search"
	"github.com/lwd-temp/gitbutler/sessions"
	"github.com/lwd-temp/gitbutler/watcher"
)

// App owns every long-lived component of the recorder.
type App struct {
	cfg       *config.Config
	database  *db.DB
	projects  *projects.Storage
	sessions  *sessions.Database
	deltas    *deltas.Database
	files     *files.Database
	bookmarks *bookmarks.Database
	searcher  *search.Searcher
	repo      *git.CLIRepository
	hub       *notify.Hub
	log       *logrus.Entry

	mu       sync.Mutex
	watchers map[string]*projectWatcher
	wg       sync.WaitGroup
}

type projectWatcher struct {
	watcher *watcher.Watcher
	cancel  context.CancelFunc
}

// New opens the database and wires the shared components. Watchers start
// separately via StartAll or StartProject.
func New(cfg *config.Config) (*App, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	store, err := projects.NewStorage(paths.ProjectsFile())
	if err != nil {
		return nil, err
	}
	database, err := db.Open(paths.DatabasePath())
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:       cfg,
		database:  database,
		projects:  store,
		sessions:  sessions.NewDatabase(database.Conn()),
		deltas:    deltas.NewDatabase(database.Conn()),
		files:     files.NewDatabase(database.Conn()),
		bookmarks: bookmarks.NewDatabase(database.Conn()),
		searcher:  search.NewSearcher(database.Conn()),
		repo:      git.NewCLIRepository(),
		hub:       notify.NewHub(),
		log:       logging.NewLogger("app"),
		watchers:  make(map[string]*projectWatcher),
	}, nil
}

// Hub exposes the notification hub for the daemon's websocket endpoint.
func (a *App) Hub() *notify.Hub { return a.hub }

// Projects exposes the project registry.
func (a *App) Projects() *projects.Storage { return a.projects }

// Sessions exposes the session store for read queries.
func (a *App) Sessions() *sessions.Database { return a.sessions }

// Deltas exposes the delta store for read queries.
func (a *App) Deltas() *deltas.Database { return a.deltas }

// Searcher exposes the content index for queries.
func (a *App) Searcher() *search.Searcher { return a.searcher }

// StartAll starts a watcher for every project that is not archived.
func (a *App) StartAll(ctx context.Context) error {
	list, err := a.projects.List()
	if err != nil {
		return err
	}
	for _, project := range list {
		if project.Archived {
			continue
		}
		if err := a.StartProject(ctx, project.ID); err != nil {
			a.log.WithError(err).WithField("project", project.ID).Error("Failed to start watcher")
		}
	}
	return nil
}

// StartProject starts the watcher for one project. Starting an already
// watched project is a no-op.
func (a *App) StartProject(ctx context.Context, projectID string) error {
	project, err := a.projects.Get(projectID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(project.Path); err != nil {
		return errors.WatchFailed(projectID, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, running := a.watchers[projectID]; running {
		return nil
	}

	dispatcher, err := watcher.NewDispatcher(project, a.cfg.Watch)
	if err != nil {
		return err
	}
	handler := watcher.NewHandler(
		project, a.sessions, a.deltas, a.files, a.searcher,
		a.repo, a.hub, a.cfg.Watch.SessionInactivityDuration(),
	)
	w := watcher.New(project, dispatcher, handler, a.cfg.Watch)

	wctx, cancel := context.WithCancel(ctx)
	a.watchers[projectID] = &projectWatcher{watcher: w, cancel: cancel}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := w.Run(wctx); err != nil {
			a.log.WithError(err).WithField("project", projectID).Error("Watcher stopped")
		}
		a.mu.Lock()
		delete(a.watchers, projectID)
		a.mu.Unlock()
	}()
	a.log.WithField("project", projectID).Info("Project watcher started")
	return nil
}

// StopProject stops one project's watcher. Stopping an unwatched project is
// a no-op.
func (a *App) StopProject(projectID string) {
	a.mu.Lock()
	pw := a.watchers[projectID]
	a.mu.Unlock()
	if pw != nil {
		pw.cancel()
	}
}

// Flush asks a project's watcher to close the current session now. Without
// a running watcher or an open session it does nothing.
func (a *App) Flush(ctx context.Context, projectID string) error {
	current, err := a.sessions.GetCurrent(ctx, projectID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	a.mu.Lock()
	pw := a.watchers[projectID]
	a.mu.Unlock()
	if pw == nil {
		return errors.New(errors.ErrCodeWatchFailed, "project is not being watched")
	}
	pw.watcher.Post(watcher.Flush{Session: current})
	return nil
}

// Close stops every watcher, waits for them, and closes the database.
func (a *App) Close() error {
	a.mu.Lock()
	for _, pw := range a.watchers {
		pw.cancel()
	}
	a.mu.Unlock()
	a.wg.Wait()
	a.hub.Close()
	return a.database.Close()
}
