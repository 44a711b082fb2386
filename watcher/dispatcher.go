package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	"github.com/lwd-temp/gitbutler/config"
	"github.com/lwd-temp/gitbutler/errors"
	"github.com/lwd-temp/gitbutler/logging"
	"github.com/lwd-temp/gitbutler/projects"
)

// Ignore patterns applied to every project on top of the user's own.
var defaultIgnores = []string{
	"node_modules/",
	"target/",
	".DS_Store",
	"*.swp",
	"*.swx",
	"*~",
}

// Dispatcher observes one project work directory and publishes self-contained
// events: file changes with their content snapshotted at observation time,
// git metadata changes, and periodic ticks. It does not interpret events;
// that is the handler's job.
type Dispatcher struct {
	projectID string
	root      string
	gitDir    string

	matcher     *patternmatcher.PatternMatcher
	tickEvery   time.Duration
	maxFileSize int64
	log         *logrus.Entry

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewDispatcher creates a dispatcher for a project. Stop may be called at
// any point, including before Run.
func NewDispatcher(project *projects.Project, cfg config.WatchConfig) (*Dispatcher, error) {
	patterns := append(append([]string{}, defaultIgnores...), cfg.IgnorePatterns...)
	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid ignore patterns")
	}
	return &Dispatcher{
		projectID:   project.ID,
		root:        project.Path,
		gitDir:      filepath.Join(project.Path, ".git"),
		matcher:     matcher,
		tickEvery:   cfg.TickIntervalDuration(),
		maxFileSize: cfg.MaxFileSizeBytes(),
		log:         logging.NewLogger("dispatcher").WithField("project", project.ID),
		stopped:     make(chan struct{}),
	}, nil
}

// Run watches the project and calls publish for each observed event. It
// blocks until the context is cancelled or Stop is called.
func (d *Dispatcher) Run(ctx context.Context, publish func(Event)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WatchFailed(d.projectID, err)
	}
	defer fsw.Close()

	if err := d.addRecursive(fsw, d.root); err != nil {
		return err
	}
	// The git directory is watched non-recursively; HEAD and the index
	// live at its top level. The refs tree is added separately so updates
	// to loose refs like refs/heads/<branch> are observed too.
	if err := fsw.Add(d.gitDir); err != nil {
		d.log.WithError(err).Warn("Failed to watch git directory, session boundaries on HEAD moves are disabled")
	} else {
		d.addRefsTree(fsw, filepath.Join(d.gitDir, "refs"))
	}

	ticker := time.NewTicker(d.tickEvery)
	defer ticker.Stop()

	d.log.WithField("path", d.root).Info("Watching project")
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			d.handleFsEvent(fsw, event, publish)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			d.log.WithError(err).Error("Watcher error")
		case now := <-ticker.C:
			publish(Tick{Time: now})
		case <-ctx.Done():
			return nil
		case <-d.stopped:
			return nil
		}
	}
}

// Stop ends Run. Idempotent, and safe to call before Run.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopped) })
}

func (d *Dispatcher) handleFsEvent(fsw *fsnotify.Watcher, event fsnotify.Event, publish func(Event)) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(d.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	if inGit, gitRel := d.gitRelative(event.Name); inGit {
		if event.Op&fsnotify.Create != 0 && (gitRel == "refs" || strings.HasPrefix(gitRel, "refs/")) {
			if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
				d.addRefsTree(fsw, event.Name)
				return
			}
		}
		if isGitMetadata(gitRel) {
			d.log.WithField("file", gitRel).Debug("Git metadata changed")
			publish(GitFileChange{Path: gitRel})
		}
		return
	}

	if ignored, _ := d.matcher.MatchesOrParentMatches(rel); ignored {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := d.addRecursive(fsw, event.Name); err != nil {
				d.log.WithError(err).Warnf("Failed to watch new directory %s", rel)
			}
			return
		}
	}

	if ev, ok := d.snapshot(rel, event.Name); ok {
		publish(ev)
	}
}

// snapshot reads the file's content so the event stays valid however the
// file changes afterwards. A missing file becomes a deletion event, which
// also makes delete-and-recreate look like a plain content change.
func (d *Dispatcher) snapshot(rel, abs string) (FileChange, bool) {
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return FileChange{Path: rel, Deleted: true}, true
		}
		d.log.WithError(err).Debugf("Skipping %s", rel)
		return FileChange{}, false
	}
	if !info.Mode().IsRegular() {
		return FileChange{}, false
	}
	if info.Size() > d.maxFileSize {
		d.log.WithFields(logrus.Fields{"file": rel, "size": info.Size()}).Debug("File exceeds snapshot size limit, skipping")
		return FileChange{}, false
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return FileChange{Path: rel, Deleted: true}, true
		}
		d.log.WithError(err).Debugf("Skipping %s", rel)
		return FileChange{}, false
	}
	return FileChange{Path: rel, Content: string(content)}, true
}

func (d *Dispatcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				// The directory itself must be watchable.
				return errors.WatchFailed(d.projectID, err)
			}
			// Races with deletions are expected while walking below it.
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path == d.gitDir {
			return filepath.SkipDir
		}
		if rel, relErr := filepath.Rel(d.root, path); relErr == nil && rel != "." {
			if ignored, _ := d.matcher.MatchesOrParentMatches(filepath.ToSlash(rel)); ignored {
				return filepath.SkipDir
			}
		}
		if err := fsw.Add(path); err != nil {
			return errors.WatchFailed(d.projectID, err)
		}
		return nil
	})
}

// addRefsTree watches dir and every directory below it. Loose ref
// directories appear over time, e.g. on the first fetch from a remote, so
// this also runs when one is created. A missing dir is fine; packed-refs
// repositories may have no loose tree at all.
func (d *Dispatcher) addRefsTree(fsw *fsnotify.Watcher, dir string) {
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if addErr := fsw.Add(path); addErr != nil {
			d.log.WithError(addErr).Debugf("Failed to watch %s", path)
		}
		return nil
	})
}

// gitRelative reports whether abs lies inside the git directory, and its
// path relative to it.
func (d *Dispatcher) gitRelative(abs string) (bool, string) {
	rel, err := filepath.Rel(d.gitDir, abs)
	if err != nil || strings.HasPrefix(rel, "..") || rel == "." {
		return false, ""
	}
	return true, filepath.ToSlash(rel)
}

// isGitMetadata keeps only the git files that matter for session boundaries
// out of the very noisy .git directory.
func isGitMetadata(gitRel string) bool {
	return gitRel == "HEAD" || gitRel == "index" || strings.HasPrefix(gitRel, "refs/")
}
