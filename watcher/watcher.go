package watcher

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/lwd-temp/gitbutler/config"
	"github.com/lwd-temp/gitbutler/logging"
	"github.com/lwd-temp/gitbutler/projects"
)

// Watcher is the per-project event loop. It runs the dispatcher, consumes
// the shared queue one event at a time, and publishes whatever the handler
// derives back onto the same queue. A handler error loses that one event
// and nothing else; the loop keeps running.
type Watcher struct {
	project    *projects.Project
	dispatcher *Dispatcher
	handler    *Handler
	queue      *queue
	log        *logrus.Entry
}

// New assembles a watcher from its dispatcher and handler.
func New(project *projects.Project, dispatcher *Dispatcher, handler *Handler, cfg config.WatchConfig) *Watcher {
	return &Watcher{
		project:    project,
		dispatcher: dispatcher,
		handler:    handler,
		queue:      newQueue(cfg.MaxQueueSize()),
		log:        logging.NewLogger("watcher").WithField("project", project.ID),
	}
}

// Post injects an event from outside the loop, e.g. an explicit Flush
// requested through the daemon. Safe after shutdown; the event is then
// dropped.
func (w *Watcher) Post(ev Event) {
	w.queue.Push(ev)
}

// Run blocks until ctx is cancelled or Stop is called. A dispatcher failure
// does not end the loop: the error is logged and the loop keeps serving
// queued and posted events, it just receives no further observed ones. On
// shutdown the dispatcher is stopped exactly once and unprocessed events
// are discarded.
func (w *Watcher) Run(ctx context.Context) error {
	dispatcherDone := make(chan error, 1)
	go func() {
		dispatcherDone <- w.dispatcher.Run(ctx, w.queue.Push)
	}()

	for {
		select {
		case <-ctx.Done():
			return w.shutdown(dispatcherDone)
		case err := <-dispatcherDone:
			if err != nil {
				w.log.WithError(err).Error("Dispatcher failed, no further filesystem events will be observed")
			}
			// A nil channel never fires again; posted events keep flowing.
			dispatcherDone = nil
		case ev, ok := <-w.queue.Events():
			if !ok {
				return nil
			}
			w.dispatch(ctx, ev)
		}
	}
}

// Stop ends the dispatcher and closes the queue; Run returns once the
// already queued events have been served.
func (w *Watcher) Stop() {
	w.dispatcher.Stop()
	w.queue.Close()
}

func (w *Watcher) dispatch(ctx context.Context, ev Event) {
	derived, err := w.handler.Handle(ctx, ev)
	if err != nil {
		// Recording stays available; this event's effects are lost.
		w.log.WithError(err).WithField("kind", ev.Kind()).Error("Failed to handle event")
		return
	}
	for _, d := range derived {
		w.queue.Push(d)
	}
}

func (w *Watcher) shutdown(dispatcherDone <-chan error) error {
	w.dispatcher.Stop()
	var err error
	if dispatcherDone != nil {
		err = <-dispatcherDone
	}
	w.drainQueue()
	return err
}

func (w *Watcher) drainQueue() {
	w.queue.Close()
	dropped := 0
	for range w.queue.Events() {
		dropped++
	}
	if dropped > 0 {
		w.log.WithField("events", dropped).Debug("Discarded unprocessed events on shutdown")
	}
}
