package watcher

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lwd-temp/gitbutler/logging"
)

// queue is the shared FIFO between the dispatcher, the loop, and the
// handler's derived events. Pushing never blocks the caller: a pump
// goroutine buffers pending events internally, which lets the loop publish
// derived events onto the queue it is consuming from without deadlocking.
// When the buffer exceeds max, the oldest pending event is dropped with a
// warning; recording stays available at the cost of a lost observation.
type queue struct {
	in  chan Event
	out chan Event
	max int
	log *logrus.Entry

	mu     sync.RWMutex
	closed bool
}

func newQueue(max int) *queue {
	q := &queue{
		in:  make(chan Event),
		out: make(chan Event),
		max: max,
		log: logging.NewLogger("queue"),
	}
	go q.pump()
	return q
}

// Push enqueues an event. Safe from any goroutine; after Close it is a
// no-op.
func (q *queue) Push(ev Event) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}
	// The pump is always receptive, so this send does not block on the
	// consumer.
	q.in <- ev
}

// Events is the consumption side. The channel closes after Close once all
// pending events have been delivered.
func (q *queue) Events() <-chan Event {
	return q.out
}

// Close stops intake. Pending events are still delivered.
func (q *queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}

func (q *queue) pump() {
	defer close(q.out)
	var pending []Event
	for {
		var (
			next Event
			out  chan Event
		)
		if len(pending) > 0 {
			next = pending[0]
			out = q.out
		}
		select {
		case ev, ok := <-q.in:
			if !ok {
				for _, ev := range pending {
					q.out <- ev
				}
				return
			}
			pending = append(pending, ev)
			if q.max > 0 && len(pending) > q.max {
				dropped := pending[0]
				pending = pending[1:]
				q.log.WithFields(logrus.Fields{
					"kind":    dropped.Kind(),
					"pending": len(pending),
				}).Warn("Event queue over capacity, dropping oldest event")
			}
		case out <- next:
			pending = pending[1:]
		}
	}
}
