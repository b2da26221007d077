package dom

import (
	"log/slog"
	"slices"
	"sync"
)

// Loop is the host's event loop: a turn lock, a microtask queue drained at
// the end of every turn, and the reporter that receives uncaught errors.
type Loop struct {
	turn sync.Mutex

	mu         sync.Mutex
	microtasks []func() error
	draining   bool

	handlersMu sync.Mutex
	handlers   map[uint64]func(error)
	nextID     uint64

	logger *slog.Logger
}

// NewLoop creates a loop. A nil logger uses slog.Default().
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		handlers: make(map[uint64]func(error)),
		logger:   logger,
	}
}

// Run executes task as one turn: the task runs, then the microtask queue
// is drained. Errors returned by the task are reported, not returned.
// Run must not be called from inside a turn.
func (l *Loop) Run(task func() error) {
	l.turn.Lock()
	defer l.turn.Unlock()

	if err := Call(task); err != nil {
		l.ReportError(err)
	}
	l.Drain()
}

// QueueMicrotask schedules fn to run at the end of the current turn.
// A returned error is reported as uncaught.
func (l *Loop) QueueMicrotask(fn func() error) {
	l.mu.Lock()
	l.microtasks = append(l.microtasks, fn)
	l.mu.Unlock()
}

// Schedule queues fn as a microtask.
func (l *Loop) Schedule(fn func()) {
	l.QueueMicrotask(func() error {
		fn()
		return nil
	})
}

// Pending returns the number of queued microtasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.microtasks)
}

// Drain runs queued microtasks, including ones queued while draining,
// until the queue is empty. Nested calls return immediately.
func (l *Loop) Drain() {
	l.mu.Lock()
	if l.draining {
		l.mu.Unlock()
		return
	}
	l.draining = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.draining = false
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.microtasks[0]
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()

		if err := Call(fn); err != nil {
			l.ReportError(err)
		}
	}
}

// OnError registers a handler for uncaught errors and returns a function
// that removes it.
func (l *Loop) OnError(fn func(error)) (remove func()) {
	l.handlersMu.Lock()
	l.nextID++
	id := l.nextID
	l.handlers[id] = fn
	l.handlersMu.Unlock()

	return func() {
		l.handlersMu.Lock()
		delete(l.handlers, id)
		l.handlersMu.Unlock()
	}
}

// ReportError delivers err to the registered handlers in registration
// order. Without handlers the error is logged.
func (l *Loop) ReportError(err error) {
	l.handlersMu.Lock()
	ids := make([]uint64, 0, len(l.handlers))
	for id := range l.handlers {
		ids = append(ids, id)
	}
	handlers := make([]func(error), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, l.handlers[id])
	}
	l.handlersMu.Unlock()

	if len(handlers) == 0 {
		l.logger.Error("uncaught error", "error", err)
		return
	}
	for _, h := range handlers {
		h(err)
	}
}
