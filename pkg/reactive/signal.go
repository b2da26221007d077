package reactive

import (
	"reflect"
	"sync"
)

// Scheduler defers work to a later point of the current turn. *dom.Loop
// satisfies it.
type Scheduler interface {
	Schedule(fn func())
}

// Listener is anything that can be notified when a signal changes.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier, used to deduplicate notifications.
	ID() uint64
}

// Signal is a reactive cell: a single value whose writes are observed by
// subscribed listeners.
//
// Set and Update notify listeners through the signal's Scheduler when one
// is configured (otherwise immediately, or at the end of the enclosing
// Batch). Write replaces the value without notifying anyone; it is used to
// prime a cell synchronously while its owner is still being set up.
type Signal[T any] struct {
	id uint64

	value T
	mu    sync.RWMutex

	// equal decides whether a Set changed the value. nil uses defaultEquals.
	equal func(T, T) bool

	sched Scheduler

	subs  []Listener
	subMu sync.RWMutex
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		id:    nextID(),
		value: initial,
	}
}

// WithScheduler routes change notifications through sched.
func (s *Signal[T]) WithScheduler(sched Scheduler) *Signal[T] {
	s.sched = sched
	return s
}

// WithEquals configures a custom equality function.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.id
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies subscribers if it changed.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Update atomically reads and updates the value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Write replaces the value directly, without notifying subscribers.
func (s *Signal[T]) Write(value T) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
}

// Subscribe adds l to the signal's listeners and returns a function that
// removes it. Subscribing the same listener twice is a no-op.
func (s *Signal[T]) Subscribe(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return func() { s.unsubscribe(lid) }
		}
	}
	s.subs = append(s.subs, l)
	return func() { s.unsubscribe(lid) }
}

// Observe calls fn with the current value after every notified change.
func (s *Signal[T]) Observe(fn func(T)) (unsubscribe func()) {
	return s.Subscribe(&observer{
		id: nextID(),
		fn: func() { fn(s.Get()) },
	})
}

// Subscribers returns the number of subscribed listeners.
func (s *Signal[T]) Subscribers() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

func (s *Signal[T]) unsubscribe(lid uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// notify copies the subscriber list and delivers the change, deferred
// through the scheduler when one is configured.
func (s *Signal[T]) notify() {
	s.subMu.RLock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	if len(subs) == 0 {
		return
	}
	if s.sched != nil {
		s.sched.Schedule(func() { deliver(subs) })
		return
	}
	deliver(subs)
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for comparable values and reflect.DeepEqual for
// everything else.
func defaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if reflect.TypeOf(av).Comparable() {
		return av == bv
	}
	return reflect.DeepEqual(a, b)
}

type observer struct {
	id uint64
	fn func()
}

func (o *observer) MarkDirty() { o.fn() }

func (o *observer) ID() uint64 { return o.id }
