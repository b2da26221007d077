package store

import (
	"sync"
	"sync/atomic"

	"github.com/weft-ui/weft/pkg/metrics"
	"github.com/weft-ui/weft/pkg/reactive"
)

// Option configures Subscriptions.
type Option func(*Subscriptions)

// WithScheduler routes asynchronous store values through sched. The
// runtime passes the document loop so bound cells notify at the end of
// the turn.
func WithScheduler(sched reactive.Scheduler) Option {
	return func(s *Subscriptions) {
		s.sched = sched
	}
}

// WithMetrics records live bindings to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Subscriptions) {
		s.metrics = m
	}
}

// Subscriptions is one component's store bindings, keyed by slot name.
// Each slot holds the observable it is bound to, the reactive cell that
// mirrors it and the disposer of the live subscription.
type Subscriptions struct {
	sched   reactive.Scheduler
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	bindingMu sync.Mutex
	binding   bool
}

type entry struct {
	store       any
	cell        any
	unsubscribe Disposer
	gen         uint64
	subscribed  bool
}

// NewSubscriptions creates the binding registry of a component. When
// owner is disposed every live subscription is released exactly once.
func NewSubscriptions(owner *reactive.Owner, opts ...Option) *Subscriptions {
	s := &Subscriptions{entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(s)
	}
	if owner != nil {
		owner.OnCleanup(s.Close)
	}
	return s
}

// Len returns the number of slots with a live subscription.
func (s *Subscriptions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.subscribed {
			n++
		}
	}
	return n
}

// Closed reports whether Close has run.
func (s *Subscriptions) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases every live subscription. Later Bind calls read stores
// without subscribing. Close is idempotent.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	var release []Disposer
	for _, e := range s.entries {
		e.gen++
		if e.subscribed {
			release = append(release, e.unsubscribe)
			e.subscribed = false
		}
		e.unsubscribe = noop
	}
	s.mu.Unlock()

	for _, d := range release {
		d()
		s.metrics.RecordStoreBinding(-1)
	}
}

// MarkBinding flags the running CaptureBinding call as having read a
// store.
func (s *Subscriptions) MarkBinding() {
	s.bindingMu.Lock()
	s.binding = true
	s.bindingMu.Unlock()
}

// CaptureBinding runs fn and reports whether it read a store through Bind
// or called MarkBinding. Calls nest: an inner capture does not leak into
// the outer one.
func CaptureBinding[T any](s *Subscriptions, fn func() T) (T, bool) {
	s.bindingMu.Lock()
	prev := s.binding
	s.binding = false
	s.bindingMu.Unlock()

	defer func() {
		s.bindingMu.Lock()
		s.binding = prev
		s.bindingMu.Unlock()
	}()

	v := fn()

	s.bindingMu.Lock()
	marked := s.binding
	s.bindingMu.Unlock()
	return v, marked
}

// Cell returns the reactive cell backing slot key, creating it if needed.
// Observe it to react to store values.
func Cell[T any](s *Subscriptions, key string) *reactive.Signal[T] {
	s.mu.Lock()
	e, release := slot[T](s, key)
	s.mu.Unlock()
	release()
	return e.cell.(*reactive.Signal[T])
}

// slot returns the entry for key, replacing one created for another value
// type. s.mu must be held. The returned release func unsubscribes the
// replaced entry and must be called after s.mu is released.
func slot[T any](s *Subscriptions, key string) (*entry, Disposer) {
	var release Disposer = noop
	e := s.entries[key]
	if e != nil {
		if _, ok := e.cell.(*reactive.Signal[T]); ok {
			return e, release
		}
		e.gen++
		if e.subscribed {
			release = e.unsubscribe
			s.metrics.RecordStoreBinding(-1)
		}
	}
	var zero T
	cell := reactive.NewSignal(zero)
	if s.sched != nil {
		cell.WithScheduler(s.sched)
	}
	e = &entry{cell: cell, unsubscribe: noop}
	s.entries[key] = e
	return e, release
}

// Bind returns the current value of obs through slot key.
//
// When key is bound to a different observable (or first used), the old
// subscription is released and obs is subscribed. The value obs delivers
// during Subscribe is written to the slot's cell directly; later values
// are set on the cell, which notifies its observers. Values delivered by
// a released observable are dropped. A nil obs resets the cell to the
// zero value.
//
// After Close, Bind reads obs once without keeping a subscription.
func Bind[T any](s *Subscriptions, key string, obs Observable[T]) T {
	s.MarkBinding()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if isNil(obs) {
			return Cell[T](s, key).Get()
		}
		return Get(obs)
	}

	e, replaced := slot[T](s, key)
	cell := e.cell.(*reactive.Signal[T])
	var store any
	if !isNil(obs) {
		store = obs
	}
	if sameStore(e.store, store) && (store == nil || e.subscribed) {
		s.mu.Unlock()
		replaced()
		return cell.Get()
	}

	old, hadSub := e.unsubscribe, e.subscribed
	e.gen++
	gen := e.gen
	e.store = store
	e.unsubscribe = noop
	e.subscribed = false
	s.mu.Unlock()
	replaced()

	if hadSub {
		old()
		s.metrics.RecordStoreBinding(-1)
	}

	if store == nil {
		var zero T
		cell.Write(zero)
		return zero
	}

	var primed atomic.Bool
	d := SubscribeStore(obs, func(v T) {
		s.mu.Lock()
		stale := e.gen != gen || s.closed
		s.mu.Unlock()
		if stale {
			return
		}
		if primed.Load() {
			cell.Set(v)
		} else {
			cell.Write(v)
		}
	})
	primed.Store(true)

	s.mu.Lock()
	if e.gen != gen || s.closed {
		// Rebound or closed while subscribing.
		s.mu.Unlock()
		d()
		return cell.Get()
	}
	e.unsubscribe = d
	e.subscribed = true
	s.mu.Unlock()
	s.metrics.RecordStoreBinding(1)

	return cell.Get()
}
