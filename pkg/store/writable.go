package store

import (
	"reflect"
	"sync"
)

// StartFunc is called when a Writable gets its first subscriber. Values
// set while it runs are not broadcast; the subscriber receives the final
// one. The returned stop function, if any, runs when the last subscriber
// leaves.
type StartFunc[T any] func(set func(T), update func(func(T) T)) (stop func())

// Writable is a settable observable holding a single value.
type Writable[T any] struct {
	mu       sync.Mutex
	value    T
	subs     []*subscriber[T]
	start    StartFunc[T]
	stop     func()
	running  bool
	starting bool
}

type subscriber[T any] struct {
	run func(T)
}

// NewWritable creates a store holding initial. start may be nil.
func NewWritable[T any](initial T, start StartFunc[T]) *Writable[T] {
	return &Writable[T]{value: initial, start: start}
}

// Get returns the current value.
func (w *Writable[T]) Get() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Set stores v and notifies subscribers when it changed.
func (w *Writable[T]) Set(v T) {
	w.mu.Lock()
	if equal(w.value, v) {
		w.mu.Unlock()
		return
	}
	w.value = v
	var subs []*subscriber[T]
	if !w.starting {
		subs = append(subs, w.subs...)
	}
	w.mu.Unlock()

	for _, s := range subs {
		s.run(v)
	}
}

// Update sets the value returned by fn.
func (w *Writable[T]) Update(fn func(T) T) {
	w.Set(fn(w.Get()))
}

// Subscribe calls run with the current value and again after every
// change. The first subscriber starts the store.
func (w *Writable[T]) Subscribe(run func(T)) Disposer {
	sub := &subscriber[T]{run: run}

	w.mu.Lock()
	w.subs = append(w.subs, sub)
	first := !w.running
	w.running = true
	start := w.start
	w.starting = first && start != nil
	w.mu.Unlock()

	if first && start != nil {
		stop := start(w.Set, w.Update)
		w.mu.Lock()
		w.stop = stop
		w.starting = false
		w.mu.Unlock()
	}
	run(w.Get())

	var once sync.Once
	return func() {
		once.Do(func() { w.unsubscribe(sub) })
	}
}

// Subscribers returns the number of live subscribers.
func (w *Writable[T]) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

func (w *Writable[T]) unsubscribe(sub *subscriber[T]) {
	w.mu.Lock()
	for i, s := range w.subs {
		if s == sub {
			w.subs = append(w.subs[:i:i], w.subs[i+1:]...)
			break
		}
	}
	var stop func()
	if len(w.subs) == 0 && w.running {
		w.running = false
		stop, w.stop = w.stop, nil
	}
	w.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Setter is a store that accepts new values.
type Setter[T any] interface {
	Set(T)
}

// Set writes v to s and returns v, so an assignment to a store can be
// used as an expression.
func Set[T any](s Setter[T], v T) T {
	s.Set(v)
	return v
}

func equal[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	t := reflect.TypeOf(av)
	// Composite values may be mutated in place, so they always count as
	// changed.
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Struct, reflect.Func, reflect.Interface:
		return false
	}
	return t.Comparable() && av == bv
}
