package store

import "reflect"

// Disposer releases a subscription.
type Disposer func()

// noop is the disposer of subscriptions that hold nothing.
func noop() {}

// Observable is an externally owned value source. Subscribe must call run
// with the current value before it returns, call it again for every later
// value, and stop once the returned Disposer has been called.
type Observable[T any] interface {
	Subscribe(run func(T)) Disposer
}

// Subscription is the object form of a subscription handle, as returned
// by stores that hand out an object with an Unsubscribe method.
type Subscription interface {
	Unsubscribe()
}

// FromSubscription adapts an object handle to a Disposer. A nil handle
// yields a no-op disposer.
func FromSubscription(s Subscription) Disposer {
	if s == nil {
		return noop
	}
	return s.Unsubscribe
}

// Func adapts a subscribe function to an Observable. Functions have no
// identity, so Bind resubscribes a Func on every call.
type Func[T any] func(run func(T)) Disposer

// Subscribe calls f.
func (f Func[T]) Subscribe(run func(T)) Disposer { return f(run) }

// SubscribeStore subscribes run to obs. A nil obs calls run with the
// zero value once and returns a no-op disposer.
func SubscribeStore[T any](obs Observable[T], run func(T)) Disposer {
	if isNil(obs) {
		var zero T
		run(zero)
		return noop
	}
	if d := obs.Subscribe(run); d != nil {
		return d
	}
	return noop
}

// Get reads the current value of obs by subscribing and immediately
// unsubscribing. A nil obs yields the zero value.
func Get[T any](obs Observable[T]) T {
	var value T
	SubscribeStore(obs, func(v T) { value = v })()
	return value
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// sameStore reports whether a and b are the same observable. Values of
// non-comparable types are never considered the same.
func sameStore(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	return ta.Comparable() && a == b
}
