// Package store binds externally owned observables to reactive cells.
//
// A component reads a store through its Subscriptions:
//
//	subs := store.NewSubscriptions(owner, store.WithScheduler(doc.Loop()))
//	count := store.Bind(subs, "count", counter)
//
// The first Bind for a slot subscribes and returns the store's current
// value synchronously. Later values update the slot's cell (see Cell) at
// the end of the turn. Binding the slot to another store releases the
// previous subscription, and disposing owner releases them all.
package store
