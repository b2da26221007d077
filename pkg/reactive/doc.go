// Package reactive provides the small reactive core the weft runtime
// builds on: Owner scopes and Signal cells.
//
// # Owners
//
// Every mounted component gets a root Owner. Cleanups registered with
// OnCleanup run when the owner is disposed, which is how store
// subscriptions and scoped listeners are torn down on unmount:
//
//	owner := reactive.NewOwner(nil)
//	owner.OnCleanup(unsubscribe)
//	owner.Dispose() // runs unsubscribe once
//
// # Signals
//
// Signal[T] is a reactive cell. Set notifies subscribers, deferred through
// a Scheduler when one is attached; Write stores a value silently:
//
//	count := reactive.NewSignal(0).WithScheduler(doc.Loop())
//	count.Observe(func(v int) { fmt.Println("count", v) })
//	count.Set(1) // printed when the loop drains its microtasks
//
// Dependency tracking and computed values are out of scope: observers
// subscribe explicitly.
package reactive
