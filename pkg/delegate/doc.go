// Package delegate implements event delegation: components store handlers
// on their nodes with SetHandler, and a single native listener per event
// type and delegation root walks those handlers when an event arrives.
//
// A Registry belongs to one document. Each mount calls Install on its
// container; the returned Installer holds one reference per event type on
// the container's listener and on the document's listener, and Teardown
// releases them:
//
//	reg := delegate.NewRegistry(doc)
//	reg.Delegate("click", "input")
//	in := reg.Install(container)
//	delegate.SetHandler(button, "click", delegate.Direct(onClick))
//	...
//	in.Teardown()
//
// Handlers run in bubbling order from the event's origin up to the
// delegation root. Nested roots, such as a portal mounted inside another
// mount's container, never walk the same node twice.
package delegate
