// Package dom provides the in-memory host environment used by the weft
// runtime: a DOM tree, native event targets with capture/bubble dispatch,
// and an explicit microtask loop.
//
// The tree mirrors the parts of the browser DOM the runtime relies on:
// documents, elements, text, comments, fragments and shadow roots with
// slot assignment. Markup is parsed and rendered with golang.org/x/net/html.
//
// # Events
//
// Native listeners are registered with AddEventListener and identified by
// pointer, so adding the same *EventListener twice for the same type and
// capture flag is a no-op:
//
//	l := dom.NewListener(func(this *dom.Node, e *dom.Event) error {
//	    fmt.Println("clicked", this.Tag)
//	    return nil
//	})
//	button.AddEventListener("click", l, dom.ListenerOptions{})
//	doc.Fire(button, dom.NewEvent("click", dom.EventInit{Bubbles: true}))
//
// Errors returned (or panics raised) by listeners never interrupt dispatch;
// they are reported to the document's Loop, which plays the role of the
// host's unhandled-error channel.
//
// # Loop
//
// All work happens in turns. Loop.Run executes a task and then drains the
// microtask queue, so anything scheduled with QueueMicrotask runs after the
// current synchronous work but before Run returns.
//
// The tree is not safe for concurrent use. Callers that touch a document
// from several goroutines must funnel the work through Loop.Run.
package dom
