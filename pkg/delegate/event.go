package delegate

import (
	"errors"
	"strings"

	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/reactive"
)

// Options are the flags of a root-scoped listener.
type Options struct {
	Capture bool
	Passive bool
}

// deferAttach reports whether listeners for typ are attached at the end
// of the current turn instead of immediately.
func deferAttach(typ string) bool {
	return strings.HasPrefix(typ, "pointer") || strings.HasPrefix(typ, "touch") || typ == "wheel"
}

// scopedToOwner reports whether a listener on n outlives the elements
// of a component and must be removed when its owner is disposed.
func scopedToOwner(doc *dom.Document, n *dom.Node) bool {
	return doc.IsGlobal(n) || n.IsElement("audio") || n.IsElement("video")
}

// On attaches fn directly on node for typ. A bubbling listener first runs
// the delegated handlers between the event's origin and node, then fn
// unless one of them stopped propagation.
//
// Listeners on the document, the window, the body and media elements are
// removed when owner is disposed. The returned function removes the
// listener at any time.
func (r *Registry) On(owner *reactive.Owner, typ string, node *dom.Node, fn dom.ListenerFunc, opts Options) (remove func()) {
	listener := dom.NewListener(func(this *dom.Node, e *dom.Event) error {
		if !opts.Capture {
			if err := r.dispatcher.Propagate(this, e); err != nil {
				return err
			}
		}
		if e.PropagationStopped() || fn == nil {
			return nil
		}
		return fn(this, e)
	})
	native := dom.ListenerOptions{Capture: opts.Capture, Passive: opts.Passive}

	removed := false
	attach := func() {
		if !removed {
			node.AddEventListener(typ, listener, native)
		}
	}
	if deferAttach(typ) {
		r.doc.Loop().Schedule(attach)
	} else {
		attach()
	}

	remove = func() {
		removed = true
		node.RemoveEventListener(typ, listener, opts.Capture)
	}
	if owner != nil && scopedToOwner(r.doc, node) {
		owner.OnCleanup(remove)
	}
	return remove
}

// resetKey is the node expando holding an element's chained reset hooks.
const resetKey = "__on_r"

// ListenAndReset listens for typ on node with handler and registers
// onReset to run when the node's form is reset. A nil onReset uses
// handler. Hooks registered on the same node run in registration order.
func (r *Registry) ListenAndReset(node *dom.Node, typ string, handler func(reset bool) error, onReset func(reset bool) error) {
	if onReset == nil {
		onReset = handler
	}
	node.AddEventListener(typ, dom.NewListener(func(*dom.Node, *dom.Event) error {
		return handler(false)
	}), dom.ListenerOptions{})

	hook := func() error { return onReset(true) }
	if prev, ok := node.Value(resetKey).(func() error); ok {
		next := hook
		hook = func() error {
			return errors.Join(prev(), next())
		}
	}
	node.SetValue(resetKey, hook)

	r.listenForFormReset()
}

// listenForFormReset installs the document's capturing reset listener
// once. After the reset event finishes, unless its default was prevented,
// every element of the reset form runs its reset hook.
func (r *Registry) listenForFormReset() {
	r.mu.Lock()
	if r.resetListener != nil {
		r.mu.Unlock()
		return
	}
	r.resetListener = dom.NewListener(func(_ *dom.Node, e *dom.Event) error {
		loop := r.doc.Loop()
		loop.QueueMicrotask(func() error {
			if e.DefaultPrevented() {
				return nil
			}
			form := e.Target()
			if form == nil {
				return nil
			}
			var errs []error
			for _, el := range form.FormElements() {
				if hook, ok := el.Value(resetKey).(func() error); ok {
					errs = append(errs, hook())
				}
			}
			return errors.Join(errs...)
		})
		return nil
	})
	listener := r.resetListener
	r.mu.Unlock()

	r.doc.Node().AddEventListener("reset", listener, dom.ListenerOptions{Capture: true})
}
