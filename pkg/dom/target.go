package dom

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrDispatching is reported when an event that is already being
// dispatched is dispatched again.
var ErrDispatching = errors.New("dom: event is already being dispatched")

// ListenerFunc handles a native event. this is the node the listener was
// registered on.
type ListenerFunc func(this *Node, e *Event) error

// EventListener is a registered callback. Listeners are compared by
// pointer, the way host environments compare function identity.
type EventListener struct {
	fn ListenerFunc
}

// NewListener wraps fn in a new listener identity.
func NewListener(fn ListenerFunc) *EventListener {
	return &EventListener{fn: fn}
}

// ListenerOptions are the addEventListener flags.
type ListenerOptions struct {
	Capture bool
	Passive bool
	Once    bool
}

type registration struct {
	listener *EventListener
	opts     ListenerOptions
	removed  bool
}

// PanicError is the error a recovered listener or handler panic turns into.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Unwrap returns the panic value when it was an error.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// Call runs fn and converts a panic into a *PanicError.
func Call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// AddEventListener registers l for typ. Registering the same listener
// twice with the same capture flag is a no-op.
func (n *Node) AddEventListener(typ string, l *EventListener, opts ListenerOptions) {
	if l == nil {
		return
	}
	for _, r := range n.listeners[typ] {
		if r.listener == l && r.opts.Capture == opts.Capture {
			return
		}
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*registration)
	}
	n.listeners[typ] = append(n.listeners[typ], &registration{listener: l, opts: opts})
}

// RemoveEventListener unregisters l for typ and capture.
func (n *Node) RemoveEventListener(typ string, l *EventListener, capture bool) {
	regs := n.listeners[typ]
	for i, r := range regs {
		if r.listener == l && r.opts.Capture == capture {
			r.removed = true
			n.listeners[typ] = append(regs[:i:i], regs[i+1:]...)
			if len(n.listeners[typ]) == 0 {
				delete(n.listeners, typ)
			}
			return
		}
	}
}

// HasEventListener reports whether l is registered for typ and capture.
func (n *Node) HasEventListener(typ string, l *EventListener, capture bool) bool {
	for _, r := range n.listeners[typ] {
		if r.listener == l && r.opts.Capture == capture {
			return true
		}
	}
	return false
}

// ListenerCount returns the number of listeners registered for typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// ListenerOptionsOf returns the options l was registered with.
func (n *Node) ListenerOptionsOf(typ string, l *EventListener, capture bool) (ListenerOptions, bool) {
	for _, r := range n.listeners[typ] {
		if r.listener == l && r.opts.Capture == capture {
			return r.opts, true
		}
	}
	return ListenerOptions{}, false
}

// DispatchEvent dispatches e with n as target: capture listeners from the
// outermost node inwards, the target's own listeners, then (for bubbling
// events) bubble listeners outwards. Listener errors are reported to the
// loop and do not stop dispatch. It returns false if the default action
// was prevented.
func (n *Node) DispatchEvent(e *Event) bool {
	if e.dispatching {
		n.doc.loop.ReportError(ErrDispatching)
		return false
	}

	e.target = n
	e.path = composedPath(n, e.Composed)
	e.dispatching = true
	e.stop, e.stopImmediate = false, false

	path := e.path
	for i := len(path) - 1; i > 0 && !e.stop; i-- {
		e.phase = PhaseCapturing
		invoke(path[i], e, true)
	}
	if !e.stop {
		e.phase = PhaseAtTarget
		invoke(path[0], e, true)
		if !e.stopImmediate {
			invoke(path[0], e, false)
		}
	}
	if e.Bubbles {
		for i := 1; i < len(path) && !e.stop; i++ {
			e.phase = PhaseBubbling
			invoke(path[i], e, false)
		}
	}

	e.phase = PhaseNone
	e.currentTarget = nil
	e.dispatching = false
	e.path = nil
	e.stop, e.stopImmediate = false, false
	return !e.canceled
}

// invoke runs the listeners of node that match the capture flag.
func invoke(node *Node, e *Event, capture bool) {
	regs := append([]*registration(nil), node.listeners[e.Type]...)
	for _, r := range regs {
		if r.removed || r.opts.Capture != capture {
			continue
		}
		if r.opts.Once {
			node.RemoveEventListener(e.Type, r.listener, r.opts.Capture)
		}

		e.currentTarget = node
		e.inPassive = r.opts.Passive
		err := Call(func() error { return r.listener.fn(node, e) })
		e.inPassive = false

		if err != nil {
			node.doc.loop.ReportError(err)
		}
		if e.stopImmediate {
			return
		}
	}
}

// parentForEvent returns the next hop of a propagation path.
func parentForEvent(n *Node, composed bool) *Node {
	switch {
	case n.assignedSlot != nil:
		return n.assignedSlot
	case n.Type == ShadowRootNode:
		if composed {
			return n.host
		}
		return nil
	case n.Type == DocumentNode:
		return n.doc.window
	case n.Type == WindowNode:
		return nil
	default:
		return n.parent
	}
}

func composedPath(target *Node, composed bool) []*Node {
	var path []*Node
	for n := target; n != nil; n = parentForEvent(n, composed) {
		path = append(path, n)
	}
	return path
}
