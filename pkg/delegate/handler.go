package delegate

import "github.com/weft-ui/weft/pkg/dom"

// HandlerFunc handles a delegated event. this is the node the handler was
// attached to.
type HandlerFunc func(this *dom.Node, e *dom.Event) error

// BoundFunc handles a delegated event with extra arguments captured when
// the handler was attached, typically the loop item of a keyed list.
type BoundFunc func(this *dom.Node, e *dom.Event, args ...any) error

// Handler is the per-node, per-type handler slot read by the dispatcher.
// It is either a direct callable or a callable bound to arguments.
type Handler struct {
	direct HandlerFunc
	bound  BoundFunc
	args   []any
}

// Direct returns a handler that is called with the event only.
func Direct(fn HandlerFunc) Handler {
	return Handler{direct: fn}
}

// Bound returns a handler that is called with the event followed by args.
func Bound(fn BoundFunc, args ...any) Handler {
	return Handler{bound: fn, args: args}
}

// IsZero reports whether h holds no callable.
func (h Handler) IsZero() bool {
	return h.direct == nil && h.bound == nil
}

// Args returns the bound arguments.
func (h Handler) Args() []any {
	return h.args
}

// Call invokes the handler.
func (h Handler) Call(this *dom.Node, e *dom.Event) error {
	switch {
	case h.bound != nil:
		return h.bound(this, e, h.args...)
	case h.direct != nil:
		return h.direct(this, e)
	}
	return nil
}

func slotKey(typ string) string {
	return "__" + typ
}

// SetHandler stores h as node's handler for typ, replacing any previous
// one. A zero h clears the slot.
func SetHandler(node *dom.Node, typ string, h Handler) {
	if h.IsZero() {
		node.SetValue(slotKey(typ), nil)
		return
	}
	node.SetValue(slotKey(typ), h)
}

// HandlerOf returns node's handler for typ.
func HandlerOf(node *dom.Node, typ string) (Handler, bool) {
	h, ok := node.Value(slotKey(typ)).(Handler)
	return h, ok
}

// ClearHandler removes node's handler for typ.
func ClearHandler(node *dom.Node, typ string) {
	node.SetValue(slotKey(typ), nil)
}
