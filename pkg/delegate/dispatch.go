package delegate

import (
	"errors"
	"log/slog"

	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/metrics"
)

// rootKey is the event expando recording the last delegation root that
// propagated the event.
const rootKey = "__root"

// Dispatcher walks delegated handlers for native events received at a
// delegation root.
type Dispatcher struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher. A nil logger uses slog.Default().
func NewDispatcher(logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger, metrics: m}
}

// Propagate runs the handler slots for e.Type from the event's origin up
// to, but excluding, current: the node whose native listener received e.
//
// An event that was already walked by a nested root is not walked again:
// the document and window defer to the recorded root, and any other root
// starts from the recorded root's position in the path. While handlers run,
// e.CurrentTarget reports the node being visited.
//
// The first handler error is returned. Later errors are queued on the
// host loop and surface through its error reporter once the current task
// completes, so one failing handler never hides another.
func (d *Dispatcher) Propagate(current *dom.Node, e *dom.Event) error {
	doc := current.OwnerDocument()
	target := e.Target()

	path := e.ComposedPath()
	if len(path) == 0 && target != nil {
		path = []*dom.Node{target}
	}

	start := 0
	if handled, ok := e.Value(rootKey).(*dom.Node); ok && handled != nil {
		at := indexOf(path, handled)
		if at != -1 && (current == doc.Node() || current == doc.Window()) {
			e.SetValue(rootKey, current)
			return nil
		}
		idx := indexOf(path, current)
		if idx == -1 {
			return nil
		}
		if at <= idx {
			start = at
		}
	}

	node := target
	if start >= 0 && start < len(path) {
		node = path[start]
	}
	if node == nil || node == current {
		return nil
	}

	d.metrics.RecordDispatch(e.Type)

	defer func() {
		e.SetValue(rootKey, current)
		e.RestoreCurrentTarget()
	}()

	var first error
	for node != nil {
		next := logicalParent(node)

		if h, ok := HandlerOf(node, e.Type); ok && !node.Disabled() {
			e.OverrideCurrentTarget(node)
			this := node
			if err := dom.Call(func() error { return h.Call(this, e) }); err != nil {
				d.recordError(e.Type, err)
				if first == nil {
					first = err
				} else {
					doc.Loop().QueueMicrotask(func() error { return err })
				}
			}
		}

		if e.PropagationStopped() || next == current || next == nil {
			break
		}
		node = next
	}
	return first
}

// Listener returns a native listener that propagates through d.
func (d *Dispatcher) Listener() *dom.EventListener {
	return dom.NewListener(d.Propagate)
}

func (d *Dispatcher) recordError(typ string, err error) {
	kind := "error"
	var p *dom.PanicError
	if errors.As(err, &p) {
		kind = "panic"
		d.logger.Error("delegated handler panicked", "type", typ, "panic", p.Value)
	}
	d.metrics.RecordHandlerError(typ, kind)
}

// logicalParent follows slot assignment, then the tree, then shadow hosts.
func logicalParent(n *dom.Node) *dom.Node {
	if s := n.AssignedSlot(); s != nil {
		return s
	}
	if p := n.Parent(); p != nil {
		return p
	}
	return n.Host()
}

func indexOf(path []*dom.Node, n *dom.Node) int {
	for i, p := range path {
		if p == n {
			return i
		}
	}
	return -1
}
