package dom

// Phase is the event dispatch phase.
type Phase uint8

const (
	PhaseNone      Phase = iota
	PhaseCapturing       // Walking from the window down to the target's parent
	PhaseAtTarget        // Invoking the target's own listeners
	PhaseBubbling        // Walking from the target's parent back up
)

// EventInit carries the construction flags of an Event.
type EventInit struct {
	Bubbles    bool
	Cancelable bool
	Composed   bool // Crosses shadow root boundaries
	Detail     any
}

// Event is a host event.
type Event struct {
	Type       string
	Bubbles    bool
	Cancelable bool
	Composed   bool
	Detail     any

	target        *Node
	currentTarget *Node
	override      *Node
	overridden    bool
	path          []*Node
	phase         Phase

	stop          bool
	stopImmediate bool
	canceled      bool
	inPassive     bool
	dispatching   bool

	values map[string]any
}

// NewEvent creates an event of the given type.
func NewEvent(typ string, init EventInit) *Event {
	return &Event{
		Type:       typ,
		Bubbles:    init.Bubbles,
		Cancelable: init.Cancelable,
		Composed:   init.Composed,
		Detail:     init.Detail,
	}
}

// Target returns the node the event was dispatched at.
func (e *Event) Target() *Node { return e.target }

// CurrentTarget returns the node whose listener is running, unless an
// override is in effect.
func (e *Event) CurrentTarget() *Node {
	if e.overridden {
		if e.override != nil {
			return e.override
		}
		if e.target != nil {
			return e.target.doc.node
		}
	}
	return e.currentTarget
}

// OverrideCurrentTarget makes CurrentTarget report n until
// RestoreCurrentTarget is called. A nil n reports the owner document.
func (e *Event) OverrideCurrentTarget(n *Node) {
	e.override = n
	e.overridden = true
}

// RestoreCurrentTarget drops an override installed by OverrideCurrentTarget.
func (e *Event) RestoreCurrentTarget() {
	e.override = nil
	e.overridden = false
}

// Phase returns the current dispatch phase.
func (e *Event) Phase() Phase { return e.phase }

// ComposedPath returns the propagation path computed for the running
// dispatch. It is empty when the event is not being dispatched.
func (e *Event) ComposedPath() []*Node {
	if !e.dispatching {
		return nil
	}
	return append([]*Node(nil), e.path...)
}

// StopPropagation prevents the event from reaching further nodes.
func (e *Event) StopPropagation() { e.stop = true }

// StopImmediatePropagation also skips the remaining listeners of the
// current node.
func (e *Event) StopImmediatePropagation() {
	e.stop = true
	e.stopImmediate = true
}

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stop }

// PreventDefault cancels the event's default action. It has no effect on
// non-cancelable events or inside passive listeners.
func (e *Event) PreventDefault() {
	if e.Cancelable && !e.inPassive {
		e.canceled = true
	}
}

// DefaultPrevented reports whether the default action was canceled.
func (e *Event) DefaultPrevented() bool { return e.canceled }

// Dispatching reports whether the event is being dispatched.
func (e *Event) Dispatching() bool { return e.dispatching }

// Value returns an expando property stored on the event.
func (e *Event) Value(key string) any {
	if e.values == nil {
		return nil
	}
	return e.values[key]
}

// SetValue stores an expando property on the event.
func (e *Event) SetValue(key string, v any) {
	if e.values == nil {
		e.values = make(map[string]any)
	}
	e.values[key] = v
}
