package mount

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	weferrors "github.com/weft-ui/weft/internal/errors"
	"github.com/weft-ui/weft/pkg/delegate"
	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/metrics"
)

// EventsKey is the props key under which Options.Events is passed to the
// component.
const EventsKey = "$$events"

// HandleKey is the exports key holding the id of the handle the exports
// belong to. Controller.UnmountExports reads it.
const HandleKey = "$$handle"

// Errors returned by Mount and Hydrate. They match any error carrying the
// same code, so errors.Is works on detailed copies.
var (
	ErrNoTarget            = weferrors.New("W020")
	ErrAnchorOutsideTarget = weferrors.New("W022")
	ErrHydrationMismatch   = weferrors.New("W040")
	ErrHydrationFailed     = weferrors.New("W041")
	ErrHydrationInProgress = weferrors.New("W042")
)

// IsMismatch reports whether err is a hydration mismatch.
func IsMismatch(err error) bool {
	return errors.Is(err, ErrHydrationMismatch)
}

// Props are the inputs passed to a component.
type Props map[string]any

// Exports is the object a component returns to its mounter. Mount
// returns a copy carrying the handle id under HandleKey.
type Exports map[string]any

// HandleID returns the id of the handle e was returned with.
func (e Exports) HandleID() (string, bool) {
	id, ok := e[HandleKey].(string)
	return id, ok
}

// Events are component event callbacks passed under EventsKey.
type Events map[string]delegate.HandlerFunc

// Component renders into the region before anchor and returns its exports.
// Mount treats a nil Exports as empty.
type Component func(s *Scope, anchor *dom.Node, props Props) (Exports, error)

// Options are the mount options.
type Options struct {
	// Target is the container to render into. Required.
	Target *dom.Node

	// Anchor is the node the component renders before. When nil, an empty
	// text node is appended to Target and removed again on unmount.
	// Hydrate ignores it and anchors on the region's start marker.
	Anchor *dom.Node

	// Props are the component inputs.
	Props Props

	// Events are exposed to the component as props[EventsKey].
	Events Events

	// Context values are visible to the component through Scope.Context.
	Context map[any]any

	// Intro controls enter transitions. Defaults to true for Mount and
	// false for Hydrate.
	Intro *bool

	// Recover makes Hydrate fall back to a fresh mount when the markup
	// does not match. Defaults to the controller's setting.
	Recover *bool
}

// Bool returns a pointer to v, for Options.Intro and Options.Recover.
func Bool(v bool) *bool { return &v }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics sets the collectors the controller records to.
func WithMetrics(m *metrics.Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for mount and hydrate spans.
func WithTracer(t trace.Tracer) ControllerOption {
	return func(c *Controller) {
		c.tracer = t
	}
}

// WithRecover sets the default of Options.Recover.
func WithRecover(enabled bool) ControllerOption {
	return func(c *Controller) {
		c.recover = enabled
	}
}

// WithMarkers sets the comment payloads that open and close a
// server-rendered region.
func WithMarkers(start, end string) ControllerOption {
	return func(c *Controller) {
		c.startMarker = start
		c.endMarker = end
	}
}
