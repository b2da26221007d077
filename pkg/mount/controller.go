package mount

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	weferrors "github.com/weft-ui/weft/internal/errors"
	"github.com/weft-ui/weft/pkg/delegate"
	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/metrics"
	"github.com/weft-ui/weft/pkg/reactive"
)

const tracerName = "github.com/weft-ui/weft/pkg/mount"

// State is the controller's hydration state.
type State int

const (
	StateIdle State = iota
	StateHydrating
	StateHydrated
	StateRecovering
	StateMounted
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHydrating:
		return "hydrating"
	case StateHydrated:
		return "hydrated"
	case StateRecovering:
		return "recovering"
	case StateMounted:
		return "mounted"
	default:
		return "unknown"
	}
}

// Handle identifies a mounted component. Its exports are what the
// component returned.
type Handle struct {
	id      string
	Exports Exports

	scope    *Scope
	teardown func()
}

// ID returns the handle's unique id.
func (h *Handle) ID() string { return h.id }

// Scope returns the scope the component rendered with.
func (h *Handle) Scope() *Scope { return h.scope }

// Controller mounts and hydrates components into one document, sharing
// one delegation registry.
type Controller struct {
	doc     *dom.Document
	reg     *delegate.Registry
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	recover     bool
	startMarker string
	endMarker   string

	mu        sync.Mutex
	handles   map[string]*Handle
	state     State
	hydrating bool
	cursor    *dom.Node
	repairs   []repair
}

// NewController creates a controller mounting into reg's document.
func NewController(reg *delegate.Registry, opts ...ControllerOption) *Controller {
	c := &Controller{
		doc:         reg.Document(),
		reg:         reg,
		logger:      slog.Default(),
		recover:     true,
		startMarker: "[",
		endMarker:   "]",
		handles:     make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// State returns the current hydration state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		c.logger.Debug("mount state", "from", prev.String(), "to", s.String())
	}
}

// Len returns the number of mounted components.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Lookup returns the handle with the given id.
func (c *Controller) Lookup(id string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[id]
	return h, ok
}

// Handles returns the mounted handles in no particular order.
func (c *Controller) Handles() []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		out = append(out, h)
	}
	return out
}

// Mount renders comp fresh before opts.Anchor, or at the end of
// opts.Target.
func (c *Controller) Mount(ctx context.Context, comp Component, opts Options) (*Handle, error) {
	_, span := c.tracer.Start(ctx, "weft.mount")
	defer span.End()

	start := time.Now()
	h, err := c.mount(comp, opts, boolOr(opts.Intro, true), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	c.setState(StateMounted)
	c.metrics.RecordMount("mount", time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("weft.handle", h.id),
		attribute.String("weft.result", "mounted"),
	)
	span.SetStatus(codes.Ok, "")
	return h, nil
}

// Hydrate adopts the server-rendered region that opens with the first
// start marker in opts.Target. When the markup does not match, it clears
// the target and mounts fresh unless recovery is disabled, in which case
// it returns an error matching ErrHydrationFailed. Other component errors
// are returned as they are and leave the server markup in place.
func (c *Controller) Hydrate(ctx context.Context, comp Component, opts Options) (*Handle, error) {
	_, span := c.tracer.Start(ctx, "weft.hydrate")
	defer span.End()

	fail := func(err error) (*Handle, error) {
		span.SetAttributes(attribute.String("weft.result", "failed"))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if opts.Target == nil {
		return fail(ErrNoTarget)
	}

	c.mu.Lock()
	if c.hydrating {
		c.mu.Unlock()
		return fail(ErrHydrationInProgress)
	}
	c.hydrating = true
	c.cursor = nil
	c.repairs = nil
	c.mu.Unlock()
	c.setState(StateHydrating)

	defer func() {
		c.mu.Lock()
		c.hydrating = false
		c.cursor = nil
		c.repairs = nil
		c.mu.Unlock()
	}()

	started := time.Now()
	intro := boolOr(opts.Intro, false)

	var h *Handle
	var err error
	if first := c.findStart(opts.Target); first == nil {
		err = weferrors.New("W040").
			WithAttr("expected", "<!--"+c.startMarker+"-->").
			WithAttr("found", describeNode(skipBlank(opts.Target.FirstChild())))
	} else {
		c.mu.Lock()
		c.cursor = first.NextSibling()
		c.mu.Unlock()
		h, err = c.mount(comp, opts, intro, first)
	}

	if err == nil {
		c.setState(StateHydrated)
		c.metrics.RecordMount("hydrate", time.Since(started).Seconds())
		c.metrics.RecordHydration("hydrated")
		span.SetAttributes(
			attribute.String("weft.handle", h.id),
			attribute.String("weft.result", "hydrated"),
			attribute.Bool("weft.recovered", false),
		)
		span.SetStatus(codes.Ok, "")
		return h, nil
	}

	if !IsMismatch(err) {
		c.setState(StateIdle)
		c.metrics.RecordHydration("failed")
		return fail(err)
	}
	if !boolOr(opts.Recover, c.recover) {
		c.setState(StateIdle)
		c.metrics.RecordHydration("failed")
		return fail(weferrors.New("W041").Wrap(err))
	}

	c.logger.Warn("hydration mismatch, mounting fresh", "error", err)
	c.setState(StateRecovering)

	c.mu.Lock()
	c.hydrating = false
	c.cursor = nil
	c.repairs = nil
	c.mu.Unlock()

	opts.Target.ClearChildren()
	if opts.Anchor != nil && opts.Anchor.Parent() != opts.Target {
		opts.Anchor = nil
	}

	h, err = c.mount(comp, opts, intro, nil)
	if err != nil {
		c.setState(StateIdle)
		c.metrics.RecordHydration("failed")
		return fail(err)
	}
	c.setState(StateMounted)
	c.metrics.RecordMount("hydrate", time.Since(started).Seconds())
	c.metrics.RecordHydration("recovered")
	span.SetAttributes(
		attribute.String("weft.handle", h.id),
		attribute.String("weft.result", "recovered"),
		attribute.Bool("weft.recovered", true),
	)
	span.SetStatus(codes.Ok, "")
	return h, nil
}

// mount runs comp. With a non-nil start marker the component claims the
// markup following it; otherwise it renders before the anchor. On error
// everything the component acquired is released, and freshly rendered
// nodes are removed.
func (c *Controller) mount(comp Component, opts Options, intro bool, start *dom.Node) (*Handle, error) {
	target := opts.Target
	if target == nil {
		return nil, ErrNoTarget
	}

	hydrating := start != nil
	anchor := opts.Anchor
	created := false
	switch {
	case hydrating:
		anchor = start
	case anchor == nil:
		anchor = c.doc.CreateText("")
		target.AppendChild(anchor)
		created = true
	case anchor.Parent() != target:
		return nil, weferrors.New("W022").WithAttr("anchor", describeNode(anchor))
	}

	owner := reactive.NewOwner(nil)
	for k, v := range opts.Context {
		owner.SetValue(k, v)
	}

	props := make(Props, len(opts.Props)+1)
	maps.Copy(props, opts.Props)
	if opts.Events != nil {
		props[EventsKey] = opts.Events
	}

	s := &Scope{
		c:         c,
		target:    target,
		anchor:    anchor,
		owner:     owner,
		installer: c.reg.Install(target),
		intro:     intro,
		hydrating: hydrating,
	}

	exports, err := callComponent(comp, s, anchor, props)
	switch {
	case s.failed != nil:
		err = s.failed
	case err != nil:
		err = weferrors.FromError(err, "W021")
	}
	var end *dom.Node
	if err == nil && hydrating {
		end, err = c.claimEnd()
	}
	if err != nil {
		owner.Dispose()
		s.installer.Teardown()
		if !hydrating {
			removeAll(s.nodes)
			if created {
				anchor.Remove()
			}
		}
		return nil, err
	}

	if hydrating {
		s.nodes = siblingsBetween(start, end)
		c.applyRepairs()
	}
	id := uuid.NewString()
	out := make(Exports, len(exports)+1)
	maps.Copy(out, exports)
	out[HandleKey] = id

	h := &Handle{id: id, Exports: out, scope: s}
	h.teardown = func() {
		owner.Dispose()
		s.installer.Teardown()
		removeAll(s.nodes)
		if created {
			anchor.Remove()
		}
	}

	c.mu.Lock()
	c.handles[h.id] = h
	c.mu.Unlock()

	c.logger.Debug("mounted component",
		"handle", h.id,
		"hydrated", hydrating,
		"nodes", len(s.nodes),
	)
	return h, nil
}

// callComponent runs comp, converting a panic into an error.
func callComponent(comp Component, s *Scope, anchor *dom.Node, props Props) (exports Exports, err error) {
	err = dom.Call(func() error {
		var cerr error
		exports, cerr = comp(s, anchor, props)
		return cerr
	})
	return exports, err
}

// Unmount tears down h: owner cleanups run, store subscriptions are
// released, delegated listeners are returned and the component's nodes
// are removed. Unknown or already unmounted handles are ignored.
func (c *Controller) Unmount(h *Handle) {
	if h == nil {
		return
	}
	c.mu.Lock()
	if c.handles[h.id] != h {
		c.mu.Unlock()
		return
	}
	delete(c.handles, h.id)
	c.mu.Unlock()

	h.teardown()
	c.metrics.RecordUnmount()
	c.logger.Debug("unmounted component", "handle", h.id)
}

// UnmountExports tears down the component that returned exports. Exports
// without a handle id, or whose component is already unmounted, are
// ignored.
func (c *Controller) UnmountExports(exports Exports) {
	id, ok := exports.HandleID()
	if !ok {
		return
	}
	if h, ok := c.Lookup(id); ok {
		c.Unmount(h)
	}
}

// Close unmounts every component.
func (c *Controller) Close() {
	for _, h := range c.Handles() {
		c.Unmount(h)
	}
}

func removeAll(nodes []*dom.Node) {
	for _, n := range nodes {
		n.Remove()
	}
}

func siblingsBetween(first, last *dom.Node) []*dom.Node {
	var out []*dom.Node
	for n := first; n != nil; n = n.NextSibling() {
		out = append(out, n)
		if n == last {
			break
		}
	}
	return out
}
