package delegate

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/metrics"
)

// DefaultPassiveEvents are the event types whose native listeners are
// attached as passive.
var DefaultPassiveEvents = []string{"touchstart", "touchmove", "wheel"}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the collectors the registry and its dispatcher record to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithPassiveEvents replaces the passive event set.
func WithPassiveEvents(types ...string) Option {
	return func(r *Registry) {
		r.passive = make(map[string]bool, len(types))
		for _, t := range types {
			r.passive[t] = true
		}
	}
}

// Registry is the delegation state of one document: reference counts of
// the native listeners attached per (root, event type), the set of event
// types every installation listens for, and the live installations.
//
// All native listeners share one dispatcher listener, so at most one
// native listener exists per (root, type) no matter how many components
// need it.
type Registry struct {
	doc        *dom.Document
	dispatcher *Dispatcher
	listener   *dom.EventListener
	logger     *slog.Logger
	metrics    *metrics.Metrics
	passive    map[string]bool

	mu         sync.Mutex
	counts     map[*dom.Node]map[string]int
	registered []string
	known      map[string]bool
	live       map[*Installer]struct{}

	resetListener *dom.EventListener
}

// NewRegistry creates the delegation registry for doc.
func NewRegistry(doc *dom.Document, opts ...Option) *Registry {
	r := &Registry{
		doc:    doc,
		counts: make(map[*dom.Node]map[string]int),
		known:  make(map[string]bool),
		live:   make(map[*Installer]struct{}),
	}
	WithPassiveEvents(DefaultPassiveEvents...)(r)
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.dispatcher = NewDispatcher(r.logger, r.metrics)
	r.listener = r.dispatcher.Listener()
	return r
}

// Document returns the document the registry delegates for.
func (r *Registry) Document() *dom.Document { return r.doc }

// Dispatcher returns the dispatcher behind every native listener.
func (r *Registry) Dispatcher() *Dispatcher { return r.dispatcher }

// IsPassive reports whether native listeners for typ are passive.
func (r *Registry) IsPassive(typ string) bool {
	return r.passive[typ]
}

// AddListener takes a reference on the document listener for typ,
// attaching it on the first reference.
func (r *Registry) AddListener(typ string) {
	r.acquire(r.doc.Node(), typ)
}

// RemoveListener drops a reference on the document listener for typ,
// detaching it when the last reference goes. Unknown types are ignored.
func (r *Registry) RemoveListener(typ string) {
	r.release(r.doc.Node(), typ)
}

// Count returns the number of references on the document listener for typ.
func (r *Registry) Count(typ string) int {
	return r.RootCount(r.doc.Node(), typ)
}

// RootCount returns the number of references on root's listener for typ.
func (r *Registry) RootCount(root *dom.Node, typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[root][typ]
}

// Types returns the event types with a document listener, sorted.
func (r *Registry) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.counts[r.doc.Node()]))
	for t := range r.counts[r.doc.Node()] {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Events returns the event types delegated for every installation, in
// registration order.
func (r *Registry) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.registered)
}

// Delegate adds types to the set every installation listens for and
// forwards them to the live installations.
func (r *Registry) Delegate(types ...string) {
	r.mu.Lock()
	var added []string
	for _, t := range types {
		if t == "" || r.known[t] {
			continue
		}
		r.known[t] = true
		r.registered = append(r.registered, t)
		added = append(added, t)
	}
	live := make([]*Installer, 0, len(r.live))
	for in := range r.live {
		live = append(live, in)
	}
	r.mu.Unlock()

	if len(added) == 0 {
		return
	}
	for _, in := range live {
		in.Add(added...)
	}
}

// Close detaches every native listener the registry attached and tears
// down the live installations.
func (r *Registry) Close() {
	r.mu.Lock()
	live := make([]*Installer, 0, len(r.live))
	for in := range r.live {
		live = append(live, in)
	}
	r.mu.Unlock()

	for _, in := range live {
		in.Teardown()
	}

	r.mu.Lock()
	counts := r.counts
	r.counts = make(map[*dom.Node]map[string]int)
	reset := r.resetListener
	r.resetListener = nil
	r.mu.Unlock()

	for root, types := range counts {
		for t := range types {
			root.RemoveEventListener(t, r.listener, false)
			r.metrics.RecordNativeAttach(t, -1)
		}
	}
	if reset != nil {
		r.doc.Node().RemoveEventListener("reset", reset, true)
	}
}

func (r *Registry) acquire(root *dom.Node, typ string) {
	r.mu.Lock()
	types := r.counts[root]
	if types == nil {
		types = make(map[string]int)
		r.counts[root] = types
	}
	types[typ]++
	first := types[typ] == 1
	r.mu.Unlock()

	if !first {
		return
	}
	root.AddEventListener(typ, r.listener, dom.ListenerOptions{Passive: r.IsPassive(typ)})
	r.metrics.RecordNativeAttach(typ, 1)
	r.logger.Debug("attached delegated listener", "type", typ, "root", describe(root))
}

func (r *Registry) release(root *dom.Node, typ string) {
	r.mu.Lock()
	types := r.counts[root]
	n, ok := types[typ]
	if !ok {
		r.mu.Unlock()
		return
	}
	last := n <= 1
	if last {
		delete(types, typ)
		if len(types) == 0 {
			delete(r.counts, root)
		}
	} else {
		types[typ] = n - 1
	}
	r.mu.Unlock()

	if !last {
		return
	}
	root.RemoveEventListener(typ, r.listener, false)
	r.metrics.RecordNativeAttach(typ, -1)
	r.logger.Debug("detached delegated listener", "type", typ, "root", describe(root))
}

// describe names a node for log output.
func describe(n *dom.Node) string {
	switch n.Type {
	case dom.ElementNode:
		if id, ok := n.Attr("id"); ok {
			return n.Tag + "#" + id
		}
		return n.Tag
	default:
		return strings.ToLower(n.Type.String())
	}
}
