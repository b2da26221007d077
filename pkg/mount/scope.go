package mount

import (
	"sync"

	"github.com/weft-ui/weft/pkg/delegate"
	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/reactive"
	"github.com/weft-ui/weft/pkg/store"
)

// Scope is what a component sees while it renders: the document, its
// owner, the delegation installation for its target, and (while
// hydrating) the cursor over the server-rendered markup.
type Scope struct {
	c         *Controller
	target    *dom.Node
	anchor    *dom.Node
	owner     *reactive.Owner
	installer *delegate.Installer
	intro     bool
	hydrating bool

	nodes []*dom.Node
	// failed is the first mismatch seen by Render; it fails the hydration
	// even if the component drops the error.
	failed error

	subsOnce sync.Once
	subs     *store.Subscriptions
}

// Document returns the document the component renders into.
func (s *Scope) Document() *dom.Document { return s.c.doc }

// Target returns the mount container.
func (s *Scope) Target() *dom.Node { return s.target }

// Anchor returns the node the component renders before.
func (s *Scope) Anchor() *dom.Node { return s.anchor }

// Owner returns the component's owner. Its cleanups run on unmount.
func (s *Scope) Owner() *reactive.Owner { return s.owner }

// Intro reports whether enter transitions should play.
func (s *Scope) Intro() bool { return s.intro }

// Hydrating reports whether the component is claiming existing markup.
func (s *Scope) Hydrating() bool { return s.hydrating }

// Context returns the context value for key, looking through parent
// owners.
func (s *Scope) Context(key any) any { return s.owner.GetValue(key) }

// SetContext sets a context value visible to s and its children.
func (s *Scope) SetContext(key, value any) { s.owner.SetValue(key, value) }

// OnCleanup registers fn to run when the component is unmounted.
func (s *Scope) OnCleanup(fn func()) { s.owner.OnCleanup(fn) }

// Render inserts markup before the anchor, or, while hydrating, claims
// the matching server-rendered nodes in place. It returns the top-level
// nodes now owned by the component.
func (s *Scope) Render(markup string) ([]*dom.Node, error) {
	if s.failed != nil {
		return nil, s.failed
	}

	tmpl, err := s.c.doc.ParseFragment(s.target, markup)
	if err != nil {
		return nil, err
	}

	if s.hydrating {
		claimed, err := s.c.claim(tmpl)
		if err != nil {
			s.failed = err
			return nil, err
		}
		s.nodes = append(s.nodes, claimed...)
		return claimed, nil
	}

	parent := s.anchor.Parent()
	for _, n := range tmpl {
		parent.InsertBefore(n, s.anchor)
	}
	s.nodes = append(s.nodes, tmpl...)
	return tmpl, nil
}

// Delegate makes the registry handle types for every mounted root,
// including this one.
func (s *Scope) Delegate(types ...string) {
	s.c.reg.Delegate(types...)
}

// Handle stores h as node's delegated handler for typ.
func (s *Scope) Handle(node *dom.Node, typ string, h delegate.Handler) {
	delegate.SetHandler(node, typ, h)
}

// On attaches a native listener tied to the component's lifetime.
func (s *Scope) On(typ string, node *dom.Node, fn dom.ListenerFunc, opts delegate.Options) (remove func()) {
	return s.c.reg.On(s.owner, typ, node, fn, opts)
}

// Subscriptions returns the component's store subscriptions, created on
// first use and closed on unmount.
func (s *Scope) Subscriptions() *store.Subscriptions {
	s.subsOnce.Do(func() {
		s.subs = store.NewSubscriptions(s.owner,
			store.WithScheduler(s.c.doc.Loop()),
			store.WithMetrics(s.c.metrics),
		)
	})
	return s.subs
}

// Nodes returns the top-level nodes the component owns.
func (s *Scope) Nodes() []*dom.Node {
	return append([]*dom.Node(nil), s.nodes...)
}
