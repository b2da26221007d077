package delegate

import (
	"slices"
	"sync"

	"github.com/weft-ui/weft/pkg/dom"
)

// Installer is one mount's delegation: the event types it consumed on its
// root and on the document. Each type is counted once per installation,
// so two installations sharing a type hold two references on one native
// listener and release them independently.
type Installer struct {
	reg  *Registry
	root *dom.Node

	mu    sync.Mutex
	types []string
	seen  map[string]bool
	done  bool
}

// Install starts delegating on root. Every type already registered with
// Delegate is added immediately; types delegated later are forwarded
// until Teardown.
func (r *Registry) Install(root *dom.Node) *Installer {
	in := &Installer{
		reg:  r,
		root: root,
		seen: make(map[string]bool),
	}

	r.mu.Lock()
	r.live[in] = struct{}{}
	types := slices.Clone(r.registered)
	r.mu.Unlock()

	in.Add(types...)
	return in
}

// Root returns the node the installation delegates on.
func (in *Installer) Root() *dom.Node { return in.root }

// Add attaches the dispatcher for each type not yet consumed by this
// installation, on the root and on the document.
func (in *Installer) Add(types ...string) {
	for _, t := range types {
		in.mu.Lock()
		if in.done || in.seen[t] {
			in.mu.Unlock()
			continue
		}
		in.seen[t] = true
		in.types = append(in.types, t)
		in.mu.Unlock()

		in.reg.acquire(in.root, t)
		in.reg.AddListener(t)
	}
}

// Types returns the types consumed by this installation, in order.
func (in *Installer) Types() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.types)
}

// Teardown releases exactly the types this installation added. It is
// safe to call more than once.
func (in *Installer) Teardown() {
	in.mu.Lock()
	if in.done {
		in.mu.Unlock()
		return
	}
	in.done = true
	types := in.types
	in.types = nil
	in.mu.Unlock()

	in.reg.mu.Lock()
	delete(in.reg.live, in)
	in.reg.mu.Unlock()

	for _, t := range types {
		in.reg.release(in.root, t)
		in.reg.RemoveListener(t)
	}
}
