// Package mount renders components into a document, either fresh or by
// adopting server-rendered markup.
//
// A Controller owns the mounted components of one document. Mount calls
// the component, which renders before an anchor through its Scope.
// Hydrate instead positions a cursor after the first start marker
// (<!--[-->) in the target, and every Scope.Render claims the existing
// nodes that match its markup, so no server-rendered node is replaced.
// When claiming fails, the target is cleared and the component is
// mounted fresh, unless recovery is disabled:
//
//	h, err := c.Hydrate(ctx, counter, mount.Options{
//	    Target:  app,
//	    Recover: mount.Bool(false),
//	})
//	if errors.Is(err, mount.ErrHydrationFailed) {
//	    // markup left as served
//	}
//
// Unmount runs the component's cleanups, releases its store
// subscriptions and delegated listeners, and removes its nodes.
package mount
