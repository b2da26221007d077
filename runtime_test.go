package weft

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/store"
)

const page = `<!DOCTYPE html><html><body><div id="app"><!--[--><button>+</button><p>0</p><!--]--></div></body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parsePage(t *testing.T, markup string) (*dom.Document, *dom.Node) {
	t.Helper()
	doc, err := dom.ParseDocument(strings.NewReader(markup), dom.WithLogger(testLogger()))
	if err != nil {
		t.Fatal(err)
	}
	return doc, doc.Node().ByAttr("id", "app")
}

// counter binds its label to a shared store and increments it on click.
func counter(count *store.Writable[int]) Component {
	return func(s *Scope, _ *dom.Node, _ Props) (Exports, error) {
		nodes, err := s.Render("<button>+</button><p>0</p>")
		if err != nil {
			return nil, err
		}
		label := nodes[1].FirstChild()
		subs := s.Subscriptions()
		dom.SetText(label, store.Bind[int](subs, "count", count))
		store.Cell[int](subs, "count").Observe(func(v int) { dom.SetText(label, v) })

		s.Handle(nodes[0], "click", Direct(func(*dom.Node, *dom.Event) error {
			count.Update(func(n int) int { return n + 1 })
			return nil
		}))
		return Exports{"label": "count"}, nil
	}
}

func TestRuntimeHydrate(t *testing.T) {
	doc, app := parsePage(t, page)
	rt := New(doc, WithLogger(testLogger()))
	defer rt.Close()

	button := app.ByTag("button")
	count := store.NewWritable(0, nil)

	h, err := rt.Hydrate(context.Background(), counter(count), Options{Target: app})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if rt.State().String() != "hydrated" {
		t.Errorf("State() = %v", rt.State())
	}
	if app.ByTag("button") != button {
		t.Error("button was replaced")
	}
	if h.Exports["label"] != "count" {
		t.Errorf("Exports = %v", h.Exports)
	}

	doc.Fire(button, dom.NewEvent("click", dom.EventInit{Bubbles: true}))
	if got := app.ByTag("p").InnerHTML(); got != "1" {
		t.Errorf("after click p = %q, want 1", got)
	}

	rt.Unmount(h)
	if count.Subscribers() != 0 {
		t.Errorf("store still has %d subscribers", count.Subscribers())
	}
	if app.FirstChild() != nil {
		t.Errorf("app still holds %q", app.InnerHTML())
	}
}

func TestRuntimeDefaults(t *testing.T) {
	doc, _ := parsePage(t, page)
	rt := New(doc, WithLogger(testLogger()))
	defer rt.Close()

	if !slices.Equal(rt.Events(), rt.Config().Delegation.DefaultEvents) {
		t.Errorf("Events() = %v", rt.Events())
	}
	if rt.Metrics() != nil {
		t.Error("metrics built without a registerer")
	}

	rt.Delegate("scroll", "click")
	events := rt.Events()
	if events[len(events)-1] != "scroll" || strings.Count(strings.Join(events, ","), "click") != 1 {
		t.Errorf("Events() = %v", events)
	}
}

func TestRuntimeConfig(t *testing.T) {
	doc, app := parsePage(t, `<html><body><div id="app"><!--[--><span></span><!--]--></div></body></html>`)
	cfg := DefaultConfig()
	cfg.Hydration.Recover = false
	cfg.Delegation.DefaultEvents = []string{"click"}

	rt := New(doc, WithConfig(cfg), WithLogger(testLogger()))
	defer rt.Close()

	_, err := rt.Hydrate(context.Background(), counter(store.NewWritable(0, nil)), Options{Target: app})
	if !errors.Is(err, ErrHydrationFailed) {
		t.Errorf("Hydrate() error = %v, want ErrHydrationFailed", err)
	}
	if !slices.Equal(rt.Events(), []string{"click"}) {
		t.Errorf("Events() = %v", rt.Events())
	}
}

func TestRuntimesCoexist(t *testing.T) {
	docA, appA := parsePage(t, page)
	docB, appB := parsePage(t, page)
	regA, regB := prometheus.NewRegistry(), prometheus.NewRegistry()

	a := New(docA, WithLogger(testLogger()), WithRegisterer(regA))
	b := New(docB, WithLogger(testLogger()), WithRegisterer(regB))

	ctx := context.Background()
	if _, err := a.Hydrate(ctx, counter(store.NewWritable(0, nil)), Options{Target: appA}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Mount(ctx, counter(store.NewWritable(0, nil)), Options{Target: appB}); err != nil {
		t.Fatal(err)
	}
	if a.State() == b.State() {
		t.Errorf("states should differ, both %v", a.State())
	}
	if a.Metrics() == nil || b.Metrics() == nil {
		t.Fatal("metrics not built")
	}

	a.Close()
	if n := docA.Node().ListenerCount("click"); n != 0 {
		t.Errorf("runtime A left %d document listeners", n)
	}
	if n := docB.Node().ListenerCount("click"); n != 1 {
		t.Errorf("closing A changed B: %d listeners", n)
	}
	b.Close()
}

func TestRuntimeBridge(t *testing.T) {
	doc, app := parsePage(t, `<html><body><div id="app"><button data-hid="b">x</button></div></body></html>`)
	rt := New(doc, WithLogger(testLogger()))
	defer rt.Close()

	clicked := false
	comp := func(s *Scope, _ *dom.Node, _ Props) (Exports, error) {
		s.Handle(app.ByAttr("data-hid", "b"), "click", Direct(func(*dom.Node, *dom.Event) error {
			clicked = true
			return nil
		}))
		return nil, nil
	}
	if _, err := rt.Mount(context.Background(), comp, Options{Target: app}); err != nil {
		t.Fatal(err)
	}

	srv := rt.Bridge(nil)
	defer srv.Shutdown(context.Background())
	if reply := srv.HandleFrame([]byte(`{"type":"click","hid":"b"}`)); reply.Status != "ok" {
		t.Errorf("reply = %+v", reply)
	}
	if !clicked {
		t.Error("bridged click did not reach the handler")
	}
}
