package delegate

import (
	"reflect"
	"testing"

	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/reactive"
)

func TestOnRunsDelegatedHandlersFirst(t *testing.T) {
	doc, reg, container := newTestRegistry(t)
	child := doc.CreateElement("button")
	container.AppendChild(child)

	var log []string
	SetHandler(child, "click", record(&log, "delegated"))
	reg.On(nil, "click", container, func(this *dom.Node, e *dom.Event) error {
		log = append(log, "direct")
		return nil
	}, Options{})

	doc.Fire(child, click())

	if !reflect.DeepEqual(log, []string{"delegated", "direct"}) {
		t.Errorf("log = %v", log)
	}
}

func TestOnSkipsHandlerWhenStopped(t *testing.T) {
	doc, reg, container := newTestRegistry(t)
	child := doc.CreateElement("button")
	container.AppendChild(child)

	SetHandler(child, "click", Direct(func(this *dom.Node, e *dom.Event) error {
		e.StopPropagation()
		return nil
	}))
	called := false
	reg.On(nil, "click", container, func(*dom.Node, *dom.Event) error {
		called = true
		return nil
	}, Options{})

	doc.Fire(child, click())

	if called {
		t.Error("direct listener ran after propagation was stopped")
	}
}

func TestOnCaptureDoesNotPropagate(t *testing.T) {
	doc, reg, container := newTestRegistry(t)
	child := doc.CreateElement("button")
	container.AppendChild(child)

	var log []string
	SetHandler(child, "click", record(&log, "delegated"))
	reg.On(nil, "click", container, func(*dom.Node, *dom.Event) error {
		log = append(log, "capture")
		return nil
	}, Options{Capture: true})

	doc.Fire(child, click())

	if !reflect.DeepEqual(log, []string{"capture"}) {
		t.Errorf("log = %v, want [capture]", log)
	}
}

func TestOnDeferredAttach(t *testing.T) {
	tests := []struct {
		typ      string
		deferred bool
	}{
		{"pointerdown", true},
		{"touchstart", true},
		{"wheel", true},
		{"click", false},
		{"keydown", false},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			doc, reg, container := newTestRegistry(t)
			reg.On(nil, tt.typ, container, nil, Options{})

			attached := container.ListenerCount(tt.typ) == 1
			if attached == tt.deferred {
				t.Fatalf("attached before drain = %v, deferred = %v", attached, tt.deferred)
			}
			doc.Loop().Drain()
			if got := container.ListenerCount(tt.typ); got != 1 {
				t.Errorf("listeners after drain = %d", got)
			}
		})
	}
}

func TestOnRemovedBeforeDeferredAttach(t *testing.T) {
	doc, reg, container := newTestRegistry(t)
	remove := reg.On(nil, "pointermove", container, nil, Options{})
	remove()
	doc.Loop().Drain()

	if got := container.ListenerCount("pointermove"); got != 0 {
		t.Errorf("listener attached after removal: %d", got)
	}
}

func TestOnGlobalTargetsRemovedWithOwner(t *testing.T) {
	doc, reg, container := newTestRegistry(t)
	owner := reactive.NewOwner(nil)
	video := doc.CreateElement("video")
	container.AppendChild(video)

	targets := []*dom.Node{doc.Node(), doc.Window(), doc.Body(), video, container}
	for _, n := range targets {
		reg.On(owner, "keydown", n, nil, Options{})
	}
	owner.Dispose()

	for _, n := range targets[:4] {
		if got := n.ListenerCount("keydown"); got != 0 {
			t.Errorf("%s listener survived owner disposal", n.Type)
		}
	}
	if got := container.ListenerCount("keydown"); got != 1 {
		t.Error("element listener should outlive the owner")
	}
}

func TestListenAndReset(t *testing.T) {
	doc, reg, container := newTestRegistry(t)
	form := doc.CreateElement("form")
	input := doc.CreateElement("input")
	other := doc.CreateElement("input")
	form.AppendChild(input)
	form.AppendChild(other)
	container.AppendChild(form)

	var log []string
	reg.ListenAndReset(input, "input", func(reset bool) error {
		log = append(log, "first", boolString(reset))
		return nil
	}, nil)
	reg.ListenAndReset(input, "change", func(bool) error { return nil }, func(reset bool) error {
		log = append(log, "second", boolString(reset))
		return nil
	})

	if got := doc.Node().ListenerCount("reset"); got != 1 {
		t.Fatalf("reset listeners = %d, want 1", got)
	}

	doc.Fire(input, dom.NewEvent("input", dom.EventInit{Bubbles: true}))
	if !reflect.DeepEqual(log, []string{"first", "false"}) {
		t.Fatalf("input log = %v", log)
	}

	log = nil
	doc.Fire(form, dom.NewEvent("reset", dom.EventInit{Bubbles: true, Cancelable: true}))
	if !reflect.DeepEqual(log, []string{"first", "true", "second", "true"}) {
		t.Errorf("reset log = %v", log)
	}
}

func TestListenAndResetDefaultPrevented(t *testing.T) {
	doc, reg, container := newTestRegistry(t)
	form := doc.CreateElement("form")
	input := doc.CreateElement("input")
	form.AppendChild(input)
	container.AppendChild(form)

	reset := false
	reg.ListenAndReset(input, "input", func(r bool) error {
		reset = reset || r
		return nil
	}, nil)
	form.AddEventListener("reset", dom.NewListener(func(_ *dom.Node, e *dom.Event) error {
		e.PreventDefault()
		return nil
	}), dom.ListenerOptions{})

	doc.Fire(form, dom.NewEvent("reset", dom.EventInit{Bubbles: true, Cancelable: true}))

	if reset {
		t.Error("reset hook ran for a prevented reset")
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
