package mount

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"testing"

	weferrors "github.com/weft-ui/weft/internal/errors"
	"github.com/weft-ui/weft/pkg/dom"
)

func TestHydrateAdoptsServerMarkup(t *testing.T) {
	markup := serverMarkup(t, counter, Props{"start": 2})

	f := newFixture(t)
	if err := f.target.SetInnerHTML(markup); err != nil {
		t.Fatal(err)
	}
	before := f.target.Children()

	h, err := f.c.Hydrate(context.Background(), counter, Options{Target: f.target, Props: Props{"start": 2}})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	after := f.target.Children()
	if len(after) != len(before) {
		t.Fatalf("children = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("child %d was replaced", i)
		}
	}
	if f.target.InnerHTML() != markup {
		t.Errorf("InnerHTML = %q, want %q", f.target.InnerHTML(), markup)
	}
	if f.c.State() != StateHydrated {
		t.Errorf("State() = %v, want hydrated", f.c.State())
	}

	// Exports match a direct mount.
	direct := newFixture(t)
	dh, err := direct.c.Mount(context.Background(), counter, Options{Target: direct.target, Props: Props{"start": 2}})
	if err != nil {
		t.Fatal(err)
	}
	got, want := maps.Clone(h.Exports), maps.Clone(dh.Exports)
	delete(got, HandleKey)
	delete(want, HandleKey)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exports = %v, want %v", got, want)
	}

	// Handlers are live on the adopted nodes.
	click(f.doc, f.target.ByTag("button"))
	if got := f.target.ByTag("p").InnerHTML(); got != "3" {
		t.Errorf("after click p = %q, want 3", got)
	}

	// Unmount removes the whole region including its markers.
	f.c.Unmount(h)
	if f.target.FirstChild() != nil {
		t.Errorf("target still holds %q", f.target.InnerHTML())
	}
}

func TestHydrateTolerance(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "whitespace between nodes",
			markup: "\n<!--[-->\n  <button>+</button>\n  <p>0</p>\n<!--]-->\n",
			want:   "0",
		},
		{
			name:   "text repaired in place",
			markup: "<!--[--><button>+</button><p>41</p><!--]-->",
			want:   "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.target.SetInnerHTML(tt.markup); err != nil {
				t.Fatal(err)
			}
			p := f.target.ByTag("p")

			if _, err := f.c.Hydrate(context.Background(), counter, Options{Target: f.target}); err != nil {
				t.Fatalf("Hydrate() error = %v", err)
			}
			if f.c.State() != StateHydrated {
				t.Errorf("State() = %v, want hydrated", f.c.State())
			}
			if f.target.ByTag("p") != p {
				t.Error("paragraph was replaced")
			}
			if got := p.InnerHTML(); got != tt.want {
				t.Errorf("p = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHydrateRecovers(t *testing.T) {
	direct := newFixture(t)
	if _, err := direct.c.Mount(context.Background(), counter, Options{Target: direct.target}); err != nil {
		t.Fatal(err)
	}
	want := direct.target.InnerHTML()

	tests := []struct {
		name   string
		markup string
	}{
		{"wrong tag", "<!--[--><span>+</span><p>0</p><!--]-->"},
		{"missing start marker", "<button>+</button><p>0</p>"},
		{"missing end marker", "<!--[--><button>+</button><p>0</p>"},
		{"extra node", "<!--[--><button>+</button><p>0</p><hr><!--]-->"},
		{"extra child", "<!--[--><button>+<b>!</b></button><p>0</p><!--]-->"},
		{"empty target", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.target.SetInnerHTML(tt.markup); err != nil {
				t.Fatal(err)
			}

			h, err := f.c.Hydrate(context.Background(), counter, Options{Target: f.target})
			if err != nil {
				t.Fatalf("Hydrate() error = %v", err)
			}
			if got := f.target.InnerHTML(); got != want {
				t.Errorf("InnerHTML = %q, want %q", got, want)
			}
			if f.c.State() != StateMounted {
				t.Errorf("State() = %v, want mounted", f.c.State())
			}
			if n := f.reg.RootCount(f.target, "click"); n != 1 {
				t.Errorf("RootCount = %d, want 1", n)
			}
			if h.Exports["kind"] != "counter" {
				t.Errorf("Exports = %v", h.Exports)
			}

			click(f.doc, f.target.ByTag("button"))
			if got := f.target.ByTag("p").InnerHTML(); got != "1" {
				t.Errorf("after click p = %q, want 1", got)
			}
		})
	}
}

func TestHydrateRecoverDisabled(t *testing.T) {
	for _, viaController := range []bool{false, true} {
		var opts []ControllerOption
		if viaController {
			opts = append(opts, WithRecover(false))
		}
		f := newFixture(t, opts...)

		markup := "<!--[--><span>+</span><p>0</p><!--]-->"
		if err := f.target.SetInnerHTML(markup); err != nil {
			t.Fatal(err)
		}

		mo := Options{Target: f.target}
		if !viaController {
			mo.Recover = Bool(false)
		}
		h, err := f.c.Hydrate(context.Background(), counter, mo)
		if h != nil {
			t.Error("Hydrate returned a handle")
		}
		if !errors.Is(err, ErrHydrationFailed) {
			t.Fatalf("Hydrate() error = %v, want ErrHydrationFailed", err)
		}
		if !IsMismatch(err) {
			t.Errorf("error %v does not wrap the mismatch", err)
		}
		if f.target.InnerHTML() != markup {
			t.Errorf("markup changed to %q", f.target.InnerHTML())
		}
		if n := f.reg.RootCount(f.target, "click"); n != 0 {
			t.Errorf("RootCount = %d after failed hydration", n)
		}
		if f.c.Len() != 0 || f.c.State() != StateIdle {
			t.Errorf("Len() = %d, State() = %v", f.c.Len(), f.c.State())
		}
	}
}

func TestHydrateComponentErrorIsReturned(t *testing.T) {
	markup := "<!--[--><button>+</button><p>41</p><!--]-->"
	boom := errors.New("not ready")

	tests := []struct {
		name string
		comp Component
		code string
	}{
		{
			name: "error",
			comp: func(s *Scope, anchor *dom.Node, props Props) (Exports, error) {
				if _, err := counter(s, anchor, props); err != nil {
					return nil, err
				}
				return nil, boom
			},
			code: "W021",
		},
		{
			name: "panic",
			comp: func(s *Scope, anchor *dom.Node, props Props) (Exports, error) {
				if _, err := counter(s, anchor, props); err != nil {
					return nil, err
				}
				panic("not ready")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.target.SetInnerHTML(markup); err != nil {
				t.Fatal(err)
			}

			h, err := f.c.Hydrate(context.Background(), tt.comp, Options{Target: f.target})
			if h != nil || err == nil {
				t.Fatalf("Hydrate() = %v, %v, want error", h, err)
			}
			if IsMismatch(err) || errors.Is(err, ErrHydrationFailed) {
				t.Errorf("Hydrate() error = %v, want the component error", err)
			}
			if tt.code != "" {
				if got := weferrors.CodeOf(err); got != tt.code {
					t.Errorf("code = %q, want %q", got, tt.code)
				}
				if !errors.Is(err, boom) {
					t.Errorf("error %v does not wrap the component error", err)
				}
			}
			if got := f.target.InnerHTML(); got != markup {
				t.Errorf("markup changed to %q", got)
			}
			if f.c.Len() != 0 || f.c.State() != StateIdle {
				t.Errorf("Len() = %d, State() = %v", f.c.Len(), f.c.State())
			}
			if n := f.reg.RootCount(f.target, "click"); n != 0 {
				t.Errorf("RootCount = %d after failed hydration", n)
			}
		})
	}
}

func TestHydrateSkipsLeadingContent(t *testing.T) {
	f := newFixture(t)
	markup := "<p>static</p><!--note--><!--[--><button>+</button><p>0</p><!--]-->"
	if err := f.target.SetInnerHTML(markup); err != nil {
		t.Fatal(err)
	}
	static := f.target.FirstChild()

	h, err := f.c.Hydrate(context.Background(), counter, Options{Target: f.target, Recover: Bool(false)})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if f.c.State() != StateHydrated {
		t.Errorf("State() = %v, want hydrated", f.c.State())
	}
	if f.target.InnerHTML() != markup || f.target.FirstChild() != static {
		t.Errorf("InnerHTML = %q, want %q", f.target.InnerHTML(), markup)
	}

	click(f.doc, f.target.ByTag("button"))
	if got := f.target.ByTag("button").NextSibling().InnerHTML(); got != "1" {
		t.Errorf("after click p = %q, want 1", got)
	}

	f.c.Unmount(h)
	if got := f.target.InnerHTML(); got != "<p>static</p><!--note-->" {
		t.Errorf("after unmount InnerHTML = %q", got)
	}
}

func TestHydrateFailureLeavesMarkupUnrepaired(t *testing.T) {
	// The text differs and the region has a trailing extra node, so the
	// mismatch is found after the text was claimed.
	markup := "<!--[--><button>+</button><p>41</p><hr><!--]-->"
	f := newFixture(t)
	if err := f.target.SetInnerHTML(markup); err != nil {
		t.Fatal(err)
	}

	_, err := f.c.Hydrate(context.Background(), counter, Options{Target: f.target, Recover: Bool(false)})
	if !errors.Is(err, ErrHydrationFailed) {
		t.Fatalf("Hydrate() error = %v, want ErrHydrationFailed", err)
	}
	if got := f.target.InnerHTML(); got != markup {
		t.Errorf("markup changed to %q", got)
	}
}

func TestHydrateMismatchCannotBeSwallowed(t *testing.T) {
	f := newFixture(t)
	if err := f.target.SetInnerHTML("<!--[--><span>x</span><!--]-->"); err != nil {
		t.Fatal(err)
	}

	careless := func(s *Scope, _ *dom.Node, _ Props) (Exports, error) {
		_, _ = s.Render("<p>x</p>")
		return nil, nil
	}

	_, err := f.c.Hydrate(context.Background(), careless, Options{Target: f.target, Recover: Bool(false)})
	if !IsMismatch(err) {
		t.Errorf("Hydrate() error = %v, want mismatch", err)
	}
}

func TestHydrateReentrant(t *testing.T) {
	f := newFixture(t)
	if err := f.target.SetInnerHTML("<!--[--><button>+</button><p>0</p><!--]-->"); err != nil {
		t.Fatal(err)
	}
	other := f.doc.CreateElement("div")
	f.doc.Body().AppendChild(other)

	var inner error
	outer := func(s *Scope, anchor *dom.Node, props Props) (Exports, error) {
		_, inner = f.c.Hydrate(context.Background(), counter, Options{Target: other})
		return counter(s, anchor, props)
	}

	if _, err := f.c.Hydrate(context.Background(), outer, Options{Target: f.target}); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if !errors.Is(inner, ErrHydrationInProgress) {
		t.Errorf("nested Hydrate() = %v, want ErrHydrationInProgress", inner)
	}
	if f.c.State() != StateHydrated {
		t.Errorf("State() = %v, want hydrated", f.c.State())
	}

	// The flag is cleared once hydration ends.
	if err := other.SetInnerHTML("<!--[--><button>+</button><p>0</p><!--]-->"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.c.Hydrate(context.Background(), counter, Options{Target: other}); err != nil {
		t.Errorf("second Hydrate() error = %v", err)
	}
}

func TestNestedRender(t *testing.T) {
	child := func(s *Scope) error {
		_, err := s.Render("<li>a</li><li>b</li>")
		return err
	}
	list := func(s *Scope, _ *dom.Node, _ Props) (Exports, error) {
		if _, err := s.Render("<h1>list</h1>"); err != nil {
			return nil, err
		}
		if err := child(s); err != nil {
			return nil, err
		}
		return nil, nil
	}

	markup := serverMarkup(t, list, nil)
	f := newFixture(t)
	if err := f.target.SetInnerHTML(markup); err != nil {
		t.Fatal(err)
	}
	h1 := f.target.ByTag("h1")

	h, err := f.c.Hydrate(context.Background(), list, Options{Target: f.target})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if f.c.State() != StateHydrated || f.target.ByTag("h1") != h1 {
		t.Error("sequential renders did not hydrate in place")
	}
	if got := len(h.Scope().Nodes()); got != 5 {
		t.Errorf("owned nodes = %d, want 5", got)
	}
}
