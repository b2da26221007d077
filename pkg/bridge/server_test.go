package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"

	"github.com/weft-ui/weft/pkg/delegate"
	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/metrics"
)

type bridgeFixture struct {
	doc    *dom.Document
	reg    *delegate.Registry
	button *dom.Node
	form   *dom.Node
	clicks atomic.Int32
	server *Server
}

func newBridgeFixture(t *testing.T, config *Config) *bridgeFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	doc := dom.NewDocument(dom.WithLogger(logger))

	app := doc.CreateElement("div")
	doc.Body().AppendChild(app)
	if err := app.SetInnerHTML(`<button data-hid="h1">+</button><a data-hid="h2" href="/x">x</a><form data-hid="h3"></form>`); err != nil {
		t.Fatal(err)
	}

	reg := delegate.NewRegistry(doc, delegate.WithLogger(logger))
	reg.Delegate("click", "submit")
	in := reg.Install(app)
	t.Cleanup(in.Teardown)

	f := &bridgeFixture{doc: doc, reg: reg, button: app.ByAttr(HIDAttr, "h1"), form: app.ByAttr(HIDAttr, "h3")}
	delegate.SetHandler(f.button, "click", delegate.Direct(func(*dom.Node, *dom.Event) error {
		f.clicks.Add(1)
		return nil
	}))
	delegate.SetHandler(app.ByAttr(HIDAttr, "h2"), "click", delegate.Direct(func(_ *dom.Node, e *dom.Event) error {
		e.PreventDefault()
		return nil
	}))

	if config == nil {
		config = DefaultConfig()
	}
	config.Logger = logger
	f.server = New(doc, config)
	t.Cleanup(func() { _ = f.server.Shutdown(context.Background()) })
	return f
}

func TestDispatch(t *testing.T) {
	f := newBridgeFixture(t, nil)

	reply := f.server.HandleFrame([]byte(`{"id":"1","type":"click","hid":"h1"}`))
	if reply.Status != StatusOK || reply.ID != "1" {
		t.Fatalf("reply = %+v", reply)
	}
	if f.clicks.Load() != 1 {
		t.Errorf("clicks = %d, want 1", f.clicks.Load())
	}
	if reply.DefaultPrevented {
		t.Error("DefaultPrevented without a handler calling PreventDefault")
	}

	reply = f.server.HandleFrame([]byte(`{"type":"click","hid":"h2"}`))
	if !reply.DefaultPrevented {
		t.Error("PreventDefault not reported")
	}
}

func TestDispatchUnknownHID(t *testing.T) {
	f := newBridgeFixture(t, nil)
	reply := f.server.HandleFrame([]byte(`{"id":"2","type":"click","hid":"missing"}`))
	if reply.Status != StatusInvalid || reply.Code != "W081" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestDispatchCollectsHandlerErrors(t *testing.T) {
	f := newBridgeFixture(t, nil)
	loop := f.doc.Loop()

	delegate.SetHandler(f.form, "submit", delegate.Direct(func(*dom.Node, *dom.Event) error {
		return errors.New("sync failure")
	}))
	inner := f.doc.CreateElement("span")
	inner.SetAttr(HIDAttr, "h4")
	f.form.AppendChild(inner)
	delegate.SetHandler(inner, "submit", delegate.Direct(func(*dom.Node, *dom.Event) error {
		loop.QueueMicrotask(func() error { return errors.New("deferred failure") })
		return errors.New("inner failure")
	}))

	reply := f.server.HandleFrame([]byte(`{"type":"submit","hid":"h4"}`))
	if reply.Status != StatusHandler {
		t.Fatalf("Status = %q", reply.Status)
	}
	if len(reply.Errors) < 2 {
		t.Fatalf("Errors = %v", reply.Errors)
	}
	if !strings.Contains(reply.Errors[0], "inner failure") {
		t.Errorf("first error = %q, want the innermost handler's", reply.Errors[0])
	}
	joined := strings.Join(reply.Errors, "|")
	for _, want := range []string{"sync failure", "deferred failure"} {
		if !strings.Contains(joined, want) {
			t.Errorf("errors %q missing %q", joined, want)
		}
	}

	// Errors do not leak into the next frame.
	reply = f.server.HandleFrame([]byte(`{"type":"click","hid":"h1"}`))
	if reply.Status != StatusOK || len(reply.Errors) != 0 {
		t.Errorf("next reply = %+v", reply)
	}
}

func TestHandleFramePing(t *testing.T) {
	f := newBridgeFixture(t, nil)
	if reply := f.server.HandleFrame([]byte(`{"id":"p","kind":"ping"}`)); reply.Status != StatusPong {
		t.Errorf("reply = %+v", reply)
	}
	if reply := f.server.HandleFrame([]byte(`nope`)); reply.Status != StatusInvalid || reply.Code != "W080" {
		t.Errorf("reply = %+v", reply)
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWebSocketRoundTrip(t *testing.T) {
	reg := prometheus.NewRegistry()
	config := DefaultConfig()
	config.Metrics = metrics.New(metrics.WithRegistry(reg))
	config.Gatherer = reg
	f := newBridgeFixture(t, config)

	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	send := func(msg string) gjson.Result {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		return gjson.ParseBytes(data)
	}

	out := send(`{"id":"a","type":"click","hid":"h1"}`)
	if out.Get("id").String() != "a" || out.Get("status").String() != StatusOK {
		t.Errorf("reply = %s", out.Raw)
	}
	if f.clicks.Load() != 1 {
		t.Errorf("clicks = %d", f.clicks.Load())
	}

	out = send(`{"id":"b","type":"click","hid":"nope"}`)
	if out.Get("code").String() != "W081" {
		t.Errorf("reply = %s", out.Raw)
	}

	if f.server.Sessions() != 1 {
		t.Errorf("Sessions() = %d", f.server.Sessions())
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `weft_bridge_frames_total{status="ok"} 1`) {
		t.Errorf("metrics missing frame counter:\n%s", body)
	}
}

func TestHealthz(t *testing.T) {
	f := newBridgeFixture(t, nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without gatherer = %d", rec.Code)
	}
}

func TestOriginChecks(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://app.test/ws", nil)
	req.Host = "app.test"

	if !SameOriginCheck(req) {
		t.Error("request without Origin rejected")
	}
	req.Header.Set("Origin", "http://app.test")
	if !SameOriginCheck(req) {
		t.Error("same origin rejected")
	}
	req.Header.Set("Origin", "http://evil.test")
	if SameOriginCheck(req) {
		t.Error("cross origin accepted")
	}
	if !AllowOrigins("http://evil.test")(req) {
		t.Error("allowed origin rejected")
	}
}

func TestCrossOriginUpgradeRejected(t *testing.T) {
	f := newBridgeFixture(t, nil)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.test")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if err == nil {
		t.Fatal("cross-origin dial succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}
