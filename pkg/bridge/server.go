package bridge

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weft-ui/weft/internal/errors"
	"github.com/weft-ui/weft/pkg/dom"
)

// HIDAttr is the attribute that names an element for the bridge.
const HIDAttr = "data-hid"

// Server streams event frames from websocket clients into a document and
// replies with the outcome of each dispatch.
type Server struct {
	doc    *dom.Document
	config *Config

	upgrader websocket.Upgrader
	router   chi.Router

	// dispatchMu serializes bridge turns so the errors collected by
	// onError belong to the frame being dispatched.
	dispatchMu  sync.Mutex
	errMu       sync.Mutex
	turnErrs    []error
	removeOnErr func()

	mu         sync.Mutex
	conns      map[string]*websocket.Conn
	httpServer *http.Server
	closed     bool
}

// New creates a bridge server for doc. A nil config uses DefaultConfig.
func New(doc *dom.Document, config *Config) *Server {
	config = config.withDefaults()
	s := &Server{
		doc:    doc,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		conns: make(map[string]*websocket.Conn),
	}
	s.removeOnErr = doc.Loop().OnError(s.collect)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", s.HandleWebSocket)
	if config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the bridge's routes: /ws, /healthz and, when a gatherer
// is configured, /metrics.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the number of open websocket connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// HandleWebSocket upgrades the request and serves frames until the client
// disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.config.Logger.Error("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[id] = conn
	s.mu.Unlock()

	s.config.Metrics.RecordBridgeSession(1)
	s.config.Logger.Info("bridge session opened", "conn", id, "remote", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		conn.Close()
		s.config.Metrics.RecordBridgeSession(-1)
		s.config.Logger.Info("bridge session closed", "conn", id)
	}()

	conn.SetReadLimit(s.config.ReadLimit)
	s.readLoop(id, conn)
}

func (s *Server) readLoop(id string, conn *websocket.Conn) {
	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.config.Logger.Error("read error", "conn", id, "error", err)
			}
			return
		}

		reply := s.HandleFrame(msg)
		s.config.Metrics.RecordBridgeFrame(reply.Status)

		data, err := reply.Encode()
		if err != nil {
			s.config.Logger.Error("reply encode error", "conn", id, "error", err)
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.config.Logger.Error("write error", "conn", id, "error", err)
			return
		}
	}
}

// HandleFrame decodes msg, dispatches the event it describes and returns
// the reply. It is the transport-independent core of the bridge.
func (s *Server) HandleFrame(msg []byte) Reply {
	f, err := DecodeFrame(msg)
	if err != nil {
		s.config.Logger.Warn("frame rejected", "error", err)
		return rejection(f.ID, err)
	}
	if f.Kind == KindPing {
		return Reply{ID: f.ID, Status: StatusPong}
	}
	return s.Dispatch(f)
}

// Dispatch fires f's event at the element carrying its hid, in one loop
// turn, and reports the handler errors raised during that turn.
func (s *Server) Dispatch(f Frame) Reply {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.errMu.Lock()
	s.turnErrs = nil
	s.errMu.Unlock()

	var target *dom.Node
	var notCanceled bool
	s.doc.Loop().Run(func() error {
		target = s.doc.Node().ByAttr(HIDAttr, f.HID)
		if target == nil {
			return nil
		}
		e := dom.NewEvent(f.Type, dom.EventInit{
			Bubbles:    f.Bubbles,
			Cancelable: f.Cancelable,
			Composed:   f.Composed,
			Detail:     f.Detail,
		})
		notCanceled = target.DispatchEvent(e)
		return nil
	})

	if target == nil {
		return rejection(f.ID, errors.New("W081").
			WithAttr("hid", f.HID).
			WithSuggestion("Render the element with a "+HIDAttr+" attribute"))
	}

	s.errMu.Lock()
	errs := s.turnErrs
	s.turnErrs = nil
	s.errMu.Unlock()

	reply := Reply{ID: f.ID, Status: StatusOK, DefaultPrevented: !notCanceled}
	if len(errs) > 0 {
		reply.Status = StatusHandler
		for _, err := range errs {
			reply.Errors = append(reply.Errors, err.Error())
		}
		s.config.Logger.Warn("handler errors during bridged dispatch",
			"type", f.Type,
			"hid", f.HID,
			"count", len(errs),
			"error", errs[0],
		)
	}
	return reply
}

func (s *Server) collect(err error) {
	s.errMu.Lock()
	s.turnErrs = append(s.turnErrs, err)
	s.errMu.Unlock()
}

// ListenAndServe serves the bridge on config.Addr until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.config.Logger.Info("bridge listening", "address", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("W121").WithAttr("addr", s.config.Addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every websocket connection and stops the HTTP server if
// ListenAndServe started one.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	srv := s.httpServer
	s.mu.Unlock()

	for _, c := range conns {
		deadline := time.Now().Add(time.Second)
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), deadline)
		c.Close()
	}
	s.removeOnErr()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.config.Logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.config.Logger.Info("bridge shutdown complete")
	return nil
}
