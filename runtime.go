package weft

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/weft-ui/weft/internal/config"
	"github.com/weft-ui/weft/pkg/bridge"
	"github.com/weft-ui/weft/pkg/delegate"
	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/metrics"
	"github.com/weft-ui/weft/pkg/mount"
)

// Option configures a Runtime.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	config     *config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	registerer prometheus.Registerer
	tracer     trace.Tracer
}

// WithConfig sets the configuration. Default: DefaultConfig().
func WithConfig(cfg *Config) Option {
	return func(o *runtimeOptions) {
		o.config = cfg
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *runtimeOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the collectors the runtime records to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *runtimeOptions) {
		o.metrics = m
	}
}

// WithRegisterer builds the runtime's collectors on reg when metrics are
// enabled in the configuration. Without it no metrics are recorded, so
// several runtimes can coexist in one process.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *runtimeOptions) {
		o.registerer = reg
	}
}

// WithTracer sets the tracer for mount and hydrate spans. Default: the
// global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *runtimeOptions) {
		o.tracer = t
	}
}

// Runtime is one document's delegation registry and mount controller.
// It replaces the process-wide state of a browser runtime: every
// registry, listener count and hydration flag belongs to a Runtime.
type Runtime struct {
	doc        *dom.Document
	config     *config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	registry   *delegate.Registry
	controller *mount.Controller
}

// New creates a runtime for doc. The configured default events are
// delegated immediately.
func New(doc *dom.Document, opts ...Option) *Runtime {
	var o runtimeOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.config
	if cfg == nil {
		cfg = config.New()
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	m := o.metrics
	if m == nil && o.registerer != nil && cfg.Metrics.Enabled {
		m = metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(o.registerer),
		)
	}

	reg := delegate.NewRegistry(doc,
		delegate.WithLogger(logger),
		delegate.WithMetrics(m),
		delegate.WithPassiveEvents(cfg.Delegation.PassiveEvents...),
	)
	reg.Delegate(cfg.Delegation.DefaultEvents...)

	ctrlOpts := []mount.ControllerOption{
		mount.WithLogger(logger),
		mount.WithMetrics(m),
		mount.WithRecover(cfg.Hydration.Recover),
		mount.WithMarkers(cfg.Hydration.StartMarker, cfg.Hydration.EndMarker),
	}
	if o.tracer != nil {
		ctrlOpts = append(ctrlOpts, mount.WithTracer(o.tracer))
	}

	return &Runtime{
		doc:        doc,
		config:     cfg,
		logger:     logger,
		metrics:    m,
		registry:   reg,
		controller: mount.NewController(reg, ctrlOpts...),
	}
}

// Document returns the runtime's document.
func (r *Runtime) Document() *dom.Document { return r.doc }

// Config returns the runtime's configuration.
func (r *Runtime) Config() *Config { return r.config }

// Registry returns the delegation registry.
func (r *Runtime) Registry() *delegate.Registry { return r.registry }

// Controller returns the mount controller.
func (r *Runtime) Controller() *mount.Controller { return r.controller }

// Metrics returns the runtime's collectors, or nil.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// State returns the hydration state.
func (r *Runtime) State() State { return r.controller.State() }

// Mount renders comp fresh into opts.Target.
func (r *Runtime) Mount(ctx context.Context, comp Component, opts Options) (*Handle, error) {
	return r.controller.Mount(ctx, comp, opts)
}

// Hydrate adopts the server-rendered markup in opts.Target.
func (r *Runtime) Hydrate(ctx context.Context, comp Component, opts Options) (*Handle, error) {
	return r.controller.Hydrate(ctx, comp, opts)
}

// Unmount tears down h. Unknown handles are ignored.
func (r *Runtime) Unmount(h *Handle) {
	r.controller.Unmount(h)
}

// UnmountExports tears down the component that returned exports.
// Unknown or already unmounted components are ignored.
func (r *Runtime) UnmountExports(exports Exports) {
	r.controller.UnmountExports(exports)
}

// Delegate adds event types handled for every mounted root.
func (r *Runtime) Delegate(types ...string) {
	r.registry.Delegate(types...)
}

// Events returns the delegated event types in registration order.
func (r *Runtime) Events() []string {
	return r.registry.Events()
}

// Bridge creates an event bridge server for the runtime's document from
// the bridge section of the configuration. A non-nil gatherer is served
// on /metrics.
func (r *Runtime) Bridge(gatherer prometheus.Gatherer) *bridge.Server {
	bc := r.config.Bridge
	cfg := bridge.DefaultConfig()
	cfg.Addr = bc.Addr
	cfg.ReadLimit = bc.ReadLimit
	cfg.WriteTimeout = bc.WriteTimeout
	if len(bc.AllowedOrigins) > 0 {
		cfg.CheckOrigin = bridge.AllowOrigins(bc.AllowedOrigins...)
	}
	cfg.Logger = r.logger
	cfg.Metrics = r.metrics
	cfg.Gatherer = gatherer
	return bridge.New(r.doc, cfg)
}

// Close unmounts every component and detaches every native listener the
// runtime attached.
func (r *Runtime) Close() {
	r.controller.Close()
	r.registry.Close()
}
