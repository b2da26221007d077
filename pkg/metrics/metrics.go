// Package metrics defines the Prometheus collectors exported by the weft
// runtime. A nil *Metrics is valid and records nothing, so packages can
// take one unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "weft").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for mount duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry. Tests pass a fresh
// prometheus.NewRegistry() so several runtimes can coexist.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "weft",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the runtime's collectors.
type Metrics struct {
	dispatches     *prometheus.CounterVec
	handlerErrors  *prometheus.CounterVec
	nativeAttached *prometheus.GaugeVec
	mountsActive   prometheus.Gauge
	mountDuration  *prometheus.HistogramVec
	hydrations     *prometheus.CounterVec
	storeBindings  prometheus.Gauge
	bridgeSessions prometheus.Gauge
	bridgeFrames   *prometheus.CounterVec
}

// New registers the collectors on the configured registry.
//
// Metrics collected:
//   - weft_dispatches_total: delegated propagations by event type
//   - weft_handler_errors_total: handler errors by event type and kind
//   - weft_native_listeners: native listeners attached by the registry, by event type
//   - weft_mounts_active: mounted component instances
//   - weft_mount_duration_seconds: Mount/Hydrate duration by mode
//   - weft_hydrations_total: hydration outcomes
//   - weft_store_bindings: live store bindings
//   - weft_bridge_sessions: open event bridge connections
//   - weft_bridge_frames_total: bridge frames by status
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of delegated event propagations",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		handlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_errors_total",
			Help:        "Total number of errors returned or raised by delegated handlers",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "kind"}),

		nativeAttached: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "native_listeners",
			Help:        "Native listeners attached by the delegation registry",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		mountsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounts_active",
			Help:        "Number of mounted component instances",
			ConstLabels: config.ConstLabels,
		}),

		mountDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mount_duration_seconds",
			Help:        "Mount and hydrate duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		hydrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hydrations_total",
			Help:        "Hydration attempts by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		storeBindings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_bindings",
			Help:        "Live store subscriptions held by components",
			ConstLabels: config.ConstLabels,
		}),

		bridgeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bridge_sessions",
			Help:        "Open event bridge connections",
			ConstLabels: config.ConstLabels,
		}),

		bridgeFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bridge_frames_total",
			Help:        "Event bridge frames by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
	}
}

// RecordDispatch records one delegated propagation of typ.
func (m *Metrics) RecordDispatch(typ string) {
	if m != nil {
		m.dispatches.WithLabelValues(typ).Inc()
	}
}

// RecordHandlerError records a handler failure. kind is "error" or "panic".
func (m *Metrics) RecordHandlerError(typ, kind string) {
	if m != nil {
		m.handlerErrors.WithLabelValues(typ, kind).Inc()
	}
}

// RecordNativeAttach records a native listener being attached (delta 1)
// or detached (delta -1).
func (m *Metrics) RecordNativeAttach(typ string, delta int) {
	if m != nil {
		m.nativeAttached.WithLabelValues(typ).Add(float64(delta))
	}
}

// RecordMount records a mounted instance and how long mode took.
func (m *Metrics) RecordMount(mode string, seconds float64) {
	if m != nil {
		m.mountsActive.Inc()
		m.mountDuration.WithLabelValues(mode).Observe(seconds)
	}
}

// RecordUnmount records an instance being torn down.
func (m *Metrics) RecordUnmount() {
	if m != nil {
		m.mountsActive.Dec()
	}
}

// RecordHydration records a hydration outcome: "hydrated", "recovered"
// or "failed".
func (m *Metrics) RecordHydration(outcome string) {
	if m != nil {
		m.hydrations.WithLabelValues(outcome).Inc()
	}
}

// RecordStoreBinding records a store subscription opened (1) or
// released (-1).
func (m *Metrics) RecordStoreBinding(delta int) {
	if m != nil {
		m.storeBindings.Add(float64(delta))
	}
}

// RecordBridgeSession records a bridge connection opened (1) or
// closed (-1).
func (m *Metrics) RecordBridgeSession(delta int) {
	if m != nil {
		m.bridgeSessions.Add(float64(delta))
	}
}

// RecordBridgeFrame records a processed bridge frame.
func (m *Metrics) RecordBridgeFrame(status string) {
	if m != nil {
		m.bridgeFrames.WithLabelValues(status).Inc()
	}
}
