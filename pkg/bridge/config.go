package bridge

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weft-ui/weft/pkg/metrics"
)

// Config configures the event bridge server.
type Config struct {
	// Addr is the listen address used by ListenAndServe.
	Addr string

	// ReadLimit is the maximum frame size in bytes.
	// Default: 64KB.
	ReadLimit int64

	// ReadTimeout closes connections idle for longer than this.
	// Default: 60s.
	ReadTimeout time.Duration

	// WriteTimeout bounds each reply write.
	// Default: 10s.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s.
	ShutdownTimeout time.Duration

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates websocket upgrade origins.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Logger receives session and frame logs.
	// Default: slog.Default().
	Logger *slog.Logger

	// Metrics records sessions and frames. Nil disables recording.
	Metrics *metrics.Metrics

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:            "127.0.0.1:7420",
		ReadLimit:       64 << 10,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     SameOriginCheck,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Addr == "" {
		out.Addr = d.Addr
	}
	if out.ReadLimit <= 0 {
		out.ReadLimit = d.ReadLimit
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize <= 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}

// SameOriginCheck accepts upgrades whose Origin host matches the request
// host. Requests without an Origin header are accepted.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || r.Host == "" {
		return false
	}
	return u.Host == r.Host
}

// AllowOrigins returns a CheckOrigin that accepts the listed origins in
// addition to same-origin requests.
func AllowOrigins(origins ...string) func(r *http.Request) bool {
	allowed := slices.Clone(origins)
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}
