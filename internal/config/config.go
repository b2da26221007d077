package config

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/weft-ui/weft/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "weft.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "WEFT_"

	// DefaultAddr is the default event bridge listen address.
	DefaultAddr = "127.0.0.1:7420"

	// StartMarker and EndMarker are the comment payloads bracketing a
	// server-rendered region.
	StartMarker = "["
	EndMarker   = "]"
)

// DefaultEvents are the event types delegated for every mount.
var DefaultEvents = []string{
	"beforeinput", "click", "change", "dblclick", "contextmenu",
	"focusin", "focusout", "input", "keydown", "keyup",
	"mousedown", "mousemove", "mouseout", "mouseover", "mouseup",
	"pointerdown", "pointermove", "pointerout", "pointerover", "pointerup",
	"touchend", "touchmove", "touchstart",
}

// Config represents the weft.yaml configuration.
type Config struct {
	// Delegation configures the event delegation registry.
	Delegation DelegationConfig `yaml:"delegation" envPrefix:"DELEGATION_"`

	// Hydration configures Mount and Hydrate.
	Hydration HydrationConfig `yaml:"hydration" envPrefix:"HYDRATION_"`

	// Bridge configures the websocket event bridge.
	Bridge BridgeConfig `yaml:"bridge" envPrefix:"BRIDGE_"`

	// Metrics configures the Prometheus collectors.
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log" envPrefix:"LOG_"`

	// Tracing configures the OpenTelemetry exporter.
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DelegationConfig contains event delegation settings.
type DelegationConfig struct {
	// DefaultEvents are delegated once when a runtime starts.
	DefaultEvents []string `yaml:"defaultEvents" env:"DEFAULT_EVENTS" envSeparator:","`

	// PassiveEvents get passive native listeners.
	PassiveEvents []string `yaml:"passiveEvents" env:"PASSIVE_EVENTS" envSeparator:","`
}

// HydrationConfig contains mount and hydration settings.
type HydrationConfig struct {
	// Recover falls back to a fresh mount when hydration fails.
	Recover bool `yaml:"recover" env:"RECOVER"`

	// StartMarker is the payload of the comment opening a region.
	StartMarker string `yaml:"startMarker" env:"START_MARKER"`

	// EndMarker is the payload of the comment closing a region.
	EndMarker string `yaml:"endMarker" env:"END_MARKER"`
}

// BridgeConfig contains event bridge server settings.
type BridgeConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" env:"ADDR"`

	// ReadLimit is the maximum frame size in bytes.
	ReadLimit int64 `yaml:"readLimit" env:"READ_LIMIT"`

	// WriteTimeout bounds each reply write.
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"WRITE_TIMEOUT"`

	// AllowedOrigins restricts websocket upgrades. Empty allows same-origin
	// requests only.
	AllowedOrigins []string `yaml:"allowedOrigins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the collectors and serves /metrics.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`

	// Format is text or json.
	Format string `yaml:"format" env:"FORMAT"`
}

// TracingConfig contains OpenTelemetry settings. Tracing is off unless
// an endpoint is set.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector URL, e.g. http://localhost:4318.
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"serviceName" env:"SERVICE_NAME"`

	// SampleRatio is the fraction of traces sampled, between 0 and 1.
	SampleRatio float64 `yaml:"sampleRatio" env:"SAMPLE_RATIO"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Delegation: DelegationConfig{
			DefaultEvents: append([]string(nil), DefaultEvents...),
			PassiveEvents: []string{"touchstart", "touchmove", "wheel"},
		},
		Hydration: HydrationConfig{
			Recover:     true,
			StartMarker: StartMarker,
			EndMarker:   EndMarker,
		},
		Bridge: BridgeConfig{
			Addr:         DefaultAddr,
			ReadLimit:    64 << 10,
			WriteTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "weft",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			ServiceName: "weft",
			SampleRatio: 1,
		},
	}
}

// Load reads weft.yaml from dir if present, then applies WEFT_*
// environment overrides and validates the result. A missing file yields
// the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	cfg, err := LoadFile(path)
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = New()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified YAML file. Fields the
// file leaves out keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("W101").
			WithAttr("path", path).
			Wrap(err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("W101").
			WithAttr("path", path).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML").
			Wrap(err)
	}

	cfg.configPath = path
	return cfg, nil
}

// ApplyEnv overrides fields from WEFT_* environment variables, e.g.
// WEFT_BRIDGE_ADDR or WEFT_DELEGATION_DEFAULT_EVENTS=click,input.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("W102").Wrap(fmt.Errorf("parse env: %w", err))
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(field, detail string) error {
		return errors.New("W100").
			WithAttr("field", field).
			WithDetail(detail)
	}

	for _, t := range c.Delegation.DefaultEvents {
		if strings.TrimSpace(t) == "" {
			return invalid("delegation.defaultEvents", "Event types must not be empty.")
		}
	}
	if c.Hydration.StartMarker == "" || c.Hydration.EndMarker == "" {
		return invalid("hydration", "Both region markers must be set.")
	}
	if c.Hydration.StartMarker == c.Hydration.EndMarker {
		return invalid("hydration", "The start and end markers must differ.")
	}
	if c.Bridge.ReadLimit <= 0 {
		return invalid("bridge.readLimit", "The frame size limit must be positive.")
	}
	if c.Bridge.WriteTimeout <= 0 {
		return invalid("bridge.writeTimeout", "The write timeout must be positive.")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid("log.level", err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format", "The log format must be text or json.")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return invalid("tracing.sampleRatio", "The sample ratio must be between 0 and 1.")
	}
	return nil
}

// NewLogger builds the slog logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
