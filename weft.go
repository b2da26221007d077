// Package weft provides the public API of the weft runtime: event
// delegation, mounting and hydration over an in-memory DOM.
//
// This is the recommended import for most applications:
//
//	import "github.com/weft-ui/weft"
//
// Usage:
//
//	doc, _ := dom.ParseDocument(strings.NewReader(page))
//	rt := weft.New(doc)
//	defer rt.Close()
//
//	h, err := rt.Hydrate(ctx, Counter, weft.Options{Target: doc.Body().ByAttr("id", "app")})
package weft

import (
	"github.com/weft-ui/weft/internal/config"
	"github.com/weft-ui/weft/pkg/delegate"
	"github.com/weft-ui/weft/pkg/mount"
)

// =============================================================================
// Components (re-export from pkg/mount)
// =============================================================================

// Component renders into the region before anchor and returns its exports.
type Component = mount.Component

// Scope is what a component sees while it renders.
type Scope = mount.Scope

// Options are the mount options.
type Options = mount.Options

// Props are the inputs passed to a component.
type Props = mount.Props

// Exports is the object a component returns to its mounter.
type Exports = mount.Exports

// Events are component event callbacks passed under EventsKey.
type Events = mount.Events

// Handle identifies a mounted component.
type Handle = mount.Handle

// State is the runtime's hydration state.
type State = mount.State

// EventsKey is the props key under which Options.Events is passed.
const EventsKey = mount.EventsKey

// HandleKey is the exports key holding the handle id.
const HandleKey = mount.HandleKey

// Bool returns a pointer to v, for Options.Intro and Options.Recover.
var Bool = mount.Bool

// =============================================================================
// Errors (re-export from pkg/mount)
// =============================================================================

var (
	ErrNoTarget            = mount.ErrNoTarget
	ErrHydrationMismatch   = mount.ErrHydrationMismatch
	ErrHydrationFailed     = mount.ErrHydrationFailed
	ErrHydrationInProgress = mount.ErrHydrationInProgress
)

// =============================================================================
// Handlers (re-export from pkg/delegate)
// =============================================================================

// HandlerFunc is a delegated event handler.
type HandlerFunc = delegate.HandlerFunc

// Handler is a handler slot value: a function, or a function with bound
// arguments.
type Handler = delegate.Handler

// Direct wraps fn as a handler slot value.
var Direct = delegate.Direct

// Bound wraps fn with arguments passed after the event.
var Bound = delegate.Bound

// ListenerOptions configures Scope.On.
type ListenerOptions = delegate.Options

// =============================================================================
// Configuration (re-export from internal/config)
// =============================================================================

// Config is the weft.yaml configuration.
type Config = config.Config

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config { return config.New() }

// LoadConfig reads weft.yaml from dir, if present, and applies WEFT_*
// environment overrides.
func LoadConfig(dir string) (*Config, error) { return config.Load(dir) }
