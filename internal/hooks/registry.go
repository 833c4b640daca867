// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"errors"
	"slices"

	"github.com/invowk/wheelwright/internal/config"
)

// ErrUnknownHook is returned when a configured hook has no registered factory.
var ErrUnknownHook = errors.New("unknown build hook")

// UnknownHookError reports a hook table whose name has no factory.
type UnknownHookError struct {
	Name  string
	Field string
}

// Error implements the error interface.
func (e *UnknownHookError) Error() string { return "Unknown build hook: " + e.Name }

// Unwrap returns ErrUnknownHook and config.ErrInvalid for errors.Is() compatibility.
func (e *UnknownHookError) Unwrap() []error { return []error{ErrUnknownHook, config.ErrInvalid} }

// Registry maps hook names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding the built-in hooks.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(VersionHookName, NewVersionHook)
	r.Register(ShellHookName, NewShellHook)
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get returns the factory for name.
func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered hook names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
