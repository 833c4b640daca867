// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/invowk/wheelwright/internal/config"
)

// ErrHookFailed is wrapped by every error a hook returns while running.
var ErrHookFailed = errors.New("build hook failed")

type (
	// HookError reports a hook that failed during one lifecycle phase.
	HookError struct {
		Name  string
		Phase string
		Err   error
	}

	// Runner invokes the lifecycle methods of a fixed, ordered hook list.
	Runner struct {
		hooks []namedHook
	}

	namedHook struct {
		name string
		hook Hook
	}
)

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("build hook %q failed to %s: %v", e.Name, e.Phase, e.Err)
}

// Unwrap returns ErrHookFailed and the hook's own error.
func (e *HookError) Unwrap() []error { return []error{ErrHookFailed, e.Err} }

// NewRunner instantiates every spec through the registry. base supplies the
// fields common to all hooks; Name, Field and Config are filled per spec.
func NewRunner(r *Registry, specs []Spec, base Context) (*Runner, error) {
	runner := &Runner{hooks: make([]namedHook, 0, len(specs))}
	for _, s := range specs {
		factory, ok := r.Get(s.Name)
		if !ok {
			return nil, &UnknownHookError{Name: s.Name, Field: s.Field}
		}
		hc := base
		hc.Name, hc.Field, hc.Config = s.Name, s.Field, s.Config
		if hc.Config == nil {
			hc.Config = config.Table{}
		}
		hook, err := factory(hc)
		if err != nil {
			return nil, err
		}
		runner.hooks = append(runner.hooks, namedHook{name: s.Name, hook: hook})
	}
	return runner, nil
}

// Add appends a hook after the configured ones.
func (r *Runner) Add(name string, h Hook) {
	r.hooks = append(r.hooks, namedHook{name: name, hook: h})
}

// Names returns the hook names in run order.
func (r *Runner) Names() []string {
	names := make([]string, len(r.hooks))
	for i, h := range r.hooks {
		names[i] = h.name
	}
	return names
}

// Initialize runs every hook's Initialize in order, stopping at the first error.
func (r *Runner) Initialize(ctx context.Context, version string, data *BuildData) error {
	for _, h := range r.hooks {
		if err := h.hook.Initialize(ctx, version, data); err != nil {
			return &HookError{Name: h.name, Phase: "initialize", Err: err}
		}
	}
	return nil
}

// Finalize runs every hook's Finalize in order, stopping at the first error.
func (r *Runner) Finalize(ctx context.Context, version string, data *BuildData, artifact string) error {
	for _, h := range r.hooks {
		if err := h.hook.Finalize(ctx, version, data, artifact); err != nil {
			return &HookError{Name: h.name, Phase: "finalize", Err: err}
		}
	}
	return nil
}

// Clean runs every hook's Clean in order, stopping at the first error.
func (r *Runner) Clean(ctx context.Context, versions []string) error {
	for _, h := range r.hooks {
		if err := h.hook.Clean(ctx, versions); err != nil {
			return &HookError{Name: h.name, Phase: "clean", Err: err}
		}
	}
	return nil
}
