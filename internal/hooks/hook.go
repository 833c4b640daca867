// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

type (
	// BuildData is the mutable record passed through the hooks of one build.
	// Hooks extend it during Initialize; the builder reads it afterwards.
	BuildData struct {
		// Artifacts are patterns of generated files to ship even when excluded.
		Artifacts []string
		// ForceInclude maps source paths to archive destinations.
		ForceInclude map[string]string
		// Dependencies are appended to the Requires-Dist list.
		Dependencies []string
		// PurePython marks the payload as platform independent.
		PurePython bool
		// Tag overrides the computed wheel tag.
		Tag string
		// BuildHooks lists the names of the configured hooks in run order.
		BuildHooks []string
		// SharedData maps sources into the wheel .data/data/ directory.
		SharedData map[string]string
		// ExtraMetadata maps sources into .dist-info/extra_metadata/.
		ExtraMetadata map[string]string
		// ForceIncludeEditable maps sources shipped by editable wheels.
		ForceIncludeEditable map[string]string
	}

	// Hook is one build step. Every method may return an error, which aborts
	// the build of the current version.
	Hook interface {
		// Initialize runs before the artifact of version is built.
		Initialize(ctx context.Context, version string, data *BuildData) error
		// Finalize runs after the artifact of version has been written.
		Finalize(ctx context.Context, version string, data *BuildData, artifact string) error
		// Clean removes whatever the hook produced for versions.
		Clean(ctx context.Context, versions []string) error
	}

	// Context is what a Factory receives to build its hook.
	Context struct {
		// Name is the hook name.
		Name string
		// Field is the dotted path of the hook table.
		Field string
		// Config is the hook table.
		Config config.Table
		// Root is the absolute project root.
		Root string
		// Target is the build target name.
		Target string
		// Directory is the absolute output directory.
		Directory string
		// Project is the project metadata.
		Project *pyproject.Project
		Stdout  io.Writer
		Stderr  io.Writer
		Logger  *log.Logger
	}

	// Factory creates a hook from its configuration. Configuration errors
	// must be reported here, before any hook runs.
	Factory func(hc Context) (Hook, error)
)

// NewBuildData returns an empty record with PurePython set.
func NewBuildData() *BuildData {
	return &BuildData{
		ForceInclude:         map[string]string{},
		PurePython:           true,
		SharedData:           map[string]string{},
		ExtraMetadata:        map[string]string{},
		ForceIncludeEditable: map[string]string{},
	}
}

// NopHook implements Hook with no-op methods. Embed it to implement only the
// phases a hook cares about.
type NopHook struct{}

// Initialize implements Hook.
func (NopHook) Initialize(context.Context, string, *BuildData) error { return nil }

// Finalize implements Hook.
func (NopHook) Finalize(context.Context, string, *BuildData, string) error { return nil }

// Clean implements Hook.
func (NopHook) Clean(context.Context, []string) error { return nil }
