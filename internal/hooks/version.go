// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

const (
	// VersionHookName is the registry name of the version hook.
	VersionHookName = "version"

	// DefaultVersionTemplate is written when neither template nor pattern is set.
	DefaultVersionTemplate = "# This file is generated by wheelwright at build time.\n__version__ = VERSION = '{version}'\n"

	versionPlaceholder = "{version}"
)

// versionHook writes the project version into a file and ships that file as
// a build artifact.
type versionHook struct {
	NopHook

	root     string
	path     string
	version  string
	template string
	source   *pyproject.VersionSource
}

// NewVersionHook is the Factory of the version hook. Options:
//
//	path     (required) file to write, relative to the project root
//	template content to write, "{version}" is substituted
//	pattern  true or a regular expression; update the version in place
func NewVersionHook(hc Context) (Hook, error) {
	path, err := config.String(hc.Config["path"], hc.Field+".path", "")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, config.Errorf(hc.Field+".path", 0, "Option `path` for build hook `%s` is required", hc.Name)
	}
	template, err := config.String(hc.Config["template"], hc.Field+".template", "")
	if err != nil {
		return nil, err
	}

	h := &versionHook{root: hc.Root, path: path, template: template}
	if hc.Project != nil {
		h.version = hc.Project.Version
	}

	switch pattern := hc.Config["pattern"].(type) {
	case nil:
	case bool:
		if pattern {
			if h.source, err = pyproject.NewVersionSource(path, ""); err != nil {
				return nil, err
			}
		}
	case string:
		if h.source, err = pyproject.NewVersionSource(path, pattern); err != nil {
			return nil, err
		}
	default:
		return nil, config.Errorf(hc.Field+".pattern", 0, "Option `pattern` for build hook `%s` must be a boolean or a string", hc.Name)
	}

	if h.source != nil && template != "" {
		return nil, config.Errorf(hc.Field, 0, "Build hook `%s` cannot use both `template` and `pattern`", hc.Name)
	}
	if h.template == "" {
		h.template = DefaultVersionTemplate
	}
	return h, nil
}

func (h *versionHook) Initialize(_ context.Context, _ string, data *BuildData) error {
	abs := filepath.Join(h.root, filepath.FromSlash(h.path))

	if h.source != nil {
		current, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("failed to read version file: %w", err)
		}
		start, end, _, ok := h.source.Find(string(current))
		if !ok {
			return fmt.Errorf("unable to locate the version in %s", h.path)
		}
		updated := string(current[:start]) + h.version + string(current[end:])
		if updated != string(current) {
			if err := os.WriteFile(abs, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("failed to write version file: %w", err)
			}
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("failed to create version file directory: %w", err)
		}
		content := strings.ReplaceAll(h.template, versionPlaceholder, h.version)
		// An unchanged file is left alone so watchers see no event.
		if current, err := os.ReadFile(abs); err != nil || string(current) != content {
			if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write version file: %w", err)
			}
		}
	}

	data.Artifacts = append(data.Artifacts, "/"+filepath.ToSlash(strings.TrimPrefix(h.path, "/")))
	return nil
}
