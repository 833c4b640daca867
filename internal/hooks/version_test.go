// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

func versionContext(root string, cfg config.Table) Context {
	return Context{
		Name:    VersionHookName,
		Field:   "tool.wheelwright.build.hooks.version",
		Config:  cfg,
		Root:    root,
		Project: &pyproject.Project{Version: "2.5.0"},
	}
}

func TestVersionHookTemplate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	hook, err := NewVersionHook(versionContext(root, config.Table{
		"path":     "pkg/_version.py",
		"template": "VERSION = \"{version}\"\n",
	}))
	if err != nil {
		t.Fatal(err)
	}

	data := NewBuildData()
	if err := hook.Initialize(context.Background(), "standard", data); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(root, "pkg", "_version.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "VERSION = \"2.5.0\"\n" {
		t.Errorf("version file = %q", got)
	}
	if !slices.Equal(data.Artifacts, []string{"/pkg/_version.py"}) {
		t.Errorf("Artifacts = %v", data.Artifacts)
	}
}

func TestVersionHookTemplateKeepsUnchangedFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	hook, err := NewVersionHook(versionContext(root, config.Table{
		"path":     "pkg/_version.py",
		"template": "VERSION = \"{version}\"\n",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := hook.Initialize(context.Background(), "standard", NewBuildData()); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(root, "pkg", "_version.py")
	old := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if err := hook.Initialize(context.Background(), "standard", NewBuildData()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Errorf("unchanged version file rewritten, mtime = %v", info.ModTime())
	}

	if err := os.WriteFile(path, []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := hook.Initialize(context.Background(), "standard", NewBuildData()); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(path); string(got) != "VERSION = \"2.5.0\"\n" {
		t.Errorf("stale version file = %q", got)
	}
}

func TestVersionHookPattern(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "about.py")
	if err := os.WriteFile(path, []byte("# header\n__version__ = \"0.0.0\"\nother = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	hook, err := NewVersionHook(versionContext(root, config.Table{"path": "about.py", "pattern": true}))
	if err != nil {
		t.Fatal(err)
	}
	if err := hook.Initialize(context.Background(), "standard", NewBuildData()); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# header\n__version__ = \"2.5.0\"\nother = 1\n" {
		t.Errorf("version file = %q", got)
	}
}

func TestVersionHookConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.Table
	}{
		{name: "missing path", cfg: config.Table{}},
		{name: "path not a string", cfg: config.Table{"path": 1}},
		{name: "template and pattern", cfg: config.Table{"path": "v.py", "template": "x", "pattern": true}},
		{name: "bad pattern type", cfg: config.Table{"path": "v.py", "pattern": 3}},
		{name: "bad regex", cfg: config.Table{"path": "v.py", "pattern": "("}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewVersionHook(versionContext(t.TempDir(), tt.cfg)); err == nil {
				t.Error("NewVersionHook() returned no error")
			}
		})
	}

	_, err := NewVersionHook(versionContext(t.TempDir(), config.Table{}))
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("missing path error = %v, want config.ErrInvalid", err)
	}
}
