// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

func shellContext(root string, cfg config.Table, stdout *bytes.Buffer) Context {
	return Context{
		Name:      ShellHookName,
		Field:     "tool.wheelwright.build.hooks.shell",
		Config:    cfg,
		Root:      root,
		Target:    "wheel",
		Directory: filepath.Join(root, "dist"),
		Project:   &pyproject.Project{Version: "1.0"},
		Stdout:    stdout,
	}
}

func TestShellHookLifecycle(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var out bytes.Buffer
	hook, err := NewShellHook(shellContext(root, config.Table{
		"commands": []any{
			`echo "init $WHEELWRIGHT_BUILD_TARGET $WHEELWRIGHT_BUILD_VERSION $GREETING"`,
			`echo generated > gen.txt`,
		},
		"finalize-commands": []any{`echo "final ${WHEELWRIGHT_BUILD_ARTIFACT##*/}"`},
		"clean-commands":    []any{`rm -f gen.txt`, `echo "clean $WHEELWRIGHT_BUILD_VERSIONS"`},
		"artifacts":         []any{"gen.txt"},
		"dependencies":      []any{"extra-dep>=1"},
		"env":               map[string]any{"GREETING": "hi"},
	}, &out))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	data := NewBuildData()
	if err := hook.Initialize(ctx, "standard", data); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "gen.txt")); err != nil {
		t.Errorf("command did not run in the project root: %v", err)
	}
	if !slices.Equal(data.Artifacts, []string{"gen.txt"}) || !slices.Equal(data.Dependencies, []string{"extra-dep>=1"}) {
		t.Errorf("build data = %+v", data)
	}

	if err := hook.Finalize(ctx, "standard", data, filepath.Join(root, "dist", "x.whl")); err != nil {
		t.Fatal(err)
	}
	if err := hook.Clean(ctx, []string{"standard", "editable"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "gen.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("clean command did not remove gen.txt: %v", err)
	}

	want := "init wheel standard hi\nfinal x.whl\nclean standard,editable\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestShellHookFailure(t *testing.T) {
	t.Parallel()

	hook, err := NewShellHook(shellContext(t.TempDir(), config.Table{
		"commands": []any{"exit 3", "echo unreachable"},
	}, &bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	err = hook.Initialize(context.Background(), "standard", NewBuildData())
	if err == nil || !strings.Contains(err.Error(), "exited with status 3") {
		t.Errorf("Initialize() error = %v", err)
	}
}

func TestShellHookSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := NewShellHook(shellContext(t.TempDir(), config.Table{
		"commands": []any{"echo ok", "if then fi ("},
	}, &bytes.Buffer{}))
	var fe *config.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("NewShellHook() error = %v, want *config.FieldError", err)
	}
	if fe.Index != 2 || fe.Field != "tool.wheelwright.build.hooks.shell.commands" {
		t.Errorf("FieldError = %+v", fe)
	}
}

func TestShellHookWorkDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	hook, err := NewShellHook(shellContext(root, config.Table{
		"commands": []any{": > marker"},
		"work-dir": "sub",
	}, &out))
	if err != nil {
		t.Fatal(err)
	}
	if err := hook.Initialize(context.Background(), "standard", NewBuildData()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "sub", "marker")); err != nil {
		t.Errorf("marker not created in work-dir: %v", err)
	}
}
