// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestWriteFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteFiles(t, root, map[string]string{
		"pyproject.toml":      "[project]\n",
		"pkg/sub/__init__.py": "",
	})

	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[project]\n" {
		t.Errorf("pyproject.toml = %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, "pkg", "sub", "__init__.py")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
}

func TestNamesAndFind(t *testing.T) {
	t.Parallel()

	members := []Member{{Name: "a"}, {Name: "b", Data: []byte("x")}}
	if got := Names(members); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v", got)
	}
	if m, ok := Find(members, "b"); !ok || string(m.Data) != "x" {
		t.Errorf("Find(b) = %+v, %v", m, ok)
	}
	if _, ok := Find(members, "c"); ok {
		t.Error("Find(c) should report missing")
	}
}
