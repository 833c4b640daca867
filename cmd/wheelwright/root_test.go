// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/wheelwright/internal/builder"
	"github.com/invowk/wheelwright/internal/hooks"
	"github.com/invowk/wheelwright/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got := getVersionString(); got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestParseTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		values  []string
		want    []targetSpec
		wantErr bool
	}{
		{name: "default", want: []targetSpec{{name: "sdist"}, {name: "wheel"}}},
		{name: "plain", values: []string{"wheel"}, want: []targetSpec{{name: "wheel"}}},
		{
			name:   "versions",
			values: []string{"wheel:standard, editable"},
			want:   []targetSpec{{name: "wheel", versions: []string{"standard", "editable"}}},
		},
		{
			name:   "merged",
			values: []string{"wheel:standard", "sdist", "wheel:editable"},
			want:   []targetSpec{{name: "wheel", versions: []string{"standard", "editable"}}, {name: "sdist"}},
		},
		{name: "empty name", values: []string{":standard"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseTargets(tt.values)
			if tt.wantErr {
				if !errors.Is(err, builder.ErrUnknownTarget) {
					t.Errorf("parseTargets() error = %v, want ErrUnknownTarget", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTargets() unexpected error: %v", err)
			}
			if !slices.EqualFunc(got, tt.want, func(a, b targetSpec) bool {
				return a.name == b.name && slices.Equal(a.versions, b.versions)
			}) {
				t.Errorf("parseTargets() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDisplayError(t *testing.T) {
	t.Parallel()

	hookErr := &hooks.HookError{Name: "shell", Phase: "initialize", Err: errors.New("exit status 2")}
	err := fail(hookErr, "build target wheel", "/src/demo")

	var quiet bytes.Buffer
	displayError(&quiet, err, false)
	out := quiet.String()
	if !strings.Contains(out, "failed to build target wheel: /src/demo: build hook \"shell\" failed to initialize: exit status 2") {
		t.Errorf("displayError() = %q", out)
	}
	if strings.Contains(out, "Error chain:") {
		t.Error("non-verbose output includes the error chain")
	}

	var verbose bytes.Buffer
	displayError(&verbose, err, true)
	if !strings.Contains(verbose.String(), "Error chain:") {
		t.Errorf("verbose output lacks the error chain: %q", verbose.String())
	}
	if issue.Match(hookErr) == nil {
		t.Fatal("hook failures should match a catalog issue")
	}
	if verbose.Len() <= quiet.Len() {
		t.Error("verbose output should add the catalog explanation")
	}
}

func TestDisplayErrorSilentExit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	displayError(&buf, &ExitError{Code: 3}, true)
	if buf.Len() != 0 {
		t.Errorf("displayError() printed %q for a bare exit code", buf.String())
	}
}
