// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "pyproject.toml"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		err := FormatError(errors.New("some error"), "pyproject.toml")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "pyproject.toml") || !strings.Contains(err.Error(), "some error") {
			t.Errorf("unexpected message: %v", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{"empty path", []string{}, ""},
		{"single element", []string{"include"}, "include"},
		{"nested path", []string{"targets", "wheel", "reproducible"}, "targets.wheel.reproducible"},
		{"list index", []string{"targets", "sdist", "exclude", "2"}, "targets.sdist.exclude[2]"},
		{"leading number is a key", []string{"0", "a"}, "0.a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	t.Parallel()

	tests := []struct{ prefix, path, want string }{
		{"", "include[0]", "include[0]"},
		{"tool.x", "", "tool.x"},
		{"tool.x", "include[0]", "tool.x.include[0]"},
		{"tool.x", "[1]", "tool.x[1]"},
	}
	for _, tt := range tests {
		if got := joinPath(tt.prefix, tt.path); got != tt.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", tt.prefix, tt.path, got, tt.want)
		}
	}
}
