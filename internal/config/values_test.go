// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"slices"
	"testing"
)

func TestStringList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     any
		want    []string
		wantErr string
		index   int
	}{
		{name: "absent", raw: nil, want: nil},
		{name: "strings", raw: []any{"a", "b"}, want: []string{"a", "b"}},
		{name: "typed strings", raw: []string{"x"}, want: []string{"x"}},
		{name: "not an array", raw: "a", wantErr: "Field `tool.x.include` must be an array"},
		{name: "non string entry", raw: []any{"a", 3}, wantErr: "Pattern #2 in field `tool.x.include` must be a string", index: 2},
		{name: "empty entry", raw: []any{""}, wantErr: "Pattern #1 in field `tool.x.include` cannot be an empty string", index: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := StringList(tt.raw, "tool.x.include", "Pattern")
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("StringList() error = %v, want %q", err, tt.wantErr)
				}
				var fe *FieldError
				if !errors.As(err, &fe) {
					t.Fatalf("StringList() error is %T, want *FieldError", err)
				}
				if fe.Index != tt.index {
					t.Errorf("FieldError.Index = %d, want %d", fe.Index, tt.index)
				}
				if !errors.Is(err, ErrInvalid) {
					t.Error("errors.Is(err, ErrInvalid) = false")
				}
				return
			}
			if err != nil {
				t.Fatalf("StringList() unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("StringList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringMap(t *testing.T) {
	t.Parallel()

	got, err := StringMap(map[string]any{"b": "2", "a": "1"}, "f", "Source")
	if err != nil {
		t.Fatalf("StringMap() unexpected error: %v", err)
	}
	if got["a"] != "1" || got["b"] != "2" {
		t.Errorf("StringMap() = %v", got)
	}

	_, err = StringMap(map[string]any{"a": "1", "z": 5}, "f", "Source")
	if err == nil || err.Error() != "Destination for source `z` in field `f` must be a string" {
		t.Fatalf("StringMap() error = %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Index != 2 {
		t.Errorf("StringMap() error index = %+v, want 2", fe)
	}

	_, err = StringMap(map[string]string{"a": ""}, "f", "Source")
	if err == nil || err.Error() != "Destination for source `a` in field `f` cannot be an empty string" {
		t.Errorf("StringMap() error = %v", err)
	}

	if _, err = StringMap([]any{}, "f", "Source"); err == nil {
		t.Error("StringMap() accepted an array")
	}
}

func TestBoolAndString(t *testing.T) {
	t.Parallel()

	if b, err := Bool(nil, "f", true); err != nil || !b {
		t.Errorf("Bool(nil) = %v, %v", b, err)
	}
	if _, err := Bool("yes", "f", false); err == nil || err.Error() != "Field `f` must be a boolean" {
		t.Errorf("Bool(string) error = %v", err)
	}
	if s, err := String(nil, "f", "dist"); err != nil || s != "dist" {
		t.Errorf("String(nil) = %q, %v", s, err)
	}
	if _, err := String(1, "f", ""); err == nil {
		t.Error("String(int) returned no error")
	}
}

func TestSubTable(t *testing.T) {
	t.Parallel()

	tbl := Table{"build": map[string]any{"k": "v"}, "bad": 1}
	sub, err := SubTable(tbl, "build", "tool.build")
	if err != nil || sub["k"] != "v" {
		t.Fatalf("SubTable() = %v, %v", sub, err)
	}
	if sub, err = SubTable(tbl, "missing", "m"); err != nil || sub != nil {
		t.Errorf("SubTable(missing) = %v, %v", sub, err)
	}
	if _, err = SubTable(tbl, "bad", "bad"); err == nil {
		t.Error("SubTable(non-table) returned no error")
	}
}
