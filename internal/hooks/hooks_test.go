// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/invowk/wheelwright/internal/config"
)

type switches struct {
	disabled bool
	all      bool
	enabled  map[string]bool
}

func (s switches) HooksDisabled() bool          { return s.disabled }
func (s switches) AllHooksEnabled() bool        { return s.all }
func (s switches) HookEnabled(name string) bool { return s.enabled[name] }

// recordingHook appends "<name>:<phase>" to a shared log.
type recordingHook struct {
	name string
	log  *[]string
	fail string
}

func (h *recordingHook) record(phase string) error {
	*h.log = append(*h.log, h.name+":"+phase)
	if h.fail == phase {
		return errors.New("boom")
	}
	return nil
}

func (h *recordingHook) Initialize(_ context.Context, _ string, data *BuildData) error {
	data.Artifacts = append(data.Artifacts, h.name)
	return h.record("initialize")
}

func (h *recordingHook) Finalize(context.Context, string, *BuildData, string) error {
	return h.record("finalize")
}

func (h *recordingHook) Clean(context.Context, []string) error {
	return h.record("clean")
}

func specNames(specs []Spec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

func TestMergeConfig(t *testing.T) {
	t.Parallel()

	global := Level{
		Table: config.Table{
			"b": map[string]any{"from": "global"},
			"a": map[string]any{"from": "global"},
			"z": map[string]any{},
		},
		Order: []string{"b", "a"},
		Field: "tool.wheelwright.build.hooks",
	}
	target := Level{
		Table: config.Table{
			"a": map[string]any{"from": "target"},
			"c": map[string]any{},
		},
		Order: []string{"c", "a"},
		Field: "tool.wheelwright.build.targets.wheel.hooks",
	}

	specs := MergeConfig(global, target)
	if got, want := specNames(specs), []string{"b", "a", "z", "c"}; !slices.Equal(got, want) {
		t.Fatalf("MergeConfig() order = %v, want %v", got, want)
	}
	if specs[1].Config["from"] != "target" {
		t.Errorf("target hook did not override global: %v", specs[1].Config)
	}
	if specs[1].Field != "tool.wheelwright.build.targets.wheel.hooks.a" {
		t.Errorf("Field = %q", specs[1].Field)
	}
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	specs := []Spec{
		{Name: "on", Config: config.Table{}},
		{Name: "off", Config: config.Table{EnableByDefaultKey: false}},
	}

	tests := []struct {
		name string
		sw   Switches
		want []string
	}{
		{name: "defaults", sw: switches{}, want: []string{"on"}},
		{name: "nil switches", sw: nil, want: []string{"on"}},
		{name: "all enabled", sw: switches{all: true}, want: []string{"on", "off"}},
		{name: "one enabled", sw: switches{enabled: map[string]bool{"off": true}}, want: []string{"on", "off"}},
		{name: "disabled", sw: switches{disabled: true, all: true}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Enabled(specs, tt.sw)
			if err != nil {
				t.Fatal(err)
			}
			if names := specNames(got); !slices.Equal(names, tt.want) {
				t.Errorf("Enabled() = %v, want %v", names, tt.want)
			}
		})
	}

	_, err := Enabled([]Spec{{Name: "bad", Field: "f.bad", Config: config.Table{EnableByDefaultKey: "yes"}}}, nil)
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Enabled() error = %v, want config.ErrInvalid", err)
	}
}

func TestRunnerOrder(t *testing.T) {
	t.Parallel()

	var log []string
	reg := NewRegistry()
	for _, name := range []string{"first", "second"} {
		reg.Register(name, func(hc Context) (Hook, error) {
			return &recordingHook{name: hc.Name, log: &log}, nil
		})
	}

	runner, err := NewRunner(reg, []Spec{{Name: "second"}, {Name: "first"}}, Context{})
	if err != nil {
		t.Fatal(err)
	}
	if got := runner.Names(); !slices.Equal(got, []string{"second", "first"}) {
		t.Errorf("Names() = %v", got)
	}

	ctx := context.Background()
	data := NewBuildData()
	if err := runner.Initialize(ctx, "standard", data); err != nil {
		t.Fatal(err)
	}
	if err := runner.Finalize(ctx, "standard", data, "a.whl"); err != nil {
		t.Fatal(err)
	}
	if err := runner.Clean(ctx, []string{"standard"}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"second:initialize", "first:initialize",
		"second:finalize", "first:finalize",
		"second:clean", "first:clean",
	}
	if !slices.Equal(log, want) {
		t.Errorf("call log = %v, want %v", log, want)
	}
	if !slices.Equal(data.Artifacts, []string{"second", "first"}) {
		t.Errorf("Artifacts = %v", data.Artifacts)
	}
}

func TestRunnerStopsAtFirstError(t *testing.T) {
	t.Parallel()

	var log []string
	runner := &Runner{}
	runner.Add("bad", &recordingHook{name: "bad", log: &log, fail: "initialize"})
	runner.Add("never", &recordingHook{name: "never", log: &log})

	err := runner.Initialize(context.Background(), "standard", NewBuildData())
	if err == nil {
		t.Fatal("Initialize() returned no error")
	}
	if !slices.Equal(log, []string{"bad:initialize"}) {
		t.Errorf("call log = %v", log)
	}
}

func TestNewRunnerUnknownHook(t *testing.T) {
	t.Parallel()

	_, err := NewRunner(DefaultRegistry(), []Spec{{Name: "nope", Field: "tool.wheelwright.build.hooks.nope"}}, Context{})
	if !errors.Is(err, ErrUnknownHook) || !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("NewRunner() error = %v, want ErrUnknownHook", err)
	}
	if err.Error() != "Unknown build hook: nope" {
		t.Errorf("error message = %q", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	if got := DefaultRegistry().Names(); !slices.Equal(got, []string{ShellHookName, VersionHookName}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestHookErrorWrapping(t *testing.T) {
	t.Parallel()

	var log []string
	runner := &Runner{}
	runner.Add("bad", &recordingHook{name: "bad", log: &log, fail: "finalize"})

	err := runner.Finalize(context.Background(), "standard", NewBuildData(), "x.whl")
	var he *HookError
	if !errors.As(err, &he) || !errors.Is(err, ErrHookFailed) {
		t.Fatalf("Finalize() error = %v, want *HookError", err)
	}
	if he.Name != "bad" || he.Phase != "finalize" {
		t.Errorf("HookError = %+v", he)
	}
	if got, want := err.Error(), `build hook "bad" failed to finalize: boom`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
