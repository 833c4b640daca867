// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"slices"

	"github.com/invowk/wheelwright/internal/config"
)

// EnableByDefaultKey disables a hook unless it is enabled from the environment.
const EnableByDefaultKey = "enable-by-default"

type (
	// Switches are the environment overrides that enable or disable hooks.
	Switches interface {
		HooksDisabled() bool
		AllHooksEnabled() bool
		HookEnabled(name string) bool
	}

	// Spec is one configured hook after merging.
	Spec struct {
		Name   string
		Field  string
		Config config.Table
	}

	// Level is the hooks table of one configuration level and the document
	// order of its keys.
	Level struct {
		Table config.Table
		Order []string
		Field string
	}
)

// MergeConfig combines the global and target hook tables. Global hooks keep
// their declaration order; a target hook with the same name replaces the
// global one in place and other target hooks follow.
func MergeConfig(global, target Level) []Spec {
	var specs []Spec
	index := map[string]int{}
	for _, level := range []Level{global, target} {
		for _, name := range orderedKeys(level.Table, level.Order) {
			table, _ := level.Table[name].(map[string]any)
			spec := Spec{Name: name, Field: level.Field + "." + name, Config: table}
			if i, ok := index[name]; ok {
				specs[i] = spec
				continue
			}
			index[name] = len(specs)
			specs = append(specs, spec)
		}
	}
	return specs
}

// orderedKeys lists the keys of table following order, then any key missing
// from order in sorted position.
func orderedKeys(table config.Table, order []string) []string {
	keys := make([]string, 0, len(table))
	for _, k := range order {
		if _, ok := table[k]; ok && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	for _, k := range config.SortedKeys(table) {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Enabled filters specs by their enable-by-default option and the
// environment switches.
func Enabled(specs []Spec, sw Switches) ([]Spec, error) {
	if sw != nil && sw.HooksDisabled() {
		return nil, nil
	}
	out := make([]Spec, 0, len(specs))
	for _, s := range specs {
		byDefault, err := config.Bool(s.Config[EnableByDefaultKey], s.Field+"."+EnableByDefaultKey, true)
		if err != nil {
			return nil, err
		}
		if byDefault || (sw != nil && (sw.AllHooksEnabled() || sw.HookEnabled(s.Name))) {
			out = append(out, s)
		}
	}
	return out, nil
}
