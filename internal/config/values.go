// SPDX-License-Identifier: MPL-2.0

package config

import (
	"slices"
	"strings"
)

// Table is a decoded TOML table.
type Table = map[string]any

// SubTable returns the table stored under key, or nil when absent.
func SubTable(t Table, key, field string) (Table, error) {
	raw, ok := t[key]
	if !ok || raw == nil {
		return nil, nil
	}
	sub, ok := raw.(map[string]any)
	if !ok {
		return nil, Errorf(field, 0, "Field `%s` must be a table", field)
	}
	return sub, nil
}

// StringList converts raw into a list of non-empty strings. noun names an
// entry in messages ("Pattern", "Path", "Package").
func StringList(raw any, field, noun string) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if strs, isStrs := raw.([]string); isStrs {
			items = make([]any, len(strs))
			for i, s := range strs {
				items[i] = s
			}
		} else {
			return nil, Errorf(field, 0, "Field `%s` must be an array", field)
		}
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, Errorf(field, i+1, "%s #%d in field `%s` must be a string", noun, i+1, field)
		}
		if s == "" {
			return nil, Errorf(field, i+1, "%s #%d in field `%s` cannot be an empty string", noun, i+1, field)
		}
		out = append(out, s)
	}
	return out, nil
}

// StringMap converts raw into a map of non-empty strings keyed by non-empty
// strings. Entries are validated in sorted key order so Index is stable.
func StringMap(raw any, field, noun string) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		if strs, isStrs := raw.(map[string]string); isStrs {
			return strs, validateStringMap(strs, field, noun)
		}
		return nil, Errorf(field, 0, "Field `%s` must be a table", field)
	}

	out := make(map[string]string, len(table))
	for i, key := range SortedKeys(table) {
		if key == "" {
			return nil, Errorf(field, i+1, "%s #%d in field `%s` cannot be an empty string", noun, i+1, field)
		}
		value, ok := table[key].(string)
		if !ok {
			return nil, Errorf(field, i+1, "Destination for %s `%s` in field `%s` must be a string",
				strings.ToLower(noun), key, field)
		}
		if value == "" {
			return nil, Errorf(field, i+1, "Destination for %s `%s` in field `%s` cannot be an empty string",
				strings.ToLower(noun), key, field)
		}
		out[key] = value
	}
	return out, nil
}

func validateStringMap(m map[string]string, field, noun string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for i, key := range keys {
		if key == "" {
			return Errorf(field, i+1, "%s #%d in field `%s` cannot be an empty string", noun, i+1, field)
		}
		if m[key] == "" {
			return Errorf(field, i+1, "Destination for %s `%s` in field `%s` cannot be an empty string",
				strings.ToLower(noun), key, field)
		}
	}
	return nil
}

// Bool converts raw into a boolean, returning def when raw is absent.
func Bool(raw any, field string, def bool) (bool, error) {
	if raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, Errorf(field, 0, "Field `%s` must be a boolean", field)
	}
	return b, nil
}

// String converts raw into a string, returning def when raw is absent.
func String(raw any, field, def string) (string, error) {
	if raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", Errorf(field, 0, "Field `%s` must be a string", field)
	}
	return s, nil
}

// SortedKeys returns the keys of t in lexical order.
func SortedKeys[V any](t map[string]V) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
