// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"slices"
)

func stringField(table map[string]any, key string) (string, error) {
	raw, ok := table[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", metadataErrorf("project."+key, "Field `project.%s` must be a string", key)
	}
	return s, nil
}

func stringList(table map[string]any, key string) ([]string, error) {
	return toStringList(table[key], "project."+key)
}

func toStringList(raw any, field string) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, metadataErrorf(field, "Field `%s` must be an array", field)
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, metadataErrorf(field, "Entry #%d of field `%s` must be a string", i+1, field)
		}
		out = append(out, s)
	}
	return out, nil
}

func stringTable(table map[string]any, key string) (map[string]string, error) {
	return toStringTable(table[key], "project."+key)
}

func toStringTable(raw any, field string) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, metadataErrorf(field, "Field `%s` must be a table", field)
	}
	out := make(map[string]string, len(table))
	for k, v := range table {
		s, ok := v.(string)
		if !ok {
			return nil, metadataErrorf(field, "Value of `%s` in field `%s` must be a string", k, field)
		}
		out[k] = s
	}
	return out, nil
}

func people(table map[string]any, key string) ([]Person, error) {
	field := "project." + key
	raw, ok := table[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, metadataErrorf(field, "Field `%s` must be an array", field)
	}
	out := make([]Person, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, metadataErrorf(field, "Entry #%d of field `%s` must be an inline table", i+1, field)
		}
		name, _ := entry["name"].(string)
		email, _ := entry["email"].(string)
		if name == "" && email == "" {
			return nil, metadataErrorf(field, "Entry #%d of field `%s` must have at least a `name` or an `email`", i+1, field)
		}
		out = append(out, Person{Name: name, Email: email})
	}
	return out, nil
}

func sortedUnique(items []string) []string {
	if len(items) == 0 {
		return items
	}
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
