// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"slices"

	"github.com/pelletier/go-toml/v2/unstable"
)

// KeyOrder returns the keys of the table at path in the order they first
// appear in the document. Decoding into a map loses this order, which matters
// for tables whose entries run in sequence (build hooks).
func (f *File) KeyOrder(path ...string) []string {
	return keyOrder(f.raw, path)
}

func keyOrder(doc []byte, path []string) []string {
	var order []string
	seen := map[string]bool{}
	record := func(full []string) {
		if len(full) <= len(path) || !slices.Equal(full[:len(path)], path) {
			return
		}
		key := full[len(path)]
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}

	p := unstable.Parser{}
	p.Reset(doc)
	var current []string
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table, unstable.ArrayTable:
			current = keyParts(e.Key())
			record(current)
		case unstable.KeyValue:
			recordKeyValue(e, current, record)
		}
	}
	// Syntax errors were already reported by the decoder.
	return order
}

func recordKeyValue(kv *unstable.Node, prefix []string, record func([]string)) {
	full := append(slices.Clone(prefix), keyParts(kv.Key())...)
	record(full)

	value := kv.Value()
	if value == nil || value.Kind != unstable.InlineTable {
		return
	}
	children := value.Children()
	for children.Next() {
		child := children.Node()
		if child.Kind == unstable.KeyValue {
			recordKeyValue(child, full, record)
		}
	}
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}
