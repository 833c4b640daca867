// SPDX-License-Identifier: MPL-2.0

package coremeta

import (
	"strings"

	"github.com/invowk/wheelwright/pkg/pyproject"
)

// EntryPoints renders the entry-point manifest (entry_points.txt). Console
// and GUI scripts come first, then the remaining groups in name order. An
// empty string means the project declares no entry points.
func EntryPoints(p *pyproject.Project) string {
	var b strings.Builder
	section := func(name string, entries map[string]string) {
		if len(entries) == 0 {
			return
		}
		b.WriteString("\n[")
		b.WriteString(name)
		b.WriteString("]\n")
		for _, key := range sortedKeys(entries) {
			b.WriteString(key)
			b.WriteString(" = ")
			b.WriteString(entries[key])
			b.WriteString("\n")
		}
	}

	section("console_scripts", p.Scripts)
	section("gui_scripts", p.GUIScripts)
	for _, group := range sortedKeys(p.EntryPoints) {
		section(group, p.EntryPoints[group])
	}
	return strings.TrimLeft(b.String(), "\n")
}
