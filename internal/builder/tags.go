// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/invowk/wheelwright/pkg/pyproject"
)

// knownMajors are the Python major versions a pure wheel can target.
var knownMajors = []int{2, 3}

// defaultTag returns "py{majors}-none-any" for the majors that satisfy the
// project's requires-python.
func defaultTag(p *pyproject.Project) (string, error) {
	var supported []string
	for _, major := range knownMajors {
		if supportsMajor(p.PythonConstraint, major) {
			supported = append(supported, fmt.Sprintf("py%d", major))
		}
	}
	if len(supported) == 0 {
		return "", fmt.Errorf("requires-python `%s` matches no known Python version", p.RequiresPython)
	}
	return strings.Join(supported, ".") + "-none-any", nil
}

// supportsMajor probes major.minor first and falls back to every
// major.minor.patch, for constraints pinned to a patch release.
func supportsMajor(constraint pyproject.SpecifierSet, major int) bool {
	for minor := range 100 {
		if constraint.Contains(fmt.Sprintf("%d.%d", major, minor)) {
			return true
		}
	}
	for minor := range 100 {
		for patch := range 100 {
			if constraint.Contains(fmt.Sprintf("%d.%d.%d", major, minor, patch)) {
				return true
			}
		}
	}
	return false
}

// expandTag expands a compressed tag set such as "py2.py3-none-any" into
// its individual tags, sorted.
func expandTag(tag string) ([]string, error) {
	parts := strings.Split(tag, "-")
	if len(parts) != 3 || slices.Contains(parts, "") {
		return nil, fmt.Errorf("invalid wheel tag `%s`", tag)
	}
	var tags []string
	for _, interpreter := range strings.Split(parts[0], ".") {
		for _, abi := range strings.Split(parts[1], ".") {
			for _, platform := range strings.Split(parts[2], ".") {
				tags = append(tags, interpreter+"-"+abi+"-"+platform)
			}
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags), nil
}
