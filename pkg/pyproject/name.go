// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"regexp"
	"strings"
)

var (
	separatorRun = regexp.MustCompile(`[-_.]+`)
	validName    = regexp.MustCompile(`(?i)^([A-Z0-9]|[A-Z0-9][A-Z0-9._-]*[A-Z0-9])$`)
	nonWordRun   = regexp.MustCompile(`[^\w\d.]+`)
)

// NormalizeName lowercases name and collapses every run of "-", "_" and "."
// into a single "-".
func NormalizeName(name string) string {
	return strings.ToLower(separatorRun.ReplaceAllString(name, "-"))
}

// IsValidName reports whether name is an acceptable project name.
func IsValidName(name string) bool {
	return validName.MatchString(name)
}

// FileNameComponent escapes s for use in a distribution file name: every run
// of characters other than letters, digits and "." becomes "_".
func FileNameComponent(s string) string {
	return nonWordRun.ReplaceAllString(s, "_")
}

// NormalizeExtra normalizes the name of an optional-dependency group.
func NormalizeExtra(name string) string {
	return NormalizeName(name)
}
