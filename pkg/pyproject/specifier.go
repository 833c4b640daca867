// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// operators in match order: longer prefixes first.
var operators = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">"}

type (
	// Specifier is one version clause such as ">=3.8" or "==3.*".
	Specifier struct {
		Op       string
		Version  string
		release  []int
		wildcard bool
	}

	// SpecifierSet is a comma-separated conjunction of specifiers. The empty
	// set contains every version.
	SpecifierSet []Specifier
)

// ParseSpecifiers parses a requires-python style constraint. Only the release
// segment of each version is significant; pre, post and dev suffixes are
// ignored, which is sufficient for interpreter version probing.
func ParseSpecifiers(s string) (SpecifierSet, error) {
	var set SpecifierSet
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		spec, err := parseSpecifier(part)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

func parseSpecifier(s string) (Specifier, error) {
	for _, op := range operators {
		if !strings.HasPrefix(s, op) {
			continue
		}
		version := strings.TrimSpace(s[len(op):])
		spec := Specifier{Op: op, Version: version}
		if op == "===" {
			return spec, nil
		}

		if rest, ok := strings.CutSuffix(version, ".*"); ok {
			if op != "==" && op != "!=" {
				return Specifier{}, fmt.Errorf("invalid specifier %q: wildcard is only allowed with == and !=", s)
			}
			spec.wildcard = true
			version = rest
		}

		release, err := parseRelease(version)
		if err != nil {
			return Specifier{}, fmt.Errorf("invalid specifier %q: %w", s, err)
		}
		if op == "~=" && len(release) < 2 {
			return Specifier{}, fmt.Errorf("invalid specifier %q: ~= requires at least two release segments", s)
		}
		spec.release = release
		return spec, nil
	}
	return Specifier{}, fmt.Errorf("invalid specifier %q: missing comparison operator", s)
}

// parseRelease extracts the dotted numeric release segment, dropping an
// epoch-less "v" prefix and any trailing pre/post/dev/local suffix.
func parseRelease(v string) ([]int, error) {
	v = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), "v")
	end := 0
	for end < len(v) && (v[end] == '.' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	v = strings.TrimRight(v[:end], ".")
	if v == "" {
		return nil, errors.New("no release segment")
	}

	parts := strings.Split(v, ".")
	release := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad release segment %q", p)
		}
		release[i] = n
	}
	return release, nil
}

func compareRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := range n {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func hasPrefix(release, prefix []int) bool {
	for i, p := range prefix {
		var x int
		if i < len(release) {
			x = release[i]
		}
		if x != p {
			return false
		}
	}
	return true
}

// Contains reports whether version satisfies the specifier.
func (s Specifier) Contains(version string) bool {
	if s.Op == "===" {
		return strings.TrimSpace(version) == s.Version
	}
	release, err := parseRelease(version)
	if err != nil {
		return false
	}

	switch s.Op {
	case "==":
		if s.wildcard {
			return hasPrefix(release, s.release)
		}
		return compareRelease(release, s.release) == 0
	case "!=":
		if s.wildcard {
			return !hasPrefix(release, s.release)
		}
		return compareRelease(release, s.release) != 0
	case "<=":
		return compareRelease(release, s.release) <= 0
	case ">=":
		return compareRelease(release, s.release) >= 0
	case "<":
		return compareRelease(release, s.release) < 0
	case ">":
		return compareRelease(release, s.release) > 0
	case "~=":
		return compareRelease(release, s.release) >= 0 && hasPrefix(release, s.release[:len(s.release)-1])
	}
	return false
}

// Contains reports whether version satisfies every specifier of the set.
func (set SpecifierSet) Contains(version string) bool {
	for _, s := range set {
		if !s.Contains(version) {
			return false
		}
	}
	return true
}

// String renders the set in canonical comma-separated form.
func (set SpecifierSet) String() string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = s.Op + s.Version
	}
	return strings.Join(parts, ",")
}
