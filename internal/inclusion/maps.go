// SPDX-License-Identifier: MPL-2.0

package inclusion

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type (
	// Mapping pairs a source path with its destination inside the archive.
	Mapping struct {
		// Source is absolute.
		Source string
		// Dest is relative and slash-separated.
		Dest string
	}

	// InclusionMap is an ordered list of mappings sorted by destination depth,
	// then destination, then source.
	InclusionMap []Mapping
)

// NormalizeInclusionMap resolves every source against root and orders the
// result deterministically.
func NormalizeInclusionMap(m map[string]string, root string) InclusionMap {
	out := make(InclusionMap, 0, len(m))
	for source, dest := range m {
		out = append(out, Mapping{Source: absSource(source, root), Dest: NormalizeRelativePath(dest)})
	}
	out.sort()
	return out
}

func (m InclusionMap) sort() {
	slices.SortFunc(m, func(a, b Mapping) int {
		return cmp.Or(
			cmp.Compare(strings.Count(a.Dest, "/"), strings.Count(b.Dest, "/")),
			cmp.Compare(a.Dest, b.Dest),
			cmp.Compare(a.Source, b.Source),
		)
	})
}

// merge returns m overlaid with other; entries of other win for equal sources.
func (m InclusionMap) merge(other InclusionMap) InclusionMap {
	if len(other) == 0 {
		return m
	}
	bySource := make(map[string]string, len(m)+len(other))
	for _, e := range m {
		bySource[e.Source] = e.Dest
	}
	for _, e := range other {
		bySource[e.Source] = e.Dest
	}
	out := make(InclusionMap, 0, len(bySource))
	for source, dest := range bySource {
		out = append(out, Mapping{Source: source, Dest: dest})
	}
	out.sort()
	return out
}

// NormalizeRelativePath cleans p, converts it to forward slashes and strips
// leading and trailing separators.
func NormalizeRelativePath(p string) string {
	p = filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
	if p == "." {
		return ""
	}
	return strings.Trim(p, "/")
}

// normalizeRelativeDirectory is NormalizeRelativePath with a trailing "/" for
// non-empty results.
func normalizeRelativeDirectory(p string) string {
	p = NormalizeRelativePath(p)
	if p == "" {
		return ""
	}
	return p + "/"
}

func absSource(source, root string) string {
	if strings.HasPrefix(source, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			source = filepath.Join(home, strings.TrimPrefix(source[1:], "/"))
		}
	}
	source = filepath.FromSlash(source)
	if !filepath.IsAbs(source) {
		source = filepath.Join(root, source)
	}
	return filepath.Clean(source)
}

// relativeToRoot returns the slash-separated path of abs under root, or
// ok=false when abs lies outside root.
func relativeToRoot(abs, root string) (string, bool) {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
