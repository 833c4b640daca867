// SPDX-License-Identifier: MPL-2.0

package inclusion

import (
	"cmp"
	"slices"
	"strings"

	"github.com/invowk/wheelwright/internal/config"
)

// source is a path prefix rewrite. An empty prefix prepends replacement to
// every path.
type source struct {
	prefix      string
	replacement string
}

func (c *Config) resolveSources(Selection) error {
	raw, field := c.Option(KeySources)
	rewrites := map[string]string{}

	switch v := raw.(type) {
	case nil:
	case []any, []string:
		list, err := config.StringList(v, field, "Source")
		if err != nil {
			return err
		}
		for _, s := range list {
			rewrites[normalizeRelativeDirectory(s)] = ""
		}
	case map[string]any:
		for i, key := range config.SortedKeys(v) {
			replacement, ok := v[key].(string)
			if !ok {
				return config.Errorf(field, i+1, "Path for source `%s` in field `%s` must be a string", key, field)
			}
			rewrites[normalizeRelativeDirectory(key)] = normalizeRelativeDirectory(replacement)
		}
	default:
		return config.Errorf(field, 0, "Field `%s` must be a mapping or an array of strings", field)
	}

	// A package nested below a directory implies that directory is a source
	// root, so "src/foo" ships as "foo".
	for _, pkg := range c.packages {
		if i := strings.LastIndex(pkg, "/"); i > 0 {
			prefix := normalizeRelativeDirectory(pkg[:i])
			if _, ok := rewrites[prefix]; !ok {
				rewrites[prefix] = ""
			}
		}
	}

	c.sources = make([]source, 0, len(rewrites))
	for prefix, replacement := range rewrites {
		c.sources = append(c.sources, source{prefix: prefix, replacement: replacement})
	}
	slices.SortFunc(c.sources, func(a, b source) int {
		return cmp.Or(cmp.Compare(len(b.prefix), len(a.prefix)), cmp.Compare(a.prefix, b.prefix))
	})
	return nil
}

// DistributionPath rewrites a root-relative path with the longest matching
// source prefix; it returns the input when no prefix matches.
func (c *Config) DistributionPath(rel string) string {
	for _, s := range c.sources {
		if s.prefix == "" {
			return s.replacement + rel
		}
		if strings.HasPrefix(rel, s.prefix) {
			return s.replacement + rel[len(s.prefix):]
		}
	}
	return rel
}

// SourcesRewritePrefixes reports whether any source maps a prefix onto a
// non-empty replacement rather than removing it.
func (c *Config) SourcesRewritePrefixes() bool {
	for _, s := range c.sources {
		if s.replacement != "" {
			return true
		}
	}
	return false
}

// SourcePrefixes returns the configured source prefixes, longest first.
func (c *Config) SourcePrefixes() []string {
	out := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		out = append(out, s.prefix)
	}
	return out
}
