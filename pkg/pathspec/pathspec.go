// SPDX-License-Identifier: MPL-2.0

package pathspec

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const commentPrefix = "#"

// Spec is a compiled, immutable list of gitignore-style patterns.
// The zero value and a nil *Spec match nothing.
type Spec struct {
	patterns []string
	matcher  gitignore.Matcher
}

// Compile builds a Spec from pattern lines. Blank lines and comments are
// skipped, trailing line terminators are dropped. The returned Spec keeps its
// own copy of the accepted patterns.
func Compile(lines []string) *Spec {
	s := &Spec{}
	parsed := make([]gitignore.Pattern, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		s.patterns = append(s.patterns, line)
		parsed = append(parsed, gitignore.ParsePattern(line, nil))
	}
	s.matcher = gitignore.NewMatcher(parsed)
	return s
}

// Patterns returns the accepted patterns in declaration order.
func (s *Spec) Patterns() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.patterns)
}

// Empty reports whether the Spec holds no patterns.
func (s *Spec) Empty() bool {
	return s == nil || len(s.patterns) == 0
}

// Match reports whether relPath is selected by the Spec. A trailing "/" marks
// relPath as a directory.
func (s *Spec) Match(relPath string) bool {
	if s.Empty() {
		return false
	}
	parts, isDir := split(relPath)
	if len(parts) == 0 {
		return false
	}
	return s.matcher.Match(parts, isDir)
}

// MatchDir reports whether the directory relPath is selected by the Spec.
func (s *Spec) MatchDir(relPath string) bool {
	return s.Match(strings.TrimSuffix(relPath, "/") + "/")
}

func split(relPath string) ([]string, bool) {
	p := filepath.ToSlash(relPath)
	isDir := strings.HasSuffix(p, "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return nil, isDir
	}
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out, isDir
}
