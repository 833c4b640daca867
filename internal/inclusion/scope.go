// SPDX-License-Identifier: MPL-2.0

package inclusion

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/invowk/wheelwright/pkg/pathspec"
)

// ErrBuildInProgress is returned by BeginBuild while another scope is open.
var ErrBuildInProgress = errors.New("a build is already in progress for this configuration")

type (
	// BuildInput is what a build pass contributes to the file selection.
	BuildInput struct {
		// Artifacts are patterns of generated files to include regardless of
		// the include and exclude specs.
		Artifacts []string
		// ForceInclude maps sources (absolute or root-relative) to destinations.
		ForceInclude map[string]string
		// Reserved are destinations the builder writes itself.
		Reserved []string
	}

	// BuildScope is the guard of one build pass. End must be called on every
	// exit path, typically with defer.
	BuildScope struct {
		c *Config
	}

	buildState struct {
		artifacts    *pathspec.Spec
		forceInclude InclusionMap
		reserved     map[string]bool
		// forced holds the destinations of files below forced directories.
		forced map[string]bool
	}
)

// BeginBuild installs the per-build artifact spec and force-include entries
// and computes the reserved destinations. Scopes never overlap.
func (c *Config) BeginBuild(in BuildInput) (*BuildScope, error) {
	if c.scope != nil {
		return nil, ErrBuildInProgress
	}

	state := &buildState{reserved: map[string]bool{}, forced: map[string]bool{}}
	if len(in.Artifacts) > 0 {
		state.artifacts = pathspec.Compile(in.Artifacts)
	}
	state.forceInclude = NormalizeInclusionMap(in.ForceInclude, c.root)

	// Forced sources inside the root are reserved where the generic walk
	// would ship them, so they are only written at their forced destination.
	// Every file below a forced directory reserves its own destination; the
	// directory destination stays open for the walk to fill. Forced files and
	// builder-written paths take precedence over forced directories.
	var claimed []string
	for _, m := range c.forceInclude.merge(state.forceInclude) {
		if info, err := os.Stat(m.Source); err != nil || !info.IsDir() {
			state.reserved[m.Dest] = true
			claimed = append(claimed, m.Dest)
		} else {
			for _, dest := range forcedDestinations(m) {
				state.reserved[dest] = true
				state.forced[dest] = true
			}
		}
		if rel, ok := relativeToRoot(m.Source, c.root); ok {
			state.reserved[c.DistributionPath(rel)] = true
		}
	}
	for _, r := range in.Reserved {
		dest := NormalizeRelativePath(r)
		state.reserved[dest] = true
		claimed = append(claimed, dest)
	}
	for _, dest := range claimed {
		delete(state.forced, dest)
	}

	c.scope = state
	return &BuildScope{c: c}, nil
}

// forcedDestinations lists where the files below the directory source of m
// are shipped. Unreadable entries are left to the walk to report.
func forcedDestinations(m Mapping) []string {
	top, err := filepath.EvalSymlinks(m.Source)
	if err != nil {
		return nil
	}
	var dests []string
	_ = filepath.WalkDir(top, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != top && ExcludedDirectories[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ExcludedFiles[d.Name()] {
			return nil
		}
		rel, err := filepath.Rel(top, p)
		if err != nil {
			return nil
		}
		dests = append(dests, path.Join(m.Dest, filepath.ToSlash(rel)))
		return nil
	})
	return dests
}

// End clears the build state. It is safe to call more than once.
func (s *BuildScope) End() {
	if s == nil || s.c == nil {
		return
	}
	s.c.scope = nil
	s.c = nil
}

// ForceInclude returns the static force-include map overlaid with the entries
// of the current build.
func (c *Config) ForceInclude() InclusionMap {
	if c.scope == nil {
		return c.forceInclude
	}
	return c.forceInclude.merge(c.scope.forceInclude)
}

// Reserve marks a destination as taken for the rest of the build.
func (c *Config) Reserve(dest string) {
	if c.scope != nil {
		c.scope.reserved[dest] = true
	}
}

// PathIsReserved reports whether the distribution path of rel is reserved.
func (c *Config) PathIsReserved(rel string) bool {
	return c.scope != nil && c.scope.reserved[c.DistributionPath(rel)]
}

// DestinationIsForced reports whether dest belongs to a file below a forced
// directory and was not claimed by the builder.
func (c *Config) DestinationIsForced(dest string) bool {
	return c.scope != nil && c.scope.forced[dest]
}

// DestinationIsReserved reports whether dest itself is reserved.
func (c *Config) DestinationIsReserved(dest string) bool {
	return c.scope != nil && c.scope.reserved[dest]
}
