// SPDX-License-Identifier: MPL-2.0

package inclusion

import "path"

var (
	// ExcludedDirectories are never entered by any walk.
	ExcludedDirectories = map[string]bool{
		".git":          true,
		".hg":           true,
		".svn":          true,
		".bzr":          true,
		".nox":          true,
		".tox":          true,
		".direnv":       true,
		".venv":         true,
		"venv":          true,
		".mypy_cache":   true,
		".pytest_cache": true,
		".ruff_cache":   true,
		".pixi":         true,
		"__pycache__":   true,
	}

	// ExcludedFiles are never shipped.
	ExcludedFiles = map[string]bool{
		".DS_Store": true,
	}
)

// ShouldInclude decides whether the root-relative path rel is shipped.
//
// Artifact patterns (build-time first, then static) win over everything.
// Otherwise the path is rejected when only-packages is set and it is not in a
// package, when its destination is reserved, or when it is excluded; it is
// then included if explicit or matched by the include spec.
func (c *Config) ShouldInclude(rel string, explicit, isPackage bool) bool {
	if c.PathIsBuildArtifact(rel) || c.PathIsArtifact(rel) {
		return true
	}
	if c.onlyPackages && !isPackage {
		return false
	}
	if c.PathIsReserved(rel) || c.PathIsExcluded(rel) {
		return false
	}
	return explicit || c.PathIsIncluded(rel)
}

// DirectoryShouldBePruned reports whether the walk can skip directory name
// under the root-relative parent. It only prunes what ShouldInclude would
// reject anyway (or the always-excluded directories).
func (c *Config) DirectoryShouldBePruned(name, parent string) bool {
	if ExcludedDirectories[name] {
		return true
	}
	rel := path.Join(parent, name)
	if c.PathIsReserved(rel) {
		return true
	}
	return c.skipExcludedDirs && c.PathIsExcluded(rel+"/")
}

// PathIsIncluded reports whether rel matches the include spec. A missing
// include spec matches everything.
func (c *Config) PathIsIncluded(rel string) bool {
	return c.include == nil || c.include.Match(rel)
}

// PathIsExcluded reports whether rel matches the exclude spec.
func (c *Config) PathIsExcluded(rel string) bool {
	return c.exclude.Match(rel)
}

// PathIsArtifact reports whether rel matches the static artifact spec.
func (c *Config) PathIsArtifact(rel string) bool {
	return c.artifacts.Match(rel)
}

// PathIsBuildArtifact reports whether rel matches the artifact patterns of
// the build in progress.
func (c *Config) PathIsBuildArtifact(rel string) bool {
	return c.scope != nil && c.scope.artifacts.Match(rel)
}
