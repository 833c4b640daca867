// SPDX-License-Identifier: MPL-2.0

// Package inclusion decides which project files are shipped in an archive.
//
// A Config is resolved once per build target from the global and target
// levels of the build table. Resolution validates every option and compiles
// the include, exclude and artifact pattern specs up front, so configuration
// errors surface before any file is touched.
//
// The only mutable state is the per-build scope opened with BeginBuild: the
// artifact patterns and force-include entries contributed by build hooks and
// the set of reserved destination paths. End tears it down.
package inclusion
