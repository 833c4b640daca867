// SPDX-License-Identifier: MPL-2.0

// Package builder drives the build of one target (sdist or wheel): it
// resolves the versions to build and the output directory, runs the build
// hook lifecycle around each version, and writes the archives.
package builder
