// SPDX-License-Identifier: MPL-2.0

// Package pathspec compiles gitignore-style pattern lists into matchers.
//
// Patterns follow gitignore semantics: a leading "/" anchors a pattern to the
// root, a trailing "/" restricts it to directories (and everything beneath
// them), "**" spans any number of path segments and a leading "!" negates a
// pattern. When several patterns match a path the last one wins.
//
// Paths handed to a Spec are always relative and slash-separated. A path with
// a trailing "/" is matched as a directory.
package pathspec
