// SPDX-License-Identifier: MPL-2.0

// Package hooks defines the build hook contract and runs configured hooks.
//
// A hook is created by a Factory registered under its name. Hook tables are
// read from [tool.wheelwright.build.hooks.<name>] and
// [tool.wheelwright.build.targets.<target>.hooks.<name>]; global hooks run
// first in declaration order, then target hooks, with a target table
// replacing a global one of the same name in place.
//
// Two hooks are built in: "version" writes the project version into a file,
// and "shell" runs commands through an in-process POSIX shell.
package hooks
