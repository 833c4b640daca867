// SPDX-License-Identifier: MPL-2.0

// Package issue turns build failures into user-facing messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions. The Issue catalog maps the sentinel errors of the build
// packages to Markdown guidance rendered for the terminal.
package issue
