// SPDX-License-Identifier: MPL-2.0

// Package pyproject reads the project descriptor (pyproject.toml) and exposes
// the metadata a build needs: the normalized name, the resolved version, the
// dependency lists, the entry points, readme and license information, and the
// requires-python constraint.
//
// Descriptive fields are validated only as far as they are needed to label
// and describe an archive.
package pyproject
