// SPDX-License-Identifier: MPL-2.0

// Package coremeta renders project metadata into the versioned core metadata
// text format (PKG-INFO, METADATA) and into the entry-point manifest.
//
// Five format versions are supported: 1.2, 2.1, 2.2, 2.3 and 2.4. Each
// version emits a superset of the fields of the previous one, in a fixed
// order, so output is deterministic for a given project.
package coremeta
