// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test fixtures: project trees written to disk,
// readers that list the members of built archives, and environment helpers
// that restore their changes.
package testutil
