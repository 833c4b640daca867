// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for wheelwright.
//
// This package implements the Cobra command hierarchy of the wheelwright
// CLI: building and cleaning source and binary distributions, printing the
// core metadata of a project and printing its version.
package cmd
