// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates decoded configuration against embedded CUE schemas.
//
// Configuration is decoded from its native format (TOML for pyproject.toml)
// into plain Go values first. Validate encodes those values into CUE, unifies
// them with a definition from the schema and reports every violation with a
// path in dotted/indexed notation:
//
//	//go:embed build_schema.cue
//	var buildSchema []byte
//
//	err := cueutil.Validate(buildSchema, "#Build", table,
//	    cueutil.WithFilename("pyproject.toml"),
//	    cueutil.WithPathPrefix("tool.wheelwright.build"),
//	)
package cueutil
