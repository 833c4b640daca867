// SPDX-License-Identifier: MPL-2.0

// Package config handles build configuration and environment overrides.
//
// The build table lives in pyproject.toml under [tool.wheelwright.build], with
// per-target tables under [tool.wheelwright.build.targets.<name>]. The table is
// validated against an embedded CUE schema (build_schema.cue) before any Go-side
// resolution, so type mismatches are reported with their exact field path.
//
// Environment overrides (SOURCE_DATE_EPOCH and the WHEELWRIGHT_BUILD_* family)
// are read through Viper.
package config
