// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation. They
// cover the hot paths of a build:
//   - pyproject.toml loading and build-table schema validation
//   - gitignore-style pattern matching
//   - file selection walks
//   - sdist and wheel archive writing, hashing included
//
// To generate a profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
