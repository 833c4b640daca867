// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"context"
	"fmt"
	"path"
	"testing"

	"github.com/invowk/wheelwright/internal/archive"
	"github.com/invowk/wheelwright/internal/builder"
	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/internal/inclusion"
	"github.com/invowk/wheelwright/internal/testutil"
	"github.com/invowk/wheelwright/internal/walk"
	"github.com/invowk/wheelwright/pkg/pathspec"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

const sampleProject = `[project]
name = "bench-pkg"
version = "1.0.0"
description = "benchmark project"
requires-python = ">=3.9"
dependencies = ["requests>=2", "click"]

[project.optional-dependencies]
dev = ["pytest"]

[project.scripts]
bench = "bench_pkg.cli:main"

[tool.wheelwright.build]
exclude = ["*.log", "bench_pkg/**/fixtures/"]

[tool.wheelwright.build.targets.sdist]
support-legacy = true
`

// sampleTree returns a project with packages modules spread over a few
// nested packages, plus files the selection excludes.
func sampleTree(modules int) map[string]string {
	files := map[string]string{
		"pyproject.toml":        sampleProject,
		"LICENSE":               "MIT\n",
		".gitignore":            "build/\n*.tmp\n",
		"bench_pkg/__init__.py": "",
	}
	for i := range modules {
		pkg := fmt.Sprintf("bench_pkg/sub%d", i%8)
		files[pkg+"/__init__.py"] = ""
		files[path.Join(pkg, fmt.Sprintf("mod%03d.py", i))] = fmt.Sprintf("VALUE = %d\n", i)
		files[path.Join(pkg, "fixtures", fmt.Sprintf("f%03d.json", i))] = "{}\n"
		files[fmt.Sprintf("build/out%03d.tmp", i)] = "x"
	}
	return files
}

func setupProject(b *testing.B, modules int) *pyproject.File {
	b.Helper()
	root := b.TempDir()
	testutil.WriteFiles(b, root, sampleTree(modules))
	f, err := pyproject.Load(root)
	if err != nil {
		b.Fatalf("Load failed: %v", err)
	}
	return f
}

// BenchmarkLoadProject benchmarks reading and parsing pyproject.toml.
func BenchmarkLoadProject(b *testing.B) {
	f := setupProject(b, 1)

	b.ResetTimer()
	for b.Loop() {
		if _, err := pyproject.Load(f.Root); err != nil {
			b.Fatalf("Load failed: %v", err)
		}
	}
}

// BenchmarkSchemaValidation benchmarks the CUE check of the build table.
func BenchmarkSchemaValidation(b *testing.B) {
	f := setupProject(b, 1)
	build, err := config.SubTable(f.Tool(pyproject.ToolName), "build", config.BuildField)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for b.Loop() {
		if err := config.ValidateBuildTable(build); err != nil {
			b.Fatalf("ValidateBuildTable failed: %v", err)
		}
	}
}

// BenchmarkPathSpecMatch benchmarks matching paths against a typical
// exclusion list.
func BenchmarkPathSpecMatch(b *testing.B) {
	spec := pathspec.Compile([]string{"*.py[cdo]", "/dist", "build/", "**/fixtures/", "!keep.log", "*.log"})
	paths := make([]string, 0, 64)
	for i := range 64 {
		paths = append(paths, fmt.Sprintf("pkg/sub%d/mod%03d.py", i%8, i))
	}

	b.ResetTimer()
	for b.Loop() {
		for _, p := range paths {
			spec.Match(p)
		}
	}
}

// BenchmarkWalk benchmarks the file selection of a wheel.
func BenchmarkWalk(b *testing.B) {
	f := setupProject(b, 200)
	build, err := config.SubTable(f.Tool(pyproject.ToolName), "build", config.BuildField)
	if err != nil {
		b.Fatal(err)
	}
	c, err := inclusion.Resolve(f.Root, build, inclusion.Options{Target: "wheel"})
	if err != nil {
		b.Fatalf("Resolve failed: %v", err)
	}

	b.ResetTimer()
	for b.Loop() {
		for _, err := range walk.Files(c) {
			if err != nil {
				b.Fatalf("walk failed: %v", err)
			}
		}
	}
}

// BenchmarkHashBytes benchmarks the RECORD digest of a 64 KiB entry.
func BenchmarkHashBytes(b *testing.B) {
	data := make([]byte, 64<<10)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for b.Loop() {
		archive.HashBytes(data)
	}
}

func benchmarkTarget(b *testing.B, target string, versions ...string) {
	b.Helper()
	f := setupProject(b, 200)
	bld, err := builder.New(f, target, builder.Options{})
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	req := builder.Request{Directory: b.TempDir(), Versions: versions}

	b.ResetTimer()
	for b.Loop() {
		for _, err := range bld.Build(context.Background(), req) {
			if err != nil {
				b.Fatalf("Build failed: %v", err)
			}
		}
	}
}

// BenchmarkBuildSdist benchmarks a complete reproducible sdist build.
func BenchmarkBuildSdist(b *testing.B) { benchmarkTarget(b, "sdist") }

// BenchmarkBuildWheel benchmarks a complete reproducible wheel build.
func BenchmarkBuildWheel(b *testing.B) { benchmarkTarget(b, "wheel") }

// BenchmarkBuildEditable benchmarks an editable wheel build.
func BenchmarkBuildEditable(b *testing.B) {
	benchmarkTarget(b, "wheel", builder.VersionEditable)
}
