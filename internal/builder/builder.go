// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/wheelwright/internal/archive"
	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/internal/hooks"
	"github.com/invowk/wheelwright/internal/inclusion"
	"github.com/invowk/wheelwright/pkg/coremeta"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

// Build table keys read by the builder itself.
const (
	KeyVersions            = "versions"
	KeyCoreMetadataVersion = "core-metadata-version"
	KeyStrictNaming        = "strict-naming"
	KeyReproducible        = "reproducible"
	KeyDirectory           = "directory"
	KeyHooks               = "hooks"

	// DefaultDirectory is the output directory relative to the project root.
	DefaultDirectory = "dist"

	// VersionStandard is the regular build version of every target.
	VersionStandard = "standard"
)

type (
	// Options configure a Builder.
	Options struct {
		// Env holds the environment overrides. Nil means none.
		Env *config.Environment
		// Registry resolves hook names. Nil means hooks.DefaultRegistry().
		Registry *hooks.Registry
		// Logger receives progress messages. Nil discards them.
		Logger *log.Logger
		// Stdout and Stderr receive hook output.
		Stdout io.Writer
		Stderr io.Writer
		// Generator is recorded in wheel metadata, e.g. "wheelwright 1.2.0".
		Generator string
	}

	// Request selects what one Build call produces. The boolean switches are
	// combined with the matching environment overrides.
	Request struct {
		// Directory overrides the output directory.
		Directory string
		// Versions overrides the configured versions.
		Versions        []string
		HooksOnly       bool
		Clean           bool
		CleanHooksAfter bool
	}

	// Builder builds the artifacts of one target.
	Builder struct {
		name      string
		file      *pyproject.File
		project   *pyproject.Project
		target    target
		incl      *inclusion.Config
		env       *config.Environment
		registry  *hooks.Registry
		logger    *log.Logger
		stdout    io.Writer
		stderr    io.Writer
		generator string

		specs               []hooks.Spec
		reproducible        bool
		strictNaming        bool
		coreMetadataVersion string
	}

	// target is the format-specific part of a builder.
	target interface {
		// versions lists the supported versions; the first is the default.
		versions() []string
		extension() string
		// defaultSelection is used when the project configures no file selection.
		defaultSelection() (inclusion.Selection, error)
		// configure reads the target-specific options.
		configure() error
		// check rejects configurations the requested versions cannot build.
		check(versions []string) error
		// defaultBuildData seeds the build data before hooks run.
		defaultBuildData(version string, data *hooks.BuildData) error
		// buildInput is installed in the inclusion scope while building.
		buildInput(version string, data *hooks.BuildData) inclusion.BuildInput
		build(ctx context.Context, version, directory string, data *hooks.BuildData) (string, error)
	}
)

var targets = map[string]func(*Builder) target{
	"sdist": newSdist,
	"wheel": newWheel,
}

// Targets returns the names of the buildable targets in sorted order.
func Targets() []string {
	return config.SortedKeys(targets)
}

// New resolves the configuration of the named target. Every configuration
// error is reported here, before any hook runs or any file is written.
func New(file *pyproject.File, name string, opts Options) (*Builder, error) {
	newTarget, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownTarget, name, strings.Join(Targets(), ", "))
	}

	b := &Builder{
		name:      name,
		file:      file,
		project:   file.Project,
		env:       opts.Env,
		registry:  opts.Registry,
		logger:    opts.Logger,
		stdout:    opts.Stdout,
		stderr:    opts.Stderr,
		generator: opts.Generator,
	}
	if b.env == nil {
		b.env = config.NewEnvironment()
	}
	if b.registry == nil {
		b.registry = hooks.DefaultRegistry()
	}
	if b.logger == nil {
		b.logger = log.New(io.Discard)
	}
	if b.generator == "" {
		b.generator = "wheelwright"
	}
	b.target = newTarget(b)

	build, err := config.SubTable(file.Tool(pyproject.ToolName), "build", config.BuildField)
	if err != nil {
		return nil, err
	}
	b.incl, err = inclusion.Resolve(file.Root, build, inclusion.Options{
		Target:   name,
		Defaults: b.target.defaultSelection,
	})
	if err != nil {
		return nil, err
	}

	if err := b.resolveOptions(); err != nil {
		return nil, err
	}
	if err := b.target.configure(); err != nil {
		return nil, err
	}
	if err := b.resolveHooks(); err != nil {
		return nil, err
	}
	return b, nil
}

// Name returns the target name.
func (b *Builder) Name() string { return b.name }

// Project returns the project metadata.
func (b *Builder) Project() *pyproject.Project { return b.project }

// CoreMetadataVersion returns the configured core metadata version.
func (b *Builder) CoreMetadataVersion() string { return b.coreMetadataVersion }

// HookNames returns the enabled hooks in run order.
func (b *Builder) HookNames() []string {
	names := make([]string, len(b.specs))
	for i, s := range b.specs {
		names[i] = s.Name
	}
	return names
}

func (b *Builder) resolveOptions() error {
	var err error

	raw, field := b.incl.Option(KeyReproducible)
	if b.reproducible, err = config.Bool(raw, field, true); err != nil {
		return err
	}
	raw, field = b.incl.Option(KeyStrictNaming)
	if b.strictNaming, err = config.Bool(raw, field, true); err != nil {
		return err
	}
	raw, field = b.incl.TargetOption(KeyCoreMetadataVersion)
	if b.coreMetadataVersion, err = config.String(raw, field, coremeta.DefaultVersion); err != nil {
		return err
	}
	if err := coremeta.CheckVersion(b.coreMetadataVersion); err != nil {
		return fmt.Errorf("%w: field `%s`: %w", config.ErrInvalid, field, err)
	}
	return nil
}

// resolveHooks merges the global and target hook tables, drops disabled
// hooks and checks that every remaining name is registered.
func (b *Builder) resolveHooks() error {
	globalField := config.BuildField + "." + KeyHooks
	global, err := config.SubTable(b.incl.GlobalTable(), KeyHooks, globalField)
	if err != nil {
		return err
	}
	targetField := config.TargetField(b.name) + "." + KeyHooks
	local, err := config.SubTable(b.incl.TargetTable(), KeyHooks, targetField)
	if err != nil {
		return err
	}

	base := []string{"tool", pyproject.ToolName, "build"}
	specs := hooks.MergeConfig(
		hooks.Level{Table: global, Order: b.file.KeyOrder(append(slices.Clone(base), KeyHooks)...), Field: globalField},
		hooks.Level{Table: local, Order: b.file.KeyOrder(append(slices.Clone(base), "targets", b.name, KeyHooks)...), Field: targetField},
	)
	if b.specs, err = hooks.Enabled(specs, b.env); err != nil {
		return err
	}
	for _, s := range b.specs {
		if _, ok := b.registry.Get(s.Name); !ok {
			return &hooks.UnknownHookError{Name: s.Name, Field: s.Field}
		}
	}
	return nil
}

// Directory returns the absolute output directory. The first non-empty of
// override, WHEELWRIGHT_BUILD_LOCATION and the `directory` option wins; a
// relative result is always taken from the project root.
func (b *Builder) Directory(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = b.env.BuildLocation
	}
	if dir == "" {
		raw, field := b.incl.Option(KeyDirectory)
		var err error
		if dir, err = config.String(raw, field, DefaultDirectory); err != nil {
			return "", err
		}
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(b.file.Root, dir)
	}
	return filepath.Clean(dir), nil
}

// Versions returns the versions a request builds, validated against the
// versions the target supports.
func (b *Builder) Versions(requested []string) ([]string, error) {
	versions, field := requested, ""
	if len(versions) == 0 {
		raw, f := b.incl.TargetOption(KeyVersions)
		configured, err := config.StringList(raw, f, "Version")
		if err != nil {
			return nil, err
		}
		versions, field = configured, f
	}
	supported := b.target.versions()
	if len(versions) == 0 {
		return supported[:1], nil
	}

	out := make([]string, 0, len(versions))
	for i, v := range versions {
		if !slices.Contains(supported, v) {
			index := 0
			if field != "" {
				index = i + 1
			}
			return nil, &UnknownVersionError{Target: b.name, Version: v, Field: field, Index: index}
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// CheckVersions validates requested versions as Build would, without
// running hooks or touching the output directory.
func (b *Builder) CheckVersions(requested []string) error {
	versions, err := b.Versions(requested)
	if err != nil {
		return err
	}
	return b.target.check(versions)
}

// Build produces one artifact per version, in order. Versions and hooks are
// validated before the output directory is touched; the first error ends
// the sequence.
func (b *Builder) Build(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := b.build(ctx, req, yield); err != nil {
			yield("", err)
		}
	}
}

func (b *Builder) build(ctx context.Context, req Request, yield func(string, error) bool) error {
	versions, err := b.Versions(req.Versions)
	if err != nil {
		return err
	}
	if err := b.target.check(versions); err != nil {
		return err
	}
	dir, err := b.Directory(req.Directory)
	if err != nil {
		return err
	}
	runner, err := b.newRunner(dir)
	if err != nil {
		return err
	}

	hooksOnly := req.HooksOnly || b.env.HooksOnly
	clean := req.Clean || b.env.Clean
	cleanHooksAfter := req.CleanHooksAfter || b.env.CleanHooksAfter

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if clean {
		if !hooksOnly {
			if err := b.removeArtifacts(dir); err != nil {
				return err
			}
		}
		if err := runner.Clean(ctx, versions); err != nil {
			return err
		}
	}

	for _, version := range versions {
		b.logger.Debug("building", "target", b.name, "version", version)

		data := hooks.NewBuildData()
		data.BuildHooks = runner.Names()
		if err := b.target.defaultBuildData(version, data); err != nil {
			return err
		}
		b.logger.Debug("running hooks", "phase", "initialize", "hooks", data.BuildHooks)
		if err := runner.Initialize(ctx, version, data); err != nil {
			return err
		}
		if hooksOnly {
			continue
		}

		artifact, err := b.buildVersion(ctx, version, dir, data)
		if err != nil {
			return err
		}
		b.logger.Debug("artifact written", "path", artifact)

		b.logger.Debug("running hooks", "phase", "finalize", "hooks", data.BuildHooks)
		if err := runner.Finalize(ctx, version, data, artifact); err != nil {
			return err
		}
		if cleanHooksAfter {
			if err := runner.Clean(ctx, []string{version}); err != nil {
				return err
			}
		}
		if !yield(artifact, nil) {
			return nil
		}
	}
	return nil
}

func (b *Builder) buildVersion(ctx context.Context, version, dir string, data *hooks.BuildData) (string, error) {
	scope, err := b.incl.BeginBuild(b.target.buildInput(version, data))
	if err != nil {
		return "", err
	}
	defer scope.End()
	return b.target.build(ctx, version, dir, data)
}

// Clean removes previous artifacts of this target from the output directory
// and runs the clean phase of every hook.
func (b *Builder) Clean(ctx context.Context, directory string, versions []string) error {
	versions, err := b.Versions(versions)
	if err != nil {
		return err
	}
	dir, err := b.Directory(directory)
	if err != nil {
		return err
	}
	runner, err := b.newRunner(dir)
	if err != nil {
		return err
	}
	if err := b.removeArtifacts(dir); err != nil {
		return err
	}
	return runner.Clean(ctx, versions)
}

func (b *Builder) removeArtifacts(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), b.target.extension()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b.logger.Debug("removing artifact", "path", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

func (b *Builder) newRunner(dir string) (*hooks.Runner, error) {
	return hooks.NewRunner(b.registry, b.specs, hooks.Context{
		Root:      b.file.Root,
		Target:    b.name,
		Directory: dir,
		Project:   b.project,
		Stdout:    b.stdout,
		Stderr:    b.stderr,
		Logger:    b.logger,
	})
}

func (b *Builder) archiveOptions() archive.Options {
	return archive.Options{Reproducible: b.reproducible, Epoch: b.env.SourceDateEpoch}
}

// metadata renders the core metadata with the hook-supplied dependencies.
func (b *Builder) metadata(data *hooks.BuildData) ([]byte, error) {
	text, err := coremeta.Render(b.coreMetadataVersion, b.project, coremeta.Options{ExtraDependencies: data.Dependencies})
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// finishArchive runs fill and then moves the archive to dest, discarding it
// when fill fails.
func finishArchive(a archive.Writer, dest string, fill func() error) (string, error) {
	if err := fill(); err != nil {
		_ = a.Discard()
		return "", err
	}
	return a.Finish(dest)
}
