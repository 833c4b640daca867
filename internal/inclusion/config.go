// SPDX-License-Identifier: MPL-2.0

package inclusion

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/pkg/pathspec"
)

// Option keys shared by the global and target levels of the build table.
const (
	KeyInclude          = "include"
	KeyExclude          = "exclude"
	KeyArtifacts        = "artifacts"
	KeyPackages         = "packages"
	KeyOnlyInclude      = "only-include"
	KeySources          = "sources"
	KeyForceInclude     = "force-include"
	KeyOnlyPackages     = "only-packages"
	KeySkipExcludedDirs = "skip-excluded-dirs"
	KeyIgnoreVCS        = "ignore-vcs"
)

// DefaultGlobalExclude is always prepended to the exclude spec.
var DefaultGlobalExclude = []string{"*.py[cdo]", "/dist"}

type (
	// Selection is a default file selection supplied by a builder when the
	// project configures none of include, exclude, packages or only-include.
	Selection struct {
		Include     []string
		Exclude     []string
		Packages    []string
		OnlyInclude []string
	}

	// Options controls Resolve.
	Options struct {
		// Target names the build target ("wheel", "sdist").
		Target string
		// Defaults computes the default selection. It is only called when the
		// project leaves the file selection unconfigured.
		Defaults func() (Selection, error)
	}

	// Config is the resolved, immutable file-selection configuration of one
	// build target plus the transient state of the build in progress.
	Config struct {
		root   string
		target string
		global config.Table
		local  config.Table

		include   *pathspec.Spec
		exclude   *pathspec.Spec
		artifacts *pathspec.Spec

		packages         []string
		sources          []source
		onlyInclude      InclusionMap
		forceInclude     InclusionMap
		onlyPackages     bool
		skipExcludedDirs bool
		vcsFiles         []string

		scope *buildState
	}
)

// Resolve validates the build table and compiles the file selection of one
// target. build is the [tool.wheelwright.build] table; it may be nil.
func Resolve(root string, build config.Table, opts Options) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	if err := config.ValidateBuildTable(build); err != nil {
		return nil, err
	}

	c := &Config{root: absRoot, target: opts.Target, global: build}
	if opts.Target != "" {
		targets, err := config.SubTable(build, "targets", config.BuildField+".targets")
		if err != nil {
			return nil, err
		}
		if c.local, err = config.SubTable(targets, opts.Target, config.TargetField(opts.Target)); err != nil {
			return nil, err
		}
	}

	var defaults Selection
	if opts.Defaults != nil && !c.selectionConfigured() {
		if defaults, err = opts.Defaults(); err != nil {
			return nil, err
		}
	}

	steps := []func(Selection) error{
		c.resolveFlags,
		c.resolvePackages,
		c.resolveSources,
		c.resolveOnlyInclude,
		c.resolveForceInclude,
		c.resolveInclude,
		c.resolveExclude,
		c.resolveArtifacts,
	}
	for _, step := range steps {
		if err := step(defaults); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Root returns the absolute project root.
func (c *Config) Root() string { return c.root }

// Target returns the build target name.
func (c *Config) Target() string { return c.target }

// Packages returns the normalized package roots.
func (c *Config) Packages() []string { return c.packages }

// OnlyInclude returns the explicit inclusion map; when non-empty the walk is
// restricted to it.
func (c *Config) OnlyInclude() InclusionMap { return c.onlyInclude }

// VCSIgnoreFiles returns the absolute paths of the VCS ignore files whose
// patterns augment the exclude spec.
func (c *Config) VCSIgnoreFiles() []string { return c.vcsFiles }

// IncludeSpec returns the compiled include spec (nil matches everything).
func (c *Config) IncludeSpec() *pathspec.Spec { return c.include }

// ExcludeSpec returns the compiled exclude spec.
func (c *Config) ExcludeSpec() *pathspec.Spec { return c.exclude }

// Option returns the raw value of key at the target level, else at the
// global level, together with the dotted field path it came from.
func (c *Config) Option(key string) (value any, field string) {
	if v, ok := c.local[key]; ok {
		return v, config.TargetField(c.target) + "." + key
	}
	if v, ok := c.global[key]; ok {
		return v, config.BuildField + "." + key
	}
	if c.target != "" {
		return nil, config.TargetField(c.target) + "." + key
	}
	return nil, config.BuildField + "." + key
}

// TargetOption returns the raw value of a target-only key.
func (c *Config) TargetOption(key string) (value any, field string) {
	return c.local[key], config.TargetField(c.target) + "." + key
}

// GlobalTable returns the global build table.
func (c *Config) GlobalTable() config.Table { return c.global }

// TargetTable returns the target build table.
func (c *Config) TargetTable() config.Table { return c.local }

func (c *Config) selectionConfigured() bool {
	for _, key := range []string{KeyInclude, KeyExclude, KeyPackages, KeyOnlyInclude} {
		if v, _ := c.Option(key); v != nil {
			return true
		}
	}
	return false
}

func (c *Config) resolveFlags(Selection) error {
	var err error
	raw, field := c.Option(KeyOnlyPackages)
	if c.onlyPackages, err = config.Bool(raw, field, false); err != nil {
		return err
	}
	raw, field = c.Option(KeySkipExcludedDirs)
	c.skipExcludedDirs, err = config.Bool(raw, field, false)
	return err
}

func (c *Config) resolvePackages(defaults Selection) error {
	raw, field := c.Option(KeyPackages)
	var packages []string
	if raw == nil {
		packages = defaults.Packages
	} else {
		var err error
		if packages, err = config.StringList(raw, field, "Package"); err != nil {
			return err
		}
	}
	for _, p := range packages {
		c.packages = append(c.packages, NormalizeRelativePath(p))
	}
	slices.Sort(c.packages)
	return nil
}

func (c *Config) resolveOnlyInclude(defaults Selection) error {
	raw, field := c.Option(KeyOnlyInclude)
	var paths []string
	if raw == nil {
		paths = defaults.OnlyInclude
	} else {
		var err error
		if paths, err = config.StringList(raw, field, "Path"); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		paths = c.packages
		_, field = c.Option(KeyPackages)
	}

	seen := make(map[string]bool, len(paths))
	dests := make(map[string]int, len(paths))
	c.onlyInclude = make(InclusionMap, 0, len(paths))
	for i, p := range paths {
		normalized := NormalizeRelativePath(p)
		if normalized == "" || filepath.IsAbs(filepath.FromSlash(p)) ||
			strings.HasPrefix(normalized, "~") || strings.HasPrefix(normalized, "..") {
			return config.Errorf(field, i+1, "Path #%d in field `%s` must be relative: %s", i+1, field, p)
		}
		if seen[normalized] {
			return config.Errorf(field, i+1, "Duplicate path #%d in field `%s`: %s", i+1, field, p)
		}
		seen[normalized] = true

		dest := c.DistributionPath(normalized)
		if prev, dup := dests[dest]; dup {
			return config.Errorf(field, i+1, "Path #%d in field `%s` has the same destination as path #%d: %s",
				i+1, field, prev, dest)
		}
		dests[dest] = i + 1
		c.onlyInclude = append(c.onlyInclude, Mapping{Source: filepath.Join(c.root, filepath.FromSlash(normalized)), Dest: dest})
	}
	return nil
}

func (c *Config) resolveForceInclude(Selection) error {
	raw, field := c.Option(KeyForceInclude)
	m, err := config.StringMap(raw, field, "Source")
	if err != nil {
		return err
	}
	c.forceInclude = NormalizeInclusionMap(m, c.root)
	return nil
}

func (c *Config) resolveInclude(defaults Selection) error {
	raw, field := c.Option(KeyInclude)
	patterns := defaults.Include
	if raw != nil {
		var err error
		if patterns, err = config.StringList(raw, field, "Pattern"); err != nil {
			return err
		}
	}
	for _, p := range c.packages {
		patterns = append(patterns, "/"+p+"/")
	}
	if len(patterns) > 0 {
		c.include = pathspec.Compile(patterns)
	}
	return nil
}

func (c *Config) resolveExclude(defaults Selection) error {
	patterns := append([]string{}, DefaultGlobalExclude...)

	raw, field := c.Option(KeyIgnoreVCS)
	ignoreVCS, err := config.Bool(raw, field, false)
	if err != nil {
		return err
	}
	if !ignoreVCS {
		vcsPatterns, files, err := loadVCSPatterns(c.root)
		if err != nil {
			return err
		}
		patterns = append(patterns, vcsPatterns...)
		c.vcsFiles = files
	}

	raw, field = c.Option(KeyExclude)
	configured := defaults.Exclude
	if raw != nil {
		if configured, err = config.StringList(raw, field, "Pattern"); err != nil {
			return err
		}
	}
	c.exclude = pathspec.Compile(append(patterns, configured...))
	return nil
}

func (c *Config) resolveArtifacts(Selection) error {
	raw, field := c.Option(KeyArtifacts)
	patterns, err := config.StringList(raw, field, "Pattern")
	if err != nil {
		return err
	}
	if len(patterns) > 0 {
		c.artifacts = pathspec.Compile(patterns)
	}
	return nil
}
