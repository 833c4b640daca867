// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/invowk/wheelwright/internal/builder"
	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/internal/watch"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

// defaultTargets are built when no --target flag is given.
var defaultTargets = []string{"sdist", "wheel"}

type (
	// targetSpec is one --target value: a target name and optional versions.
	targetSpec struct {
		name     string
		versions []string
	}

	buildFlags struct {
		targets         []string
		directory       string
		hooksOnly       bool
		noHooks         bool
		clean           bool
		cleanHooksAfter bool
		watch           bool
		debounce        time.Duration
	}
)

// newBuildCommand creates the `wheelwright build` command.
func newBuildCommand(opts *rootOptions) *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build source and binary distributions",
		Long: `Build the distributions of the project.

Each --target names a target and, after a colon, a comma-separated list of
versions. Without --target an sdist and a standard wheel are built.

` + SubtitleStyle.Render("Examples:") + `
  wheelwright build
  wheelwright build -t wheel
  wheelwright build -t wheel:standard,editable -d out
  wheelwright build --hooks-only -t sdist
  wheelwright build -t wheel:editable --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts, flags)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.targets, "target", "t", nil, "target to build, as name[:version,...] (repeatable)")
	cmd.Flags().StringVarP(&flags.directory, "directory", "d", "", "output directory (default from configuration, then dist)")
	cmd.Flags().BoolVar(&flags.hooksOnly, "hooks-only", false, "run the build hooks without writing artifacts")
	cmd.Flags().BoolVar(&flags.noHooks, "no-hooks", false, "disable every build hook")
	cmd.Flags().BoolVarP(&flags.clean, "clean", "c", false, "remove previous artifacts before building")
	cmd.Flags().BoolVar(&flags.cleanHooksAfter, "clean-hooks-after", false, "run the hook clean phase after each build")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rebuild whenever the project tree changes")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", watch.DefaultDebounce, "quiet period before a rebuild in watch mode")
	return cmd
}

func runBuild(cmd *cobra.Command, opts *rootOptions, flags *buildFlags) error {
	specs, err := parseTargets(flags.targets)
	if err != nil {
		return fail(err, "parse the targets", "")
	}
	f, err := opts.loadProject()
	if err != nil {
		return err
	}
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	env.NoHooks = env.NoHooks || flags.noHooks

	// Every target and its versions are validated before the first one builds.
	builders, err := newBuilders(cmd, opts, f, env, specs)
	if err != nil {
		return err
	}
	if err := buildOnce(cmd.Context(), cmd.OutOrStdout(), f, builders, specs, flags); err != nil {
		return err
	}
	if !flags.watch {
		return nil
	}
	return watchAndRebuild(cmd, opts, f, env, builders, specs, flags)
}

// buildOnce runs every builder in order and prints the artifacts.
func buildOnce(ctx context.Context, out io.Writer, f *pyproject.File, builders []*builder.Builder, specs []targetSpec, flags *buildFlags) error {
	for i, b := range builders {
		fmt.Fprintln(out, TitleStyle.Render("["+b.Name()+"]"))
		req := builder.Request{
			Directory:       flags.directory,
			Versions:        specs[i].versions,
			HooksOnly:       flags.hooksOnly,
			Clean:           flags.clean,
			CleanHooksAfter: flags.cleanHooksAfter,
		}
		for artifact, err := range b.Build(ctx, req) {
			if err != nil {
				return fail(err, "build target "+b.Name(), f.Root)
			}
			printArtifact(out, f.Root, artifact)
		}
	}
	return nil
}

// watchAndRebuild rebuilds after every batch of changes until interrupted.
// The project file is reloaded each time so configuration edits apply; a
// failed rebuild is reported and watching goes on.
func watchAndRebuild(cmd *cobra.Command, opts *rootOptions, f *pyproject.File, env *config.Environment, builders []*builder.Builder, specs []targetSpec, flags *buildFlags) error {
	logger := opts.newLogger(cmd.ErrOrStderr())
	ignore, err := outputIgnores(f, builders, flags.directory)
	if err != nil {
		return err
	}
	w, err := watch.New(watch.Config{
		Root:     f.Root,
		Ignore:   ignore,
		Debounce: flags.debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("change detected, rebuilding", "paths", len(changed))
			logger.Debug("changed", "paths", changed)
			current, err := opts.loadProject()
			if err != nil {
				displayError(cmd.ErrOrStderr(), err, opts.verbose)
				return nil
			}
			builders, err := newBuilders(cmd, opts, current, env, specs)
			if err == nil {
				err = buildOnce(ctx, cmd.OutOrStdout(), current, builders, specs, flags)
			}
			if err != nil {
				displayError(cmd.ErrOrStderr(), err, opts.verbose)
			}
			return nil
		},
	})
	if err != nil {
		return fail(err, "watch the project", f.Root)
	}
	logger.Info("watching for changes", "root", f.Root)
	if err := w.Run(cmd.Context()); err != nil {
		return fail(err, "watch the project", f.Root)
	}
	return nil
}

// outputIgnores returns root-anchored ignore lines for the output directory
// of every target, so that writing artifacts does not trigger a rebuild.
func outputIgnores(f *pyproject.File, builders []*builder.Builder, override string) ([]string, error) {
	var lines []string
	for _, b := range builders {
		dir, err := b.Directory(override)
		if err != nil {
			return nil, fail(err, "resolve the output directory of "+b.Name(), f.Path)
		}
		rel, err := filepath.Rel(f.Root, dir)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}
		lines = append(lines, "/"+filepath.ToSlash(rel)+"/")
	}
	return lines, nil
}

// newBuilders resolves the configuration of every requested target.
func newBuilders(cmd *cobra.Command, opts *rootOptions, f *pyproject.File, env *config.Environment, specs []targetSpec) ([]*builder.Builder, error) {
	builderOpts := builder.Options{
		Env:       env,
		Logger:    opts.newLogger(cmd.ErrOrStderr()),
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		Generator: "wheelwright " + Version,
	}
	builders := make([]*builder.Builder, 0, len(specs))
	for _, spec := range specs {
		b, err := builder.New(f, spec.name, builderOpts)
		if err != nil {
			return nil, fail(err, "configure target "+spec.name, f.Path)
		}
		if err := b.CheckVersions(spec.versions); err != nil {
			return nil, fail(err, "configure target "+spec.name, f.Path)
		}
		builders = append(builders, b)
	}
	return builders, nil
}

// parseTargets parses --target values of the form name[:version,...].
// A target named twice merges its versions.
func parseTargets(values []string) ([]targetSpec, error) {
	if len(values) == 0 {
		values = defaultTargets
	}
	var specs []targetSpec
	index := map[string]int{}
	for _, value := range values {
		name, versions, _ := strings.Cut(value, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name in `%s`", builder.ErrUnknownTarget, value)
		}
		var list []string
		for v := range strings.SplitSeq(versions, ",") {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}

		if i, ok := index[name]; ok {
			specs[i].versions = append(specs[i].versions, list...)
			continue
		}
		index[name] = len(specs)
		specs = append(specs, targetSpec{name: name, versions: list})
	}
	return specs, nil
}

// printArtifact prints the artifact path, relative to the project root when
// it lies inside it.
func printArtifact(w io.Writer, root, artifact string) {
	display := artifact
	if rel, err := filepath.Rel(root, artifact); err == nil && filepath.IsLocal(rel) {
		display = filepath.ToSlash(rel)
	}
	fmt.Fprintln(w, SuccessStyle.Render("✓")+" "+CmdStyle.Render(display))
}
