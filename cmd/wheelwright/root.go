// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/internal/issue"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	verbose bool
	root    string
}

// newRootCommand creates the command tree.
func newRootCommand() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "wheelwright",
		Short: "A build backend for Python packages",
		Long: TitleStyle.Render("wheelwright") + SubtitleStyle.Render(" - A build backend for Python packages") + `

wheelwright turns a project described by pyproject.toml into a source
distribution (sdist) and a wheel, reproducibly: two builds of the same
tree with the same SOURCE_DATE_EPOCH produce identical bytes.

Build options live in the [tool.wheelwright.build] table; per-target
options in [tool.wheelwright.build.targets.<name>].

` + SubtitleStyle.Render("Examples:") + `
  wheelwright build                    Build an sdist and a wheel into dist/
  wheelwright build -t wheel:editable  Build an editable wheel
  wheelwright clean                    Remove previous artifacts
  wheelwright metadata                 Print the core metadata`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&opts.root, "root", "r", ".", "project root holding pyproject.toml")

	rootCmd.AddCommand(newBuildCommand(opts))
	rootCmd.AddCommand(newCleanCommand(opts))
	rootCmd.AddCommand(newMetadataCommand(opts))
	rootCmd.AddCommand(newVersionCommand(opts))
	return rootCmd, opts
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with its status. It is called by main.main().
func Execute() {
	os.Exit(Run())
}

// Run runs the CLI with the process arguments and returns the exit code.
func Run() int {
	rootCmd, opts := newRootCommand()
	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			displayError(w, err, opts.verbose)
		}),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// displayError prints err for the user. Errors known to the issue catalog
// get its explanation in verbose mode.
func displayError(w io.Writer, err error, verbose bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, verbose))

	if !verbose {
		return
	}
	if entry := issue.Match(err); entry != nil {
		rendered, renderErr := entry.Render("notty")
		if renderErr != nil {
			fmt.Fprintln(w, WarningStyle.Render("Warning:")+" failed to render help: "+renderErr.Error())
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// fail wraps err for display and maps it to exit code 1.
func fail(err error, operation, resource string) error {
	return &ExitError{Code: 1, Err: issue.FromError(err, operation, resource)}
}

// newLogger returns the logger handed to the builders.
func (o *rootOptions) newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "wheelwright",
		Level:  log.InfoLevel,
	})
	if o.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadProject reads pyproject.toml from the project root.
func (o *rootOptions) loadProject() (*pyproject.File, error) {
	root, err := filepath.Abs(o.root)
	if err != nil {
		return nil, fail(err, "resolve the project root", o.root)
	}
	f, err := pyproject.Load(root)
	if err != nil {
		return nil, fail(err, "load the project", filepath.Join(root, pyproject.FileName))
	}
	return f, nil
}

// loadEnvironment reads the build overrides from the process environment.
func loadEnvironment() (*config.Environment, error) {
	env, err := config.LoadEnvironment()
	if err != nil {
		return nil, fail(err, "read the environment", "")
	}
	return env, nil
}
