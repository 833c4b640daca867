// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/wheelwright/internal/config"
)

// ShellHookName is the registry name of the shell hook.
const ShellHookName = "shell"

// Environment variables exported to shell hook commands.
const (
	EnvTarget    = "WHEELWRIGHT_BUILD_TARGET"
	EnvVersion   = "WHEELWRIGHT_BUILD_VERSION"
	EnvVersions  = "WHEELWRIGHT_BUILD_VERSIONS"
	EnvDirectory = "WHEELWRIGHT_BUILD_DIRECTORY"
	EnvArtifact  = "WHEELWRIGHT_BUILD_ARTIFACT"
	EnvProject   = "WHEELWRIGHT_PROJECT_VERSION"
	EnvRoot      = "WHEELWRIGHT_PROJECT_ROOT"
)

type (
	// shellHook runs commands with the in-process POSIX shell interpreter, so
	// hooks behave the same on every platform without a system shell.
	shellHook struct {
		hc           Context
		workDir      string
		env          []string
		initialize   []script
		finalize     []script
		clean        []script
		artifacts    []string
		dependencies []string
	}

	script struct {
		source string
		file   *syntax.File
	}
)

// NewShellHook is the Factory of the shell hook. Options:
//
//	commands           run during initialize
//	finalize-commands  run after the artifact is written
//	clean-commands     run when cleaning
//	artifacts          patterns added to the build artifacts
//	dependencies       requirements added to the metadata
//	work-dir           directory to run in, relative to the project root
//	env                extra environment variables
//
// Every command is parsed here, so syntax errors fail the build before any
// hook runs.
func NewShellHook(hc Context) (Hook, error) {
	h := &shellHook{hc: hc}
	var err error

	if h.initialize, err = parseScripts(hc, "commands"); err != nil {
		return nil, err
	}
	if h.finalize, err = parseScripts(hc, "finalize-commands"); err != nil {
		return nil, err
	}
	if h.clean, err = parseScripts(hc, "clean-commands"); err != nil {
		return nil, err
	}
	if h.artifacts, err = config.StringList(hc.Config["artifacts"], hc.Field+".artifacts", "Pattern"); err != nil {
		return nil, err
	}
	if h.dependencies, err = config.StringList(hc.Config["dependencies"], hc.Field+".dependencies", "Dependency"); err != nil {
		return nil, err
	}

	workDir, err := config.String(hc.Config["work-dir"], hc.Field+".work-dir", "")
	if err != nil {
		return nil, err
	}
	h.workDir = hc.Root
	if workDir != "" {
		h.workDir = filepath.Join(hc.Root, filepath.FromSlash(workDir))
	}

	env, err := config.StringMap(hc.Config["env"], hc.Field+".env", "Variable")
	if err != nil {
		return nil, err
	}
	for _, k := range config.SortedKeys(env) {
		h.env = append(h.env, k+"="+env[k])
	}
	return h, nil
}

func parseScripts(hc Context, key string) ([]script, error) {
	field := hc.Field + "." + key
	commands, err := config.StringList(hc.Config[key], field, "Command")
	if err != nil {
		return nil, err
	}
	scripts := make([]script, 0, len(commands))
	for i, cmd := range commands {
		file, err := syntax.NewParser().Parse(strings.NewReader(cmd), fmt.Sprintf("%s[%d]", key, i))
		if err != nil {
			return nil, config.Errorf(field, i+1, "Command #%d in field `%s` is not valid shell syntax: %v", i+1, field, err)
		}
		scripts = append(scripts, script{source: cmd, file: file})
	}
	return scripts, nil
}

func (h *shellHook) Initialize(ctx context.Context, version string, data *BuildData) error {
	if err := h.run(ctx, h.initialize, EnvVersion+"="+version); err != nil {
		return err
	}
	data.Artifacts = append(data.Artifacts, h.artifacts...)
	data.Dependencies = append(data.Dependencies, h.dependencies...)
	return nil
}

func (h *shellHook) Finalize(ctx context.Context, version string, _ *BuildData, artifact string) error {
	return h.run(ctx, h.finalize, EnvVersion+"="+version, EnvArtifact+"="+artifact)
}

func (h *shellHook) Clean(ctx context.Context, versions []string) error {
	return h.run(ctx, h.clean, EnvVersions+"="+strings.Join(versions, ","))
}

func (h *shellHook) run(ctx context.Context, scripts []script, extra ...string) error {
	if len(scripts) == 0 {
		return nil
	}

	env := os.Environ()
	env = append(env,
		EnvTarget+"="+h.hc.Target,
		EnvDirectory+"="+h.hc.Directory,
		EnvRoot+"="+h.hc.Root,
	)
	if h.hc.Project != nil {
		env = append(env, EnvProject+"="+h.hc.Project.Version)
	}
	env = append(env, h.env...)
	env = append(env, extra...)

	stdout, stderr := h.hc.Stdout, h.hc.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	runner, err := interp.New(
		interp.Dir(h.workDir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	for _, s := range scripts {
		if h.hc.Logger != nil {
			h.hc.Logger.Debug("running hook command", "hook", h.hc.Name, "command", s.source)
		}
		if err := runner.Run(ctx, s.file); err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				return fmt.Errorf("command %q exited with status %d", s.source, uint8(status))
			}
			return fmt.Errorf("command %q failed: %w", s.source, err)
		}
		if runner.Exited() {
			break
		}
	}
	return nil
}
