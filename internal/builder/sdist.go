// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/invowk/wheelwright/internal/archive"
	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/internal/hooks"
	"github.com/invowk/wheelwright/internal/inclusion"
	"github.com/invowk/wheelwright/internal/walk"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

const (
	// KeySupportLegacy adds a generated setup.py to the sdist.
	KeySupportLegacy = "support-legacy"

	sdistExtension = ".tar.gz"
	pkgInfoFile    = "PKG-INFO"
	setupPyFile    = "setup.py"
)

// sdist builds the source distribution: every selected file below a
// "{name}-{version}/" directory, plus PKG-INFO.
type sdist struct {
	b             *Builder
	supportLegacy bool
}

func newSdist(b *Builder) target { return &sdist{b: b} }

func (s *sdist) versions() []string { return []string{VersionStandard} }

func (s *sdist) extension() string { return sdistExtension }

func (s *sdist) defaultSelection() (inclusion.Selection, error) {
	return inclusion.Selection{}, nil
}

func (s *sdist) check([]string) error { return nil }

func (s *sdist) configure() error {
	raw, field := s.b.incl.TargetOption(KeySupportLegacy)
	var err error
	s.supportLegacy, err = config.Bool(raw, field, false)
	return err
}

// defaultBuildData ships the project descriptor, readme, license files and
// the VCS ignore files of the project, wherever the file selection puts them.
func (s *sdist) defaultBuildData(_ string, data *hooks.BuildData) error {
	root := s.b.file.Root
	candidates := []string{pyproject.FileName}
	if s.b.project.ReadmePath != "" {
		candidates = append(candidates, s.b.project.ReadmePath)
	}
	candidates = append(candidates, s.b.project.LicenseFiles...)
	for _, vcs := range s.b.incl.VCSIgnoreFiles() {
		rel, err := filepath.Rel(root, vcs)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}
		candidates = append(candidates, filepath.ToSlash(rel))
	}

	for _, rel := range candidates {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", abs, err)
		}
		data.ForceInclude[abs] = rel
	}
	return nil
}

func (s *sdist) buildInput(_ string, data *hooks.BuildData) inclusion.BuildInput {
	reserved := []string{pkgInfoFile}
	if s.supportLegacy {
		reserved = append(reserved, setupPyFile)
	}
	return inclusion.BuildInput{Artifacts: data.Artifacts, ForceInclude: data.ForceInclude, Reserved: reserved}
}

func (s *sdist) build(_ context.Context, _, directory string, data *hooks.BuildData) (string, error) {
	projectID := s.b.project.ProjectID(s.b.strictNaming)
	a, err := archive.NewTar(s.b.archiveOptions())
	if err != nil {
		return "", err
	}

	dest := filepath.Join(directory, projectID+sdistExtension)
	return finishArchive(a, dest, func() error {
		var packages []string
		for f, err := range walk.Files(s.b.incl) {
			if err != nil {
				return err
			}
			if s.supportLegacy && f.RelativePath != "" && path.Base(f.RelativePath) == "__init__.py" {
				packages = append(packages, path.Dir(f.RelativePath))
			}
			if _, err := a.AddFile(f.Path, path.Join(projectID, f.DistributionPath)); err != nil {
				return err
			}
		}

		if s.supportLegacy {
			slices.Sort(packages)
			setup := setupPy(s.b.project, slices.Compact(packages), data.Dependencies)
			if _, err := a.WriteFile(path.Join(projectID, setupPyFile), []byte(setup)); err != nil {
				return err
			}
		}

		meta, err := s.b.metadata(data)
		if err != nil {
			return err
		}
		_, err = a.WriteFile(path.Join(projectID, pkgInfoFile), meta)
		return err
	})
}
