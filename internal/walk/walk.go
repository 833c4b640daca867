// SPDX-License-Identifier: MPL-2.0

package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/wheelwright/internal/inclusion"
)

// packageMarker marks a directory as an importable package.
const packageMarker = "__init__.py"

// ErrForceIncludeNotFound is returned when a force-include source is missing.
var ErrForceIncludeNotFound = errors.New("forced include not found")

// IncludedFile is one file selected for an archive.
type IncludedFile struct {
	// Path is the absolute source path.
	Path string
	// RelativePath is relative to the project root, or empty for external files.
	RelativePath string
	// DistributionPath is the slash-separated destination inside the archive.
	DistributionPath string
}

type walker struct {
	c       *inclusion.Config
	root    string
	yielded map[string]bool
	yield   func(IncludedFile, error) bool
}

func newWalker(c *inclusion.Config, root string, yield func(IncludedFile, error) bool) *walker {
	return &walker{c: c, root: root, yielded: map[string]bool{}, yield: yield}
}

// Files returns the files of c in shipping order: the explicit inclusion map
// when one is configured (else the whole project tree), followed by the
// force-include entries. A destination is produced at most once.
//
// Files must be consumed while the build scope of c is open, since reserved
// paths and build artifacts are read as the walk progresses.
func Files(c *inclusion.Config) iter.Seq2[IncludedFile, error] {
	return func(yield func(IncludedFile, error) bool) {
		w := newWalker(c, c.Root(), yield)
		ok, err := w.selected()
		if err == nil && ok {
			_, err = w.forced(c.ForceInclude(), true)
		}
		if err != nil {
			yield(IncludedFile{}, err)
		}
	}
}

// Selected returns only the files picked by the file selection, without the
// force-include entries.
func Selected(c *inclusion.Config) iter.Seq2[IncludedFile, error] {
	return func(yield func(IncludedFile, error) bool) {
		if _, err := newWalker(c, c.Root(), yield).selected(); err != nil {
			yield(IncludedFile{}, err)
		}
	}
}

// Forced returns only the force-include entries of c, reserving every
// destination it produces.
func Forced(c *inclusion.Config) iter.Seq2[IncludedFile, error] {
	return func(yield func(IncludedFile, error) bool) {
		if _, err := newWalker(c, c.Root(), yield).forced(c.ForceInclude(), true); err != nil {
			yield(IncludedFile{}, err)
		}
	}
}

// Mapped returns every file of m unconditionally. Directory sources are
// expanded recursively below their destination.
func Mapped(root string, m inclusion.InclusionMap) iter.Seq2[IncludedFile, error] {
	return func(yield func(IncludedFile, error) bool) {
		if _, err := newWalker(nil, root, yield).forced(m, false); err != nil {
			yield(IncludedFile{}, err)
		}
	}
}

func (w *walker) selected() (bool, error) {
	if only := w.c.OnlyInclude(); len(only) > 0 {
		return w.explicit(only)
	}
	return w.project()
}

func (w *walker) emit(f IncludedFile) bool {
	if w.yielded[f.DistributionPath] {
		return true
	}
	w.yielded[f.DistributionPath] = true
	return w.yield(f, nil)
}

func (w *walker) relative(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (w *walker) project() (bool, error) {
	stopped := false
	err := walkTree(w.c.Root(), func(dir, rel string, files, dirs []string) ([]string, bool) {
		isPackage := slices.Contains(files, packageMarker)
		for _, name := range files {
			if inclusion.ExcludedFiles[name] {
				continue
			}
			relFile := path.Join(rel, name)
			if w.c.PathIsReserved(relFile) || !w.c.ShouldInclude(relFile, false, isPackage) {
				continue
			}
			f := IncludedFile{
				Path:             filepath.Join(dir, name),
				RelativePath:     relFile,
				DistributionPath: w.c.DistributionPath(relFile),
			}
			if !w.emit(f) {
				stopped = true
				return nil, false
			}
		}
		return w.keepDirs(dirs, rel), true
	})
	return !stopped, err
}

func (w *walker) keepDirs(dirs []string, parent string) []string {
	keep := dirs[:0:0]
	for _, d := range dirs {
		if !w.c.DirectoryShouldBePruned(d, parent) {
			keep = append(keep, d)
		}
	}
	return keep
}

// explicit walks the inclusion map. Inclusion checks see root-relative
// paths; the sources rewrite is applied once, when the destination is built.
func (w *walker) explicit(only inclusion.InclusionMap) (bool, error) {
	for _, m := range only {
		info, err := os.Stat(m.Source)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return false, fmt.Errorf("failed to stat %s: %w", m.Source, err)
		}
		relSource := w.relative(m.Source)

		if !info.IsDir() {
			if !w.c.ShouldInclude(relSource, true, true) {
				continue
			}
			f := IncludedFile{Path: m.Source, RelativePath: relSource, DistributionPath: m.Dest}
			if !w.emit(f) {
				return false, nil
			}
			continue
		}

		stopped := false
		err = walkTree(m.Source, func(dir, rel string, files, dirs []string) ([]string, bool) {
			relDir := path.Join(relSource, rel)
			isPackage := slices.Contains(files, packageMarker)
			for _, name := range files {
				if inclusion.ExcludedFiles[name] {
					continue
				}
				relFile := path.Join(relDir, name)
				if w.c.PathIsReserved(relFile) || !w.c.ShouldInclude(relFile, true, isPackage) {
					continue
				}
				f := IncludedFile{
					Path:             filepath.Join(dir, name),
					RelativePath:     relFile,
					DistributionPath: w.c.DistributionPath(relFile),
				}
				if !w.emit(f) {
					stopped = true
					return nil, false
				}
			}
			return w.keepDirs(dirs, relDir), true
		})
		if err != nil || stopped {
			return false, err
		}
	}
	return true, nil
}

// forced ships every file of the map. With reserve set, destinations reserved
// by anything but a forced directory are skipped and new ones are reserved.
func (w *walker) forced(forced inclusion.InclusionMap, reserve bool) (bool, error) {
	for _, m := range forced {
		info, err := os.Stat(m.Source)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, fmt.Errorf("%w: %s", ErrForceIncludeNotFound, m.Source)
			}
			return false, fmt.Errorf("failed to stat %s: %w", m.Source, err)
		}

		if !info.IsDir() {
			if !w.emit(IncludedFile{Path: m.Source, RelativePath: w.relative(m.Source), DistributionPath: m.Dest}) {
				return false, nil
			}
			continue
		}

		stopped := false
		err = walkTree(m.Source, func(dir, rel string, files, dirs []string) ([]string, bool) {
			for _, name := range files {
				if inclusion.ExcludedFiles[name] {
					continue
				}
				dest := path.Join(m.Dest, rel, name)
				if reserve {
					if w.c.DestinationIsReserved(dest) && !w.c.DestinationIsForced(dest) {
						continue
					}
					w.c.Reserve(dest)
				}
				abs := filepath.Join(dir, name)
				if !w.emit(IncludedFile{Path: abs, RelativePath: w.relative(abs), DistributionPath: dest}) {
					stopped = true
					return nil, false
				}
			}
			keep := dirs[:0:0]
			for _, d := range dirs {
				if !inclusion.ExcludedDirectories[d] {
					keep = append(keep, d)
				}
			}
			return keep, true
		})
		if err != nil || stopped {
			return false, err
		}
	}
	return true, nil
}
