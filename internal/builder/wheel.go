// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/wheelwright/internal/archive"
	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/internal/hooks"
	"github.com/invowk/wheelwright/internal/inclusion"
	"github.com/invowk/wheelwright/internal/walk"
	"github.com/invowk/wheelwright/pkg/coremeta"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

const (
	// Wheel target keys.
	KeySharedData    = "shared-data"
	KeyExtraMetadata = "extra-metadata"
	KeyDevModeDirs   = "dev-mode-dirs"

	// VersionEditable builds a wheel that points back at the source tree.
	VersionEditable = "editable"

	wheelExtension = ".whl"
	packageMarker  = "__init__.py"
)

// wheel builds binary distributions, standard or editable.
type wheel struct {
	b             *Builder
	sharedData    map[string]string
	extraMetadata map[string]string
	devModeDirs   []string
}

func newWheel(b *Builder) target { return &wheel{b: b} }

func (w *wheel) versions() []string { return []string{VersionStandard, VersionEditable} }

func (w *wheel) extension() string { return wheelExtension }

// defaultSelection guesses the importable code of the project: a package
// named after it at the root or below src/, a module named after it, or a
// namespace package holding it. Otherwise the top-level modules are
// shipped, tests aside.
func (w *wheel) defaultSelection() (inclusion.Selection, error) {
	root := w.b.file.Root
	names := []string{pyproject.FileNameComponent(w.b.project.RawName)}
	if n := pyproject.FileNameComponent(w.b.project.Name); n != names[0] {
		names = append(names, n)
	}

	for _, name := range names {
		if isFile(filepath.Join(root, name, packageMarker)) {
			return inclusion.Selection{Packages: []string{name}}, nil
		}
	}
	for _, name := range names {
		if isFile(filepath.Join(root, "src", name, packageMarker)) {
			return inclusion.Selection{Packages: []string{"src/" + name}}, nil
		}
	}
	for _, name := range names {
		if isFile(filepath.Join(root, name+".py")) {
			return inclusion.Selection{OnlyInclude: []string{name + ".py"}}, nil
		}
	}
	for _, name := range names {
		// A malformed glob only means no namespace layout was found.
		matches, _ := filepath.Glob(filepath.Join(root, "*", name, packageMarker))
		if len(matches) == 1 {
			rel, err := filepath.Rel(root, matches[0])
			if err == nil {
				namespace := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
				return inclusion.Selection{Packages: []string{namespace}}, nil
			}
		}
	}
	return inclusion.Selection{Include: []string{"/*.py"}, Exclude: []string{"test*"}}, nil
}

func (w *wheel) configure() error {
	var err error
	raw, field := w.b.incl.TargetOption(KeySharedData)
	if w.sharedData, err = config.StringMap(raw, field, "Source"); err != nil {
		return err
	}
	raw, field = w.b.incl.TargetOption(KeyExtraMetadata)
	if w.extraMetadata, err = config.StringMap(raw, field, "Source"); err != nil {
		return err
	}
	raw, field = w.b.incl.Option(KeyDevModeDirs)
	w.devModeDirs, err = config.StringList(raw, field, "Directory")
	return err
}

// check rejects editable builds whose sources rewrite a prefix.
func (w *wheel) check(versions []string) error {
	if slices.Contains(versions, VersionEditable) && w.b.incl.SourcesRewritePrefixes() {
		_, field := w.b.incl.Option(inclusion.KeySources)
		return config.Errorf(field, 0,
			"Editable builds are unsupported when any path rewrite in the `sources` option changes a prefix rather than removes it")
	}
	return nil
}

func (w *wheel) defaultBuildData(string, *hooks.BuildData) error { return nil }

func (w *wheel) buildInput(version string, data *hooks.BuildData) inclusion.BuildInput {
	force := data.ForceInclude
	if version == VersionEditable && len(data.ForceIncludeEditable) > 0 {
		force = maps.Clone(data.ForceInclude)
		if force == nil {
			force = map[string]string{}
		}
		maps.Copy(force, data.ForceIncludeEditable)
	}
	return inclusion.BuildInput{Artifacts: data.Artifacts, ForceInclude: force}
}

func (w *wheel) build(_ context.Context, version, directory string, data *hooks.BuildData) (string, error) {
	tag := data.Tag
	if tag == "" {
		var err error
		if tag, err = defaultTag(w.b.project); err != nil {
			return "", err
		}
	}

	projectID := w.b.project.ProjectID(w.b.strictNaming)
	dest := filepath.Join(directory, projectID+"-"+tag+wheelExtension)

	fill := w.fillStandard
	if version == VersionEditable {
		fill = w.fillEditable
	}

	z, err := archive.NewZip(w.b.archiveOptions())
	if err != nil {
		return "", err
	}
	return finishArchive(z, dest, func() error {
		var record archive.Record
		if err := fill(z, &record); err != nil {
			return err
		}
		return w.writeData(z, &record, projectID, tag, data)
	})
}

func (w *wheel) fillStandard(z *archive.Zip, record *archive.Record) error {
	for f, err := range walk.Files(w.b.incl) {
		if err != nil {
			return err
		}
		e, err := z.AddFile(f.Path, f.DistributionPath)
		if err != nil {
			return err
		}
		record.Add(e)
	}
	return nil
}

// fillEditable writes a .pth file listing the source directories, then the
// forced files. The selected files themselves stay in the source tree.
func (w *wheel) fillEditable(z *archive.Zip, record *archive.Record) error {
	dirs, err := w.editableDirectories()
	if err != nil {
		return err
	}
	name := "_" + strings.ReplaceAll(w.b.project.Name, "-", "_") + ".pth"
	e, err := z.WriteFile(name, []byte(strings.Join(dirs, "\n")+"\n"))
	if err != nil {
		return err
	}
	record.Add(e)

	for f, err := range walk.Forced(w.b.incl) {
		if err != nil {
			return err
		}
		e, err := z.AddFile(f.Path, f.DistributionPath)
		if err != nil {
			return err
		}
		record.Add(e)
	}
	return nil
}

// editableDirectories returns dev-mode-dirs, else the directories holding
// the top level of every selected file, else the project root.
func (w *wheel) editableDirectories() ([]string, error) {
	root := w.b.file.Root
	var dirs []string
	for _, d := range w.devModeDirs {
		dirs = append(dirs, filepath.Join(root, filepath.FromSlash(d)))
	}
	if len(dirs) > 0 {
		return dirs, nil
	}

	for f, err := range walk.Selected(w.b.incl) {
		if err != nil {
			return nil, err
		}
		if f.RelativePath == "" {
			continue
		}
		prefix := strings.TrimSuffix(f.RelativePath, f.DistributionPath)
		dir := filepath.Clean(filepath.Join(root, filepath.FromSlash(prefix)))
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return []string{root}, nil
	}
	slices.Sort(dirs)
	return dirs, nil
}

// writeData writes shared data and the .dist-info directory. RECORD is
// always the last entry.
func (w *wheel) writeData(z *archive.Zip, record *archive.Record, projectID, tag string, data *hooks.BuildData) error {
	root := w.b.file.Root
	add := func(src, name string) error {
		e, err := z.AddFile(src, name)
		if err != nil {
			return err
		}
		record.Add(e)
		return nil
	}
	write := func(name string, content []byte) error {
		e, err := z.WriteFile(name, content)
		if err != nil {
			return err
		}
		record.Add(e)
		return nil
	}

	dataDir := projectID + ".data/data"
	for f, err := range walk.Mapped(root, mergedMap(root, w.sharedData, data.SharedData)) {
		if err != nil {
			return err
		}
		if err := add(f.Path, path.Join(dataDir, f.DistributionPath)); err != nil {
			return err
		}
	}

	distInfo := projectID + ".dist-info"
	meta, err := w.b.metadata(data)
	if err != nil {
		return err
	}
	if err := write(distInfo+"/METADATA", meta); err != nil {
		return err
	}

	wheelMeta, err := w.wheelMetadata(tag, data.PurePython)
	if err != nil {
		return err
	}
	if err := write(distInfo+"/WHEEL", wheelMeta); err != nil {
		return err
	}

	if eps := coremeta.EntryPoints(w.b.project); eps != "" {
		if err := write(distInfo+"/entry_points.txt", []byte(eps)); err != nil {
			return err
		}
	}

	for _, lf := range w.b.project.LicenseFiles {
		if err := add(filepath.Join(root, filepath.FromSlash(lf)), path.Join(distInfo, "licenses", lf)); err != nil {
			return err
		}
	}

	for f, err := range walk.Mapped(root, mergedMap(root, w.extraMetadata, data.ExtraMetadata)) {
		if err != nil {
			return err
		}
		if err := add(f.Path, path.Join(distInfo, "extra_metadata", f.DistributionPath)); err != nil {
			return err
		}
	}

	recordPath := distInfo + "/RECORD"
	content, err := record.Render(recordPath)
	if err != nil {
		return fmt.Errorf("failed to render RECORD: %w", err)
	}
	_, err = z.WriteFile(recordPath, content)
	return err
}

// wheelMetadata renders the WHEEL file.
func (w *wheel) wheelMetadata(tag string, pure bool) ([]byte, error) {
	tags, err := expandTag(tag)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("Wheel-Version: 1.0\n")
	fmt.Fprintf(&b, "Generator: %s\n", w.b.generator)
	fmt.Fprintf(&b, "Root-Is-Purelib: %t\n", pure)
	for _, t := range tags {
		fmt.Fprintf(&b, "Tag: %s\n", t)
	}
	return []byte(b.String()), nil
}

// mergedMap overlays the build-data mapping on the configured one.
func mergedMap(root string, configured, fromHooks map[string]string) inclusion.InclusionMap {
	merged := maps.Clone(configured)
	if merged == nil {
		merged = map[string]string{}
	}
	maps.Copy(merged, fromHooks)
	return inclusion.NormalizeInclusionMap(merged, root)
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
