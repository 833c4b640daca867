// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// ToolName is the [tool.*] table owned by wheelwright.
	ToolName = "wheelwright"

	consoleScriptsGroup = "console_scripts"
	guiScriptsGroup     = "gui_scripts"
)

// DefaultLicenseFiles are the globs used when license-files is not set.
var DefaultLicenseFiles = []string{"LICEN[CS]E*", "COPYING*", "NOTICE*", "AUTHORS*"}

type (
	// Person is an entry of the authors or maintainers list.
	Person struct {
		Name  string
		Email string
	}

	// Project is the metadata of the [project] table.
	Project struct {
		// RawName is the name exactly as written.
		RawName string
		// Name is the normalized name.
		Name    string
		Version string

		Description       string
		Readme            string
		ReadmeContentType string
		// ReadmePath is the readme file relative to the root, when it came from a file.
		ReadmePath string

		RequiresPython    string
		PythonConstraint  SpecifierSet
		License           string
		LicenseExpression string
		// LicenseFiles are root-relative, slash-separated and sorted.
		LicenseFiles []string

		Authors     []Person
		Maintainers []Person
		Keywords    []string
		Classifiers []string
		URLs        map[string]string

		Dependencies []string
		// OptionalDependencies is keyed by normalized extra name.
		OptionalDependencies map[string][]string

		Scripts     map[string]string
		GUIScripts  map[string]string
		EntryPoints map[string]map[string]string

		Dynamic []string
	}
)

// Extras returns the optional-dependency group names in sorted order.
func (p *Project) Extras() []string {
	names := make([]string, 0, len(p.OptionalDependencies))
	for name := range p.OptionalDependencies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsDynamic reports whether field is listed in project.dynamic.
func (p *Project) IsDynamic(field string) bool {
	return slices.Contains(p.Dynamic, field)
}

// ArtifactName returns the name component used in archive file names. With
// strict naming it derives from the normalized name, otherwise from the raw one.
func (p *Project) ArtifactName(strict bool) string {
	if strict {
		return FileNameComponent(p.Name)
	}
	return FileNameComponent(p.RawName)
}

// ProjectID returns "{name}-{version}" as used for archive roots.
func (p *Project) ProjectID(strict bool) string {
	return p.ArtifactName(strict) + "-" + FileNameComponent(p.Version)
}

func parseProject(root string, doc map[string]any) (*Project, error) {
	raw, ok := doc["project"]
	if !ok {
		return nil, metadataErrorf("project", "Missing required table `project`")
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, metadataErrorf("project", "Field `project` must be a table")
	}

	p := &Project{}
	var err error

	if p.Dynamic, err = stringList(table, "dynamic"); err != nil {
		return nil, err
	}
	if slices.Contains(p.Dynamic, "name") {
		return nil, metadataErrorf("project.name", "Static metadata field `name` cannot be present in field `project.dynamic`")
	}

	if p.RawName, err = stringField(table, "name"); err != nil {
		return nil, err
	}
	if p.RawName == "" {
		return nil, metadataErrorf("project.name", "Missing required field `project.name`")
	}
	if !IsValidName(p.RawName) {
		return nil, metadataErrorf("project.name",
			"Required field `project.name` must only contain ASCII letters/digits, underscores, hyphens, and periods, "+
				"and must begin and end with ASCII letters/digits.")
	}
	p.Name = NormalizeName(p.RawName)

	if p.Version, err = resolveVersion(root, doc, table, p.Dynamic); err != nil {
		return nil, err
	}
	if p.Description, err = stringField(table, "description"); err != nil {
		return nil, err
	}
	if err = p.parseReadme(root, table["readme"]); err != nil {
		return nil, err
	}
	if err = p.parseRequiresPython(table); err != nil {
		return nil, err
	}
	if err = p.parseLicense(root, table["license"]); err != nil {
		return nil, err
	}
	if err = p.parseLicenseFiles(root, table["license-files"]); err != nil {
		return nil, err
	}
	if p.Authors, err = people(table, "authors"); err != nil {
		return nil, err
	}
	if p.Maintainers, err = people(table, "maintainers"); err != nil {
		return nil, err
	}
	if p.Keywords, err = stringList(table, "keywords"); err != nil {
		return nil, err
	}
	p.Keywords = sortedUnique(p.Keywords)
	if p.Classifiers, err = stringList(table, "classifiers"); err != nil {
		return nil, err
	}
	p.Classifiers = sortedUnique(p.Classifiers)
	if p.URLs, err = stringTable(table, "urls"); err != nil {
		return nil, err
	}
	if p.Dependencies, err = stringList(table, "dependencies"); err != nil {
		return nil, err
	}
	if err = p.parseOptionalDependencies(table["optional-dependencies"]); err != nil {
		return nil, err
	}
	if p.Scripts, err = stringTable(table, "scripts"); err != nil {
		return nil, err
	}
	if p.GUIScripts, err = stringTable(table, "gui-scripts"); err != nil {
		return nil, err
	}
	if err = p.parseEntryPoints(table["entry-points"]); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) parseRequiresPython(table map[string]any) error {
	rp, err := stringField(table, "requires-python")
	if err != nil {
		return err
	}
	set, err := ParseSpecifiers(rp)
	if err != nil {
		return metadataErrorf("project.requires-python", "Field `project.requires-python` is invalid: %v", err)
	}
	p.RequiresPython = rp
	p.PythonConstraint = set
	return nil
}

func readmeContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return "text/markdown"
	case ".rst":
		return "text/x-rst"
	case ".txt":
		return "text/plain"
	}
	return ""
}

func (p *Project) parseReadme(root string, raw any) error {
	const field = "project.readme"
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		p.ReadmeContentType = readmeContentType(v)
		if p.ReadmeContentType == "" {
			return metadataErrorf(field, "Unable to determine the content-type based on the extension of readme file: %s", v)
		}
		return p.readReadme(root, v)
	case map[string]any:
		ct, ok := v["content-type"].(string)
		if !ok || ct == "" {
			return metadataErrorf(field, "Field `content-type` is required in the `project.readme` table")
		}
		p.ReadmeContentType = ct
		file, hasFile := v["file"].(string)
		text, hasText := v["text"].(string)
		switch {
		case hasFile && hasText:
			return metadataErrorf(field, "Cannot specify both `file` and `text` in the `project.readme` table")
		case hasFile:
			return p.readReadme(root, file)
		case hasText:
			p.Readme = text
			return nil
		}
		return metadataErrorf(field, "Must specify either `file` or `text` in the `project.readme` table")
	}
	return metadataErrorf(field, "Field `project.readme` must be a string or a table")
}

func (p *Project) readReadme(root, rel string) error {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return metadataErrorf("project.readme", "Readme file does not exist: %s", rel)
	}
	p.Readme = string(data)
	p.ReadmePath = filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	return nil
}

func (p *Project) parseLicense(root string, raw any) error {
	const field = "project.license"
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		p.LicenseExpression = v
		return nil
	case map[string]any:
		file, hasFile := v["file"].(string)
		text, hasText := v["text"].(string)
		switch {
		case hasFile && hasText:
			return metadataErrorf(field, "Cannot specify both `file` and `text` in the `project.license` table")
		case hasFile:
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(file)))
			if err != nil {
				return metadataErrorf(field, "License file does not exist: %s", file)
			}
			p.License = string(data)
			return nil
		case hasText:
			p.License = text
			return nil
		}
		return metadataErrorf(field, "Must specify either `file` or `text` in the `project.license` table")
	}
	return metadataErrorf(field, "Field `project.license` must be a string or a table")
}

func (p *Project) parseLicenseFiles(root string, raw any) error {
	const field = "project.license-files"
	globs := DefaultLicenseFiles
	if raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return metadataErrorf(field, "Field `project.license-files` must be an array")
		}
		globs = make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok || s == "" {
				return metadataErrorf(field, "Entry #%d of field `project.license-files` must be a non-empty string", i+1)
			}
			globs = append(globs, s)
		}
	}

	seen := map[string]bool{}
	for _, g := range globs {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(g)))
		if err != nil {
			return metadataErrorf(field, "Invalid license file pattern %q: %v", g, err)
		}
		for _, m := range matches {
			info, statErr := os.Stat(m)
			if statErr != nil || info.IsDir() {
				continue
			}
			rel, relErr := filepath.Rel(root, m)
			if relErr != nil {
				continue
			}
			seen[filepath.ToSlash(rel)] = true
		}
	}
	for rel := range seen {
		p.LicenseFiles = append(p.LicenseFiles, rel)
	}
	slices.Sort(p.LicenseFiles)
	return nil
}

func (p *Project) parseOptionalDependencies(raw any) error {
	const field = "project.optional-dependencies"
	if raw == nil {
		return nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return metadataErrorf(field, "Field `%s` must be a table", field)
	}
	p.OptionalDependencies = make(map[string][]string, len(table))
	for _, extra := range sortedKeys(table) {
		normalized := NormalizeExtra(extra)
		if _, dup := p.OptionalDependencies[normalized]; dup {
			return metadataErrorf(field, "Optional dependency group `%s` of field `%s` conflicts with another group after normalization", extra, field)
		}
		deps, err := toStringList(table[extra], field+"."+extra)
		if err != nil {
			return err
		}
		p.OptionalDependencies[normalized] = deps
	}
	return nil
}

func (p *Project) parseEntryPoints(raw any) error {
	const field = "project.entry-points"
	if raw == nil {
		return nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return metadataErrorf(field, "Field `%s` must be a table", field)
	}
	p.EntryPoints = make(map[string]map[string]string, len(table))
	for _, group := range sortedKeys(table) {
		switch group {
		case consoleScriptsGroup:
			return metadataErrorf(field, "Field `%s` may not be defined as `[%s.%s]`, use `[project.scripts]` instead", field, field, group)
		case guiScriptsGroup:
			return metadataErrorf(field, "Field `%s` may not be defined as `[%s.%s]`, use `[project.gui-scripts]` instead", field, field, group)
		}
		entries, err := toStringTable(table[group], field+"."+group)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			p.EntryPoints[group] = entries
		}
	}
	return nil
}
