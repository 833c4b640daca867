// SPDX-License-Identifier: MPL-2.0

package coremeta

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/invowk/wheelwright/pkg/pyproject"
)

// DefaultVersion is the metadata version used when none is configured.
const DefaultVersion = "2.4"

// ErrUnknownVersion is returned for an unsupported metadata version.
var ErrUnknownVersion = errors.New("unknown core metadata version")

type (
	// Options adjusts rendering for one build.
	Options struct {
		// ExtraDependencies are appended to the declared dependencies,
		// typically injected by build hooks.
		ExtraDependencies []string
	}

	// feature gates for one metadata version.
	features struct {
		dependencies      bool
		dynamic           bool
		licenseExpression bool
	}
)

var versions = map[string]features{
	"1.2": {},
	"2.1": {dependencies: true},
	"2.2": {dependencies: true, dynamic: true},
	"2.3": {dependencies: true, dynamic: true},
	"2.4": {dependencies: true, dynamic: true, licenseExpression: true},
}

// dynamicFields maps project fields to the core metadata fields they produce.
var dynamicFields = map[string][]string{
	"authors":               {"Author", "Author-email"},
	"classifiers":           {"Classifier"},
	"dependencies":          {"Requires-Dist"},
	"description":           {"Summary"},
	"keywords":              {"Keywords"},
	"license":               {"License", "License-Expression"},
	"license-files":         {"License-File"},
	"maintainers":           {"Maintainer", "Maintainer-email"},
	"optional-dependencies": {"Requires-Dist", "Provides-Extra"},
	"readme":                {"Description", "Description-Content-Type"},
	"requires-python":       {"Requires-Python"},
	"urls":                  {"Project-URL"},
}

// KnownVersions returns the supported metadata versions in ascending order.
func KnownVersions() []string {
	known := make([]string, 0, len(versions))
	for v := range versions {
		known = append(known, v)
	}
	slices.Sort(known)
	return known
}

// CheckVersion validates a configured metadata version.
func CheckVersion(version string) error {
	if _, ok := versions[version]; ok {
		return nil
	}
	return fmt.Errorf("%w `%s`, available: %s", ErrUnknownVersion, version, strings.Join(KnownVersions(), ", "))
}

// Render returns the core metadata of p in the requested format version. An
// empty version selects DefaultVersion.
func Render(version string, p *pyproject.Project, opts Options) (string, error) {
	if version == "" {
		version = DefaultVersion
	}
	if err := CheckVersion(version); err != nil {
		return "", err
	}
	f := versions[version]

	w := &writer{}
	w.field("Metadata-Version", version)
	w.field("Name", p.RawName)
	w.field("Version", p.Version)
	if f.dynamic {
		for _, field := range dynamicCoreFields(p.Dynamic, f) {
			w.field("Dynamic", field)
		}
	}
	w.field("Summary", p.Description)
	for _, label := range sortedKeys(p.URLs) {
		w.field("Project-URL", label+", "+p.URLs[label])
	}
	w.people("Author", p.Authors)
	w.people("Maintainer", p.Maintainers)

	switch {
	case p.License != "":
		w.license(p.License)
	case p.LicenseExpression != "" && !f.licenseExpression:
		w.field("License", p.LicenseExpression)
	}
	if f.licenseExpression {
		w.field("License-Expression", p.LicenseExpression)
		for _, lf := range p.LicenseFiles {
			w.field("License-File", lf)
		}
	}

	if len(p.Keywords) > 0 {
		w.field("Keywords", strings.Join(p.Keywords, ","))
	}
	for _, c := range p.Classifiers {
		w.field("Classifier", c)
	}
	w.field("Requires-Python", p.RequiresPython)

	if !f.dependencies {
		return w.String(), nil
	}

	for _, dep := range p.Dependencies {
		w.field("Requires-Dist", dep)
	}
	for _, dep := range opts.ExtraDependencies {
		w.field("Requires-Dist", dep)
	}
	for _, extra := range p.Extras() {
		w.field("Provides-Extra", extra)
		for _, dep := range p.OptionalDependencies[extra] {
			w.field("Requires-Dist", extraRequirement(dep, extra))
		}
	}

	if p.Readme != "" {
		w.field("Description-Content-Type", p.ReadmeContentType)
		w.b.WriteString("\n")
		w.b.WriteString(p.Readme)
	}
	return w.String(), nil
}

// extraRequirement attaches an `extra == '<name>'` marker to dep, combining it
// with any marker the requirement already has.
func extraRequirement(dep, extra string) string {
	if name, marker, ok := strings.Cut(dep, ";"); ok {
		return fmt.Sprintf("%s; (%s) and extra == '%s'", strings.TrimSpace(name), strings.TrimSpace(marker), extra)
	}
	if strings.Contains(dep, "@ ") {
		// A URL requirement needs whitespace before the marker separator.
		return fmt.Sprintf("%s ; extra == '%s'", dep, extra)
	}
	return fmt.Sprintf("%s; extra == '%s'", dep, extra)
}

func dynamicCoreFields(dynamic []string, f features) []string {
	var out []string
	seen := map[string]bool{}
	for _, field := range dynamic {
		for _, core := range dynamicFields[field] {
			if (core == "License-Expression" || core == "License-File") && !f.licenseExpression {
				continue
			}
			if !seen[core] {
				seen[core] = true
				out = append(out, core)
			}
		}
	}
	return out
}

type writer struct {
	b strings.Builder
}

// field writes "Name: value" and skips empty values.
func (w *writer) field(name, value string) {
	if value == "" {
		return
	}
	w.b.WriteString(name)
	w.b.WriteString(": ")
	w.b.WriteString(value)
	w.b.WriteString("\n")
}

// people writes the name-only and email-bearing entries as two fields.
func (w *writer) people(field string, people []pyproject.Person) {
	var names, emails []string
	for _, p := range people {
		switch {
		case p.Email == "":
			names = append(names, p.Name)
		case p.Name == "":
			emails = append(emails, p.Email)
		default:
			emails = append(emails, p.Name+" <"+p.Email+">")
		}
	}
	w.field(field, strings.Join(names, ", "))
	w.field(field+"-email", strings.Join(emails, ", "))
}

// license writes free-form license text; continuation lines are indented.
func (w *writer) license(text string) {
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), "\n")
	w.field("License", lines[0])
	for _, line := range lines[1:] {
		w.b.WriteString("        ")
		w.b.WriteString(line)
		w.b.WriteString("\n")
	}
}

func (w *writer) String() string { return w.b.String() }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
