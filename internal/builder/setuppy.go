// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

// setupPy renders a setup.py equivalent to the project metadata for tools
// that cannot read pyproject.toml. packages are slash-separated package
// directories relative to the root.
func setupPy(p *pyproject.Project, packages, extraDependencies []string) string {
	var b strings.Builder
	b.WriteString("# -*- coding: utf-8 -*-\nfrom setuptools import setup\n\nsetup(\n")

	arg := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "    %s=%s,\n", name, pyRepr(value))
		}
	}
	list := func(name string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "    %s=[\n", name)
		for _, item := range items {
			fmt.Fprintf(&b, "        %s,\n", pyRepr(item))
		}
		b.WriteString("    ],\n")
	}

	arg("name", p.Name)
	arg("version", p.Version)
	arg("description", p.Description)
	arg("long_description", p.Readme)

	authorNames, authorEmails := peopleData(p.Authors)
	arg("author", strings.Join(authorNames, ", "))
	arg("author_email", strings.Join(authorEmails, ", "))
	maintainerNames, maintainerEmails := peopleData(p.Maintainers)
	arg("maintainer", strings.Join(maintainerNames, ", "))
	arg("maintainer_email", strings.Join(maintainerEmails, ", "))

	license := p.License
	if license == "" {
		license = p.LicenseExpression
	}
	arg("license", license)
	list("classifiers", p.Classifiers)

	if len(p.URLs) > 0 {
		b.WriteString("    project_urls={\n")
		for _, label := range config.SortedKeys(p.URLs) {
			fmt.Fprintf(&b, "        %s: %s,\n", pyRepr(label), pyRepr(p.URLs[label]))
		}
		b.WriteString("    },\n")
	}

	arg("python_requires", p.RequiresPython)
	list("install_requires", append(append([]string{}, p.Dependencies...), extraDependencies...))

	if extras := p.Extras(); len(extras) > 0 {
		b.WriteString("    extras_require={\n")
		for _, extra := range extras {
			fmt.Fprintf(&b, "        %s: [\n", pyRepr(extra))
			for _, dep := range p.OptionalDependencies[extra] {
				fmt.Fprintf(&b, "            %s,\n", pyRepr(dep))
			}
			b.WriteString("        ],\n")
		}
		b.WriteString("    },\n")
	}

	groups := entryPointGroups(p)
	if len(groups) > 0 {
		b.WriteString("    entry_points={\n")
		for _, g := range groups {
			fmt.Fprintf(&b, "        %s: [\n", pyRepr(g.name))
			for _, name := range config.SortedKeys(g.entries) {
				fmt.Fprintf(&b, "            %s,\n", pyRepr(name+" = "+g.entries[name]))
			}
			b.WriteString("        ],\n")
		}
		b.WriteString("    },\n")
	}

	if len(packages) > 0 {
		srcLayout := false
		b.WriteString("    packages=[\n")
		for _, pkg := range packages {
			if rest, ok := strings.CutPrefix(pkg, "src/"); ok {
				srcLayout = true
				pkg = rest
			}
			fmt.Fprintf(&b, "        %s,\n", pyRepr(strings.ReplaceAll(pkg, "/", ".")))
		}
		b.WriteString("    ],\n")
		if srcLayout {
			b.WriteString("    package_dir={'': 'src'},\n")
		}
	}

	b.WriteString(")\n")
	return b.String()
}

type entryPointGroup struct {
	name    string
	entries map[string]string
}

// entryPointGroups lists the script groups first, then the other groups in
// sorted order, skipping empty ones.
func entryPointGroups(p *pyproject.Project) []entryPointGroup {
	groups := []entryPointGroup{
		{name: "console_scripts", entries: p.Scripts},
		{name: "gui_scripts", entries: p.GUIScripts},
	}
	for _, name := range config.SortedKeys(p.EntryPoints) {
		groups = append(groups, entryPointGroup{name: name, entries: p.EntryPoints[name]})
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g.entries) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// peopleData splits people into bare names and email addresses, a name
// with an email being rendered as "Name <email>".
func peopleData(people []pyproject.Person) (names, emails []string) {
	for _, person := range people {
		switch {
		case person.Email != "" && person.Name != "":
			emails = append(emails, person.Name+" <"+person.Email+">")
		case person.Email != "":
			emails = append(emails, person.Email)
		case person.Name != "":
			names = append(names, person.Name)
		}
	}
	return names, emails
}

// pyRepr quotes s as a Python string literal: single quotes unless s holds a
// single quote and no double quote.
func pyRepr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == rune(quote) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
