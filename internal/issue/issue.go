// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"slices"

	"github.com/charmbracelet/glamour"

	"github.com/invowk/wheelwright/internal/builder"
	"github.com/invowk/wheelwright/internal/config"
	"github.com/invowk/wheelwright/internal/hooks"
	"github.com/invowk/wheelwright/internal/walk"
	"github.com/invowk/wheelwright/internal/watch"
	"github.com/invowk/wheelwright/pkg/coremeta"
	"github.com/invowk/wheelwright/pkg/pyproject"
)

// Id identifies a catalog issue.
type Id int

const (
	ProjectFileNotFoundId Id = iota + 1
	InvalidMetadataId
	InvalidConfigurationId
	UnknownTargetId
	UnknownVersionId
	UnknownMetadataVersionId
	UnknownHookId
	HookFailedId
	ForceIncludeNotFoundId
	WatchExhaustedId
)

type (
	// MarkdownMsg is guidance written in Markdown.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is one known failure with its guidance.
	Issue struct {
		id          Id
		cause       error
		mdMsg       MarkdownMsg
		suggestions []string
		docLinks    []HttpLink
	}
)

const (
	pyprojectSpec    HttpLink = "https://packaging.python.org/en/latest/specifications/pyproject-toml/"
	coreMetadataSpec HttpLink = "https://packaging.python.org/en/latest/specifications/core-metadata/"
	wheelSpec        HttpLink = "https://packaging.python.org/en/latest/specifications/binary-distribution-format/"
	sdistSpec        HttpLink = "https://packaging.python.org/en/latest/specifications/source-distribution-format/"
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the guidance text.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Suggestions returns one-line hints suitable for an ActionableError.
func (i *Issue) Suggestions() []string { return slices.Clone(i.suggestions) }

// DocLinks returns the documentation links of the issue.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render renders the guidance and its links for the terminal. stylePath is
// a glamour style name such as "dark", "light" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "\n- <" + string(link) + ">"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	// catalog is ordered from the most to the least specific cause, so that
	// Match reports the narrowest issue of a wrapped chain.
	catalog = []*Issue{
		{
			id:    ProjectFileNotFoundId,
			cause: pyproject.ErrNoProjectFile,
			mdMsg: `
# No pyproject.toml found

wheelwright builds the project whose root holds a ` + "`pyproject.toml`" + `.

- Run the command from the project root, or pass ` + "`--root`" + `.`,
			suggestions: []string{"Run wheelwright from the directory holding pyproject.toml, or pass --root"},
			docLinks:    []HttpLink{pyprojectSpec},
		},
		{
			id:    UnknownTargetId,
			cause: builder.ErrUnknownTarget,
			mdMsg: `
# Unknown build target

The available targets are ` + "`sdist`" + ` and ` + "`wheel`" + `.`,
			suggestions: []string{"Use --target sdist or --target wheel"},
			docLinks:    []HttpLink{sdistSpec, wheelSpec},
		},
		{
			id:    UnknownVersionId,
			cause: builder.ErrUnknownVersion,
			mdMsg: `
# Unknown build version

Every target builds ` + "`standard`" + `; the wheel target also builds ` + "`editable`" + `.
Check the ` + "`versions`" + ` option of the target and the versions requested on the command line.`,
			suggestions: []string{"Request only versions the target supports (standard, editable for wheels)"},
		},
		{
			id:    UnknownMetadataVersionId,
			cause: coremeta.ErrUnknownVersion,
			mdMsg: `
# Unknown core metadata version

Set ` + "`core-metadata-version`" + ` to one of 1.2, 2.1, 2.2, 2.3 or 2.4, or remove it to use 2.4.`,
			suggestions: []string{"Set core-metadata-version to a known version or remove it"},
			docLinks:    []HttpLink{coreMetadataSpec},
		},
		{
			id:    UnknownHookId,
			cause: hooks.ErrUnknownHook,
			mdMsg: `
# Unknown build hook

Every table under ` + "`[tool.wheelwright.build.hooks]`" + ` names a hook. The built-in hooks are
` + "`version`" + ` and ` + "`shell`" + `.`,
			suggestions: []string{"Rename the hook table to a built-in hook (version, shell)"},
		},
		{
			id:    HookFailedId,
			cause: hooks.ErrHookFailed,
			mdMsg: `
# A build hook failed

The hook output above shows what went wrong. Set ` + "`WHEELWRIGHT_BUILD_NO_HOOKS=true`" + `
to build without hooks while investigating.`,
			suggestions: []string{"Inspect the hook output, or set WHEELWRIGHT_BUILD_NO_HOOKS=true to skip hooks"},
		},
		{
			id:    ForceIncludeNotFoundId,
			cause: walk.ErrForceIncludeNotFound,
			mdMsg: `
# Forced inclusion not found

A source listed in ` + "`force-include`" + ` (or added by a hook) does not exist.`,
			suggestions: []string{"Fix the source path in force-include, or generate the file in a build hook"},
		},
		{
			id:    WatchExhaustedId,
			cause: watch.ErrExhausted,
			mdMsg: `
# Out of file watches

` + "`--watch`" + ` registers every directory of the project. The operating system
refused another watch or file handle.

- On Linux, raise ` + "`fs.inotify.max_user_watches`" + ` (for example with
  ` + "`sysctl fs.inotify.max_user_watches=524288`" + `).
- Keep large generated directories out of the project root, or build without ` + "`--watch`" + `.`,
			suggestions: []string{"Raise fs.inotify.max_user_watches, or move large generated directories out of the project"},
		},
		{
			id:    InvalidMetadataId,
			cause: pyproject.ErrInvalidMetadata,
			mdMsg: `
# Invalid project metadata

The ` + "`[project]`" + ` table of pyproject.toml does not follow the specification.`,
			suggestions: []string{"Fix the [project] table of pyproject.toml"},
			docLinks:    []HttpLink{pyprojectSpec},
		},
		{
			id:    InvalidConfigurationId,
			cause: config.ErrInvalid,
			mdMsg: `
# Invalid build configuration

A value under ` + "`[tool.wheelwright.build]`" + ` has the wrong type or is empty.
The message names the offending field and, for lists, the 1-based entry.`,
			suggestions: []string{"Fix the field named in the message under [tool.wheelwright.build]"},
		},
	}
)

// Values returns every catalog issue.
func Values() []*Issue {
	return slices.Clone(catalog)
}

// Get returns the issue with id, or nil.
func Get(id Id) *Issue {
	for _, i := range catalog {
		if i.id == id {
			return i
		}
	}
	return nil
}

// Match returns the issue whose cause is in the chain of err, or nil.
func Match(err error) *Issue {
	if err == nil {
		return nil
	}
	for _, i := range catalog {
		if errors.Is(err, i.cause) {
			return i
		}
	}
	return nil
}
