// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// DefaultVersionPattern locates `__version__ = "1.2.3"` or `VERSION = '1.2.3'`
// assignments. The named group "version" captures the value.
const DefaultVersionPattern = `(?im)^(?:__version__|VERSION)\s*=\s*['"]v?(?P<version>[^'"\r\n]+)['"]`

// VersionSource reads a version string out of a file with a regular
// expression.
type VersionSource struct {
	// Path is the file, relative to the project root.
	Path    string
	Pattern *regexp.Regexp
}

// NewVersionSource compiles pattern (DefaultVersionPattern when empty).
func NewVersionSource(path, pattern string) (*VersionSource, error) {
	if pattern == "" {
		pattern = DefaultVersionPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, metadataErrorf("tool.wheelwright.version.pattern", "Invalid version pattern: %v", err)
	}
	return &VersionSource{Path: path, Pattern: re}, nil
}

// Find returns the span and value of the version in content. The span
// indexes the captured value so it can be replaced in place.
func (s *VersionSource) Find(content string) (start, end int, version string, ok bool) {
	loc := s.Pattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return 0, 0, "", false
	}
	group := s.Pattern.SubexpIndex("version")
	if group < 0 {
		group = 1
	}
	if 2*group+1 >= len(loc) || loc[2*group] < 0 {
		return 0, 0, "", false
	}
	start, end = loc[2*group], loc[2*group+1]
	return start, end, content[start:end], true
}

// Read returns the version found in <root>/<Path>.
func (s *VersionSource) Read(root string) (string, error) {
	const field = "tool.wheelwright.version.path"
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(s.Path)))
	if err != nil {
		return "", metadataErrorf(field, "file does not exist: %s", s.Path)
	}
	_, _, version, ok := s.Find(string(data))
	if !ok {
		return "", metadataErrorf(field, "unable to parse the version from the file: %s", s.Path)
	}
	return strings.TrimSpace(version), nil
}

func resolveVersion(root string, doc, project map[string]any, dynamic []string) (string, error) {
	static, err := stringField(project, "version")
	if err != nil {
		return "", err
	}
	isDynamic := slices.Contains(dynamic, "version")

	switch {
	case static != "" && isDynamic:
		return "", metadataErrorf("project.version",
			"Metadata field `version` cannot be both statically defined and listed in field `project.dynamic`")
	case static != "":
		return static, nil
	case !isDynamic:
		return "", metadataErrorf("project.version",
			"Field `project.version` can only be resolved dynamically if `version` is in field `project.dynamic`")
	}

	var table map[string]any
	if tool, ok := doc["tool"].(map[string]any); ok {
		if ww, ok := tool[ToolName].(map[string]any); ok {
			table, _ = ww["version"].(map[string]any)
		}
	}
	path, _ := table["path"].(string)
	if path == "" {
		return "", metadataErrorf("tool.wheelwright.version.path",
			"Option `path` must be specified in table `tool.wheelwright.version` when the version is dynamic")
	}
	pattern, _ := table["pattern"].(string)
	source, err := NewVersionSource(path, pattern)
	if err != nil {
		return "", err
	}
	return source.Read(root)
}
