// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// ValidationError is one schema violation.
type ValidationError struct {
	// FilePath is the file being validated.
	FilePath string

	// Field is the path to the invalid value (e.g., "targets.wheel.include[0]").
	Field string

	// Message is the validation error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// FormatError formats a CUE error with field path prefixes.
//
// Error format: <file-path>: <field-path>: <message>
//
// Examples:
//   - pyproject.toml: tool.wheelwright.build.include[0]: conflicting values 3 and string
//   - pyproject.toml: tool.wheelwright.build.reproducible: conflicting values "yes" and bool
//
// A single violation is returned as a *ValidationError; several are joined.
func FormatError(err error, filePath string) error {
	return formatError(err, filePath, "")
}

func formatError(err error, filePath, prefix string) error {
	if err == nil {
		return nil
	}

	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	issues := make([]*ValidationError, 0, len(cueErrors))
	for _, e := range cueErrors {
		format, args := e.Msg()
		issues = append(issues, &ValidationError{
			FilePath: filePath,
			Field:    joinPath(prefix, formatPath(errors.Path(e))),
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if len(issues) == 1 {
		return issues[0]
	}
	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.Field != "" {
			lines = append(lines, issue.Field+": "+issue.Message)
		} else {
			lines = append(lines, issue.Message)
		}
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	case strings.HasPrefix(path, "["):
		return prefix + path
	default:
		return prefix + "." + path
	}
}

// formatPath converts a CUE error path to indexed notation. CUE reports paths
// as flat slices (e.g., ["targets", "wheel", "include", "0"]) where numeric
// elements are list indices; the result is "targets.wheel.include[0]".
func formatPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	var result strings.Builder
	for i, part := range path {
		isIndex := part != ""
		for _, c := range part {
			if c < '0' || c > '9' {
				isIndex = false
				break
			}
		}

		if isIndex && i > 0 {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}

	return result.String()
}
