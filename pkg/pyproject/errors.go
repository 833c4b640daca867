// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMetadata is the sentinel wrapped by every MetadataError.
	ErrInvalidMetadata = errors.New("invalid project metadata")

	// ErrNoProjectFile is returned when the project root has no pyproject.toml.
	ErrNoProjectFile = errors.New("project file not found")
)

// MetadataError reports a malformed field of the [project] table.
type MetadataError struct {
	Field   string
	Message string
}

func metadataErrorf(field, format string, args ...any) *MetadataError {
	return &MetadataError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *MetadataError) Error() string { return e.Message }

// Unwrap returns ErrInvalidMetadata for errors.Is() compatibility.
func (e *MetadataError) Unwrap() error { return ErrInvalidMetadata }
