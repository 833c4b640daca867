// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"errors"
	"fmt"

	"github.com/invowk/wheelwright/internal/config"
)

var (
	// ErrUnknownTarget is returned by New for a target with no builder.
	ErrUnknownTarget = errors.New("unknown build target")

	// ErrUnknownVersion is returned when a requested version is not
	// supported by the target.
	ErrUnknownVersion = errors.New("unknown build version")
)

// UnknownVersionError reports a requested version the target does not build.
type UnknownVersionError struct {
	Target  string
	Version string
	// Field is the configuration field the version came from, empty when it
	// was requested directly.
	Field string
	Index int
}

// Error implements the error interface.
func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("Unknown version for target `%s`: %s", e.Target, e.Version)
}

// Unwrap returns ErrUnknownVersion and config.ErrInvalid for errors.Is() compatibility.
func (e *UnknownVersionError) Unwrap() []error {
	return []error{ErrUnknownVersion, config.ErrInvalid}
}
