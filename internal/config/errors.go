// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is the sentinel wrapped by every FieldError.
var ErrInvalid = errors.New("invalid configuration")

// FieldError reports a malformed configuration value. Field is the dotted TOML
// path of the offending option and Index its 1-based position for list or
// table entries (0 when the option is not positional).
type FieldError struct {
	Field   string
	Index   int
	Message string
}

// Errorf builds a FieldError with a formatted message.
func Errorf(field string, index int, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Index: index, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *FieldError) Error() string { return e.Message }

// Unwrap returns ErrInvalid for errors.Is() compatibility.
func (e *FieldError) Unwrap() error { return ErrInvalid }
