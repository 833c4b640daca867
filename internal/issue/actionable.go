// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is a failure reported to the user: the operation that
// failed, the file or directory it concerned, and what to try next.
type ActionableError struct {
	// Operation is a verb phrase such as "build target wheel".
	Operation string

	// Resource is the path involved, if any.
	Resource string

	Suggestions []string

	Cause error
}

// FromError wraps err with operation and resource context and attaches the
// suggestions of the catalog issue matching err. An err that already is an
// ActionableError is returned as is.
func FromError(err error, operation, resource string) *ActionableError {
	if err == nil {
		return nil
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae
	}
	ae = &ActionableError{Operation: operation, Resource: resource, Cause: err}
	if i := Match(err); i != nil {
		ae.Suggestions = i.Suggestions()
	}
	return ae
}

// Error returns "failed to <operation>: <resource>: <cause>".
func (e *ActionableError) Error() string {
	var b strings.Builder
	b.WriteString("failed to ")
	b.WriteString(e.Operation)
	if e.Resource != "" {
		b.WriteString(": ")
		b.WriteString(e.Resource)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error followed by its suggestions. Verbose output adds
// the numbered chain of wrapped errors.
//
//	failed to build target wheel: /src/demo: hook shell failed in initialize: exit status 1
//
//	  • Inspect the hook output, or set WHEELWRIGHT_BUILD_NO_HOOKS=true to skip hooks
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		for depth, err := 1, e.Cause; err != nil; depth, err = depth+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", depth, err.Error())
		}
	}
	return b.String()
}
