// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

type (
	// Option configures Validate.
	Option func(*options)

	options struct {
		filename   string
		pathPrefix string
	}
)

// WithFilename sets the file name reported in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithPathPrefix sets a path prepended to every reported field path, for
// values that were extracted from a larger document.
func WithPathPrefix(prefix string) Option {
	return func(o *options) { o.pathPrefix = prefix }
}

// Validate performs the schema check in three steps:
//
//  1. Compile the embedded schema and look up the definition
//  2. Encode value into CUE and unify it with the definition
//  3. Validate the unified value, requiring concrete values
//
// A nil value is treated as an empty struct.
func Validate(schema []byte, definition string, value any, opts ...Option) error {
	o := options{filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if root.Err() != nil {
		return fmt.Errorf("internal error: schema definition %s not found: %w", definition, root.Err())
	}

	if value == nil {
		value = map[string]any{}
	}
	userValue := ctx.Encode(value)
	if userValue.Err() != nil {
		return formatError(userValue.Err(), o.filename, o.pathPrefix)
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatError(err, o.filename, o.pathPrefix)
	}
	return nil
}
