// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"

	"github.com/invowk/wheelwright/pkg/cueutil"
)

const (
	// ProjectFile is the project descriptor holding every table.
	ProjectFile = "pyproject.toml"

	// BuildField is the dotted path of the global build table.
	BuildField = "tool.wheelwright.build"
)

//go:embed build_schema.cue
var buildSchema []byte

// ValidateBuildTable checks the structure of the [tool.wheelwright.build]
// table against the embedded schema. It only catches type errors; value
// constraints (empty entries, duplicates, unknown hooks) are enforced when
// the table is resolved. Violations wrap ErrInvalid.
func ValidateBuildTable(table Table) error {
	err := cueutil.Validate(buildSchema, "#Build", table,
		cueutil.WithFilename(ProjectFile),
		cueutil.WithPathPrefix(BuildField),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// TargetField returns the dotted path of a target table.
func TargetField(target string) string {
	return BuildField + ".targets." + target
}
