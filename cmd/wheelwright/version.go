// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCommand creates the `wheelwright version` command. The version
// of wheelwright itself is printed by --version.
func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the project",
		Long: `Print the version of the project, static or read from its version source.

Use ` + CmdStyle.Render("wheelwright --version") + ` for the version of wheelwright itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := opts.loadProject()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Project.Version)
			return nil
		},
	}
}
