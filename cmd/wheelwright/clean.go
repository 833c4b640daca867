// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCleanCommand creates the `wheelwright clean` command.
func newCleanCommand(opts *rootOptions) *cobra.Command {
	var (
		targets   []string
		directory string
	)
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove previous artifacts and run the hook clean phase",
		Long: `Remove the artifacts of each target from the output directory, then
run the clean phase of every enabled build hook.

` + SubtitleStyle.Render("Examples:") + `
  wheelwright clean
  wheelwright clean -t wheel:standard,editable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs, err := parseTargets(targets)
			if err != nil {
				return fail(err, "parse the targets", "")
			}
			f, err := opts.loadProject()
			if err != nil {
				return err
			}
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			builders, err := newBuilders(cmd, opts, f, env, specs)
			if err != nil {
				return err
			}

			for i, b := range builders {
				if err := b.Clean(cmd.Context(), directory, specs[i].versions); err != nil {
					return fail(err, "clean target "+b.Name(), f.Root)
				}
				fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" cleaned "+CmdStyle.Render(b.Name()))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "target to clean, as name[:version,...] (repeatable)")
	cmd.Flags().StringVarP(&directory, "directory", "d", "", "output directory (default from configuration, then dist)")
	return cmd
}
