// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/wheelwright/internal/builder"
	"github.com/invowk/wheelwright/pkg/coremeta"
)

// newMetadataCommand creates the `wheelwright metadata` command.
func newMetadataCommand(opts *rootOptions) *cobra.Command {
	var (
		version     string
		entryPoints bool
	)
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Print the core metadata of the project",
		Long: `Print the core metadata a wheel of the project would carry.

Without --core-metadata-version the version configured for the wheel
target is used, ` + coremeta.DefaultVersion + ` by default.

` + SubtitleStyle.Render("Examples:") + `
  wheelwright metadata
  wheelwright metadata --core-metadata-version 2.1
  wheelwright metadata --entry-points`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := opts.loadProject()
			if err != nil {
				return err
			}

			if entryPoints {
				fmt.Fprint(cmd.OutOrStdout(), coremeta.EntryPoints(f.Project))
				return nil
			}

			if version == "" {
				env, err := loadEnvironment()
				if err != nil {
					return err
				}
				b, err := builder.New(f, "wheel", builder.Options{Env: env})
				if err != nil {
					return fail(err, "configure target wheel", f.Path)
				}
				version = b.CoreMetadataVersion()
			}

			text, err := coremeta.Render(version, f.Project, coremeta.Options{})
			if err != nil {
				return fail(err, "render the core metadata", f.Path)
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "core-metadata-version", "", "core metadata format version ("+strings.Join(coremeta.KnownVersions(), ", ")+")")
	cmd.Flags().BoolVar(&entryPoints, "entry-points", false, "print the entry point manifest instead")
	return cmd
}
