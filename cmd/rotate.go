package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/ui"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Replace every active key of the chosen credentials",
	Long: `Creates a new key with your provider, then deletes the keys it replaces.

A key the provider refuses to delete is kept and retried on the next rotation.

Examples:
  credo rotate --repo acme --creds ci@prod`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting rotate command")
		credo, err := newCredo(cmd)
		if err != nil {
			return err
		}

		result, err := credo.Rotate(cmd.Context())
		if result != nil {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Done(fmt.Sprintf("Created %d credentials and deleted %d credentials for %s",
				result.Counts.Created, result.Counts.Deleted, result.Path)))
		}
		return err
	},
}
