package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/utils"
)

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "Print the chosen credentials as shell exports",
	Long: `Finds your credentials, rotates them when they are older than the half
life and prints them as export statements.

Examples:
  # Load credentials into the current shell
  eval "$(credo exports)"

  # Pick the credentials without being asked
  eval "$(credo exports --repo acme --creds ci@prod)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting exports command")
		credo, err := newCredo(cmd)
		if err != nil {
			return err
		}

		result, err := credo.Exports(cmd.Context())
		if err != nil {
			return err
		}

		Logger.Debugf("Printing %d exports for %s", len(result.Names), result.Path)
		for _, name := range result.Names {
			fmt.Fprintf(cmd.OutOrStdout(), "export %s=%s\n", name, utils.ShellQuote(result.Exports[name]))
		}
		return nil
	},
}
