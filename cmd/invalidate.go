package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/ui"
)

var invalidateForce bool

func init() {
	invalidateCmd.Flags().BoolVar(&invalidateForce, "force", false, "skip confirmation prompt")
}

// resetInvalidateCommandState resets the invalidate command's global state for testing.
func resetInvalidateCommandState() {
	invalidateForce = false
}

var invalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Delete every key of the chosen credentials",
	Long: `Removes every key from the credentials file and deletes them with your
provider. Use this when a key may have leaked.

The keys are removed locally even when the provider can't be reached.

Examples:
  # Invalidate with a confirmation prompt
  credo invalidate

  # Invalidate without confirmation
  credo invalidate --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting invalidate command")
		credo, err := newCredo(cmd)
		if err != nil {
			return err
		}

		if !invalidateForce {
			answer, err := credo.Chooser.Choose(
				ui.Warning.Sprint("Warning:")+" This deletes every key of the credentials you pick. Continue?",
				[]string{"No", "Yes"})
			if err != nil {
				return err
			}
			if answer != "Yes" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Sprint("Nothing was invalidated"))
				return nil
			}
		}

		result, err := credo.Invalidate(cmd.Context())
		if result != nil {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Done("Invalidated every key of "+result.Path))
		}
		return err
	},
}
