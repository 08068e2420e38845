package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/ui"
	"github.com/PolarWolf314/credo/internal/workflows"
)

var (
	importSource   string
	importRemember bool
)

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "where to read the key from: specified, environment, aws_config, boto_config or keyring")
	importCmd.Flags().BoolVar(&importRemember, "remember", false, "also keep the secret in the credo keyring")
}

// resetImportCommandState resets the import command's global state for testing.
func resetImportCommandState() {
	importSource = ""
	importRemember = false
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an existing key into credo",
	Long: `Reads an access key and secret from your environment, an awscli or boto
config file, the credo keyring or the prompt, and stores it for the chosen
repository, account and user. Anything missing along the way is created.

Examples:
  # Ask for everything
  credo import

  # Take the key from the environment and keep a copy in the keyring
  credo import --source environment --remember`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command")
		credo, err := newCredo(cmd)
		if err != nil {
			return err
		}

		result, err := credo.Import(cmd.Context(), workflows.ImportOptions{
			Source:   importSource,
			Remember: importRemember,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Done("Created credentials at "+ui.Path.Sprint(result.Location)))
		fmt.Fprintf(out, "  %s from %s\n", result.AccessKey, result.Source.Label())
		if result.Counts.Created > 0 || result.Counts.Deleted > 0 {
			fmt.Fprintf(out, "  Created %d credentials and deleted %d credentials\n", result.Counts.Created, result.Counts.Deleted)
		}
		return nil
	},
}
