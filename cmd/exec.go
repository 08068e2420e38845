package cmd

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/utils"
)

var execCmd = &cobra.Command{
	Use:   "exec -- command [args...]",
	Short: "Run a command with the chosen credentials in its environment",
	Long: `Finds your credentials, rotates them when due and runs the command with
them exported. The command's exit code is passed through.

Examples:
  credo exec -- aws sts get-caller-identity`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting exec command")
		credo, err := newCredo(cmd)
		if err != nil {
			return err
		}

		result, err := credo.Exports(cmd.Context())
		if err != nil {
			return err
		}

		Logger.Debugf("Running %s with credentials for %s", args[0], result.Path)
		child := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
		child.Env = utils.MergeEnv(os.Environ(), result.Exports)
		child.Stdin = cmd.InOrStdin()
		child.Stdout = cmd.OutOrStdout()
		child.Stderr = cmd.ErrOrStderr()
		return child.Run()
	},
}
