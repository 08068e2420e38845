package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/ui"
	"github.com/PolarWolf314/credo/internal/workflows"
)

var (
	logLimit int
	logMine  bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "show only the last N changes")
	logCmd.Flags().BoolVar(&logMine, "mine", false, "show only changes to the chosen account and user")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logMine = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the change history of a repository",
	Long: `Lists the changes credo made to the chosen repository, oldest first.

Examples:
  # Show the last 10 changes
  credo log -n 10

  # Show only changes to your credentials
  credo log --mine`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting log command")
		credo, err := newCredo(cmd)
		if err != nil {
			return err
		}

		result, err := credo.History(cmd.Context(), workflows.LogOptions{Limit: logLimit, Mine: logMine})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(result.Entries) == 0 {
			fmt.Fprintln(out, ui.Muted.Sprint("No changes recorded for "+result.Repository))
			return nil
		}
		for _, entry := range result.Entries {
			who := entry.Account
			if entry.User != "" {
				who = entry.User + "@" + entry.Account
			}
			when := entry.Timestamp
			if t, err := entry.Time(); err == nil {
				when = t.Local().Format("2006-01-02 15:04:05")
			}
			line := fmt.Sprintf("%s  %s", ui.Muted.Sprint(when), entry.Description)
			if who != "" {
				line += "  " + ui.Highlight.Sprint(who)
			}
			if len(entry.Paths) > 0 {
				line += "  " + ui.Path.Sprint(strings.Join(entry.Paths, ", "))
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}
