package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credo/internal/hierarchy"
	"github.com/PolarWolf314/credo/internal/identity"
	"github.com/PolarWolf314/credo/internal/ui"
	"github.com/PolarWolf314/credo/internal/utils"
	"github.com/PolarWolf314/credo/internal/workflows"
)

var showAll bool

func init() {
	showCmd.Flags().BoolVar(&showAll, "all", false, "ignore the configured repo, account and user")
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the credentials credo knows about",
	Long: `Lists every repository, account and user that has a credentials file,
along with the age of each key.

Nothing is written and nothing is asked for.

Examples:
  # Show the credentials matching your config
  credo show

  # Show everything under the root directory
  credo show --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting show command")
		credo, err := newCredo(cmd)
		if err != nil {
			return err
		}

		result, err := credo.Show(cmd.Context(), workflows.ShowOptions{All: showAll})
		if err != nil {
			return err
		}
		renderShow(cmd.OutOrStdout(), result)
		return nil
	},
}

func renderShow(w io.Writer, result *workflows.ShowResult) {
	if len(result.Filters) > 0 {
		var keyvals []string
		for _, f := range result.Filters {
			keyvals = append(keyvals, f.Key, f.Value)
		}
		fmt.Fprintln(w, "Using the filters: "+ui.Scope(keyvals...))
		fmt.Fprintln(w)
	}

	if result.Empty() {
		fmt.Fprintln(w, ui.Warning.Sprint("Didn't find any credential files"))
		return
	}

	if s := result.Single; s != nil {
		fmt.Fprintln(w, "Only found one set of credentials: "+ui.Scope("repo", s.Repo, "account", s.Account, "user", s.User))
		renderKeys(w, "  ", result, s.Location)
		return
	}

	fmt.Fprintln(w, ui.Underline("", "Repositories", '='))
	for _, repoName := range result.Tree.Names() {
		repo := result.Tree.Children[repoName]
		fmt.Fprintln(w)
		fmt.Fprintln(w, ui.Underline("", repoName, '-'))

		for _, accountName := range repo.Names() {
			account := repo.Children[accountName]
			fmt.Fprintln(w, "  "+accountName+accountNote(result, account))

			for _, userName := range account.Names() {
				user := account.Children[userName]
				fmt.Fprintln(w, "    "+userName)
				renderKeys(w, "      ", result, user.CredentialFile)
			}
		}
	}
}

func accountNote(result *workflows.ShowResult, account *hierarchy.Node) string {
	if problem, ok := result.Problems[account.Location]; ok {
		return " " + ui.Error.Sprint(problem)
	}
	switch result.Accounts[account.Location] {
	case identity.Absent:
		return " " + ui.Muted.Sprint("no account id yet")
	case identity.Corrupt:
		return " " + ui.Warning.Sprint("account_id file is corrupt")
	}
	return ""
}

func renderKeys(w io.Writer, indent string, result *workflows.ShowResult, location string) {
	if problem, ok := result.Problems[location]; ok {
		fmt.Fprintln(w, indent+ui.Error.Sprint(problem))
		return
	}

	keys := result.Keys[location]
	if len(keys) == 0 {
		fmt.Fprintln(w, indent+ui.Muted.Sprint("no keys"))
		return
	}
	for _, key := range keys {
		fmt.Fprintf(w, "%s%s %s %s\n", indent, key.AccessKey, utils.FormatAge(key.Age), ui.Muted.Sprint(key.State.String()))
	}
}
