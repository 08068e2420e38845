package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	kerrors "github.com/PolarWolf314/credo/internal/errors"
	logger "github.com/PolarWolf314/credo/internal/logging"
	"github.com/PolarWolf314/credo/internal/ui"
)

var (
	verbose    bool
	debug      bool
	configPath string
	overrides  = struct {
		rootDir  string
		repo     string
		account  string
		user     string
		creds    string
		halfLife time.Duration
	}{}
	Logger logger.Logger

	RootCmd = &cobra.Command{
		Use:   "credo",
		Short: "Credo - A CLI for storing and rotating cloud credentials.",
		Long: `Credo keeps cloud credentials in a tree of repositories, accounts and users,
rotates them when they get old and hands them to your shell.

Usage:
  credo <command> [flags]

Run 'credo help <command>' for more details on a specific command.

Interrupting credo, or closing its input while it waits on a prompt, prints
"Cancelled" and exits with status 130. Nothing half written is left behind.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so exports can be evaluated straight from stdout.
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.ErrOrStderr(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Run "+ui.Code.Sprint("credo --help")+" to see available commands.")
		},
	}
)

func init() {
	flags := RootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&debug, "debug", "d", false, "enable debug output")
	flags.StringVar(&configPath, "config", "", "config file to use instead of the default")
	flags.StringVar(&overrides.rootDir, "root-dir", "", "directory holding the credentials tree")
	flags.StringVar(&overrides.repo, "repo", "", "repository to use")
	flags.StringVar(&overrides.account, "account", "", "account to use")
	flags.StringVar(&overrides.user, "user", "", "user to use")
	flags.StringVar(&overrides.creds, "creds", "", "user and account to use, as user@account")
	flags.DurationVar(&overrides.halfLife, "half-life", 0, "rotate keys older than this")

	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(exportsCmd)
	RootCmd.AddCommand(execCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(rotateCmd)
	RootCmd.AddCommand(invalidateCmd)
	RootCmd.AddCommand(logCmd)
}

// cancelledCode is the exit status for an interrupt or a cancelled prompt.
const cancelledCode = 130

func banner(w io.Writer) {
	fig := figure.NewColorFigure("Credo", "alligator2", "green", true)
	if color.NoColor {
		fmt.Fprintln(w, fig.String())
		return
	}
	fmt.Fprintln(w, fig.ColorString())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Prompts block on stdin, which the context can't interrupt. Files are
	// replaced atomically so exiting mid-command leaves nothing half written.
	finished := make(chan struct{})
	go func() {
		<-ctx.Done()
		select {
		case <-finished:
			return
		default:
		}
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, ui.Muted.Sprint("Cancelled"))
		os.Exit(cancelledCode)
	}()

	err := RootCmd.ExecuteContext(ctx)
	close(finished)
	return exitCode(RootCmd.ErrOrStderr(), err)
}

// exitCode renders err and picks the matching exit code.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if errors.Is(err, kerrors.ErrUserCancelled) {
		fmt.Fprintln(w, ui.Muted.Sprint("Cancelled"))
		return cancelledCode
	}

	fmt.Fprintln(w, renderError(err))
	return 1
}

// renderError formats err with its kind, message and context on separate lines.
func renderError(err error) string {
	var e *kerrors.Error
	if !errors.As(err, &e) {
		return ui.Failed(err.Error())
	}

	out := ui.Failed(e.Message)
	if e.Kind != nil {
		out += " " + ui.Muted.Sprint(e.Kind.Error())
	}
	for _, attr := range e.Attrs {
		out += "\n  " + ui.Info.Sprint(attr.Key) + ": " + attr.Value
	}
	if err.Error() != e.Error() {
		out += "\n" + ui.Muted.Sprint(err.Error())
	}
	return out
}

// resetCobraFlagState clears Changed on every flag so tests can reuse commands.
func resetCobraFlagState(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		_ = f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetCobraFlagState(child)
	}
}
