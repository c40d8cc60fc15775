package cli

import (
	"github.com/spf13/cobra"

	"forgeterm.dev/forgeterm/internal/term"
)

// NewRootCmd creates the root cobra command. Running it with no
// subcommand opens the interactive terminal for the selected profile.
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "forgeterm",
		Short: "Forgeterm is a git terminal for repositories hosted on a forge network",
		Long: `Forgeterm is a git terminal for repositories hosted on a forge network.

It opens a prompt bound to one repository profile and interprets the
familiar git commands against that repository's engine, whether the
engine runs in this process, behind an HTTP endpoint, or over a
websocket.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runTerminal,
	}

	rootCmd.PersistentFlags().StringP("profile", "p", "", "Profile to open (defaults to FORGETERM_PROFILE, then the stored default)")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (defaults to the user config directory)")

	rootCmd.AddCommand(newTermCmd())
	rootCmd.AddCommand(newExecCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}

// newTermCmd creates the term command, the explicit spelling of what a
// bare invocation does.
func newTermCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "term",
		Short:         "Open the interactive terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runTerminal,
	}
}

func runTerminal(cmd *cobra.Command, _ []string) error {
	session, cleanup, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	code, err := term.Run(cmd.Context(), session)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
