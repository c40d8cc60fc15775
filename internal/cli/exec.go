package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"forgeterm.dev/forgeterm/internal/shell"
)

// newExecCmd creates the exec command: run one git command against the
// profile's engine and exit with its code.
func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- git <command> [<args>]",
		Short: "Run a single git command and exit with its code",
		Long: `Run a single git command against the selected profile and exit with
the command's code, for scripting outside the interactive terminal:

  forgeterm exec -- git status
  forgeterm exec -p work -- git log --oneline -n 5`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cleanup, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			result := shell.Execute(cmd.Context(), args, session)
			if result.Stdout != "" {
				fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
			}
			if result.Stderr != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), result.Stderr)
			}
			if result.Code != 0 {
				return &ExitError{Code: result.Code}
			}
			return nil
		},
	}
}
