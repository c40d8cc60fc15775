package main

import (
	"fmt"
	"os"

	"forgeterm.dev/forgeterm/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		if !cli.Quiet(err) {
			fmt.Fprintln(os.Stderr, "forgeterm:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}
