package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"forgeterm.dev/forgeterm/internal/config"
	"forgeterm.dev/forgeterm/internal/forge"
	"forgeterm.dev/forgeterm/internal/output"
	"forgeterm.dev/forgeterm/internal/term"
)

// newProfileCmd creates the profile command group
func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage repository profiles",
		Long:  `Manage the named profiles the terminal can open: which repository they address and which engine answers for it.`,
	}

	cmd.AddCommand(newProfileListCmd())
	cmd.AddCommand(newProfileAddCmd())
	cmd.AddCommand(newProfileRemoveCmd())

	return cmd
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			console := output.NewConsole()
			names := cfg.Names()
			if len(names) == 0 {
				console.Info("No profiles yet. Add one with 'forgeterm profile add'.")
				return nil
			}

			var b strings.Builder
			for _, name := range names {
				profile := cfg.Profiles[name]
				marker := "  "
				if name == cfg.DefaultProfile {
					marker = "* "
				}
				engine := profile.Engine
				if engine == "" {
					engine = "."
				}
				fmt.Fprintf(&b, "%s%-16s %s", marker, name, engine)
				if profile.RID != "" {
					fmt.Fprintf(&b, "  %s", profile.RID)
				}
				b.WriteString("\n")
			}
			console.Page(b.String())
			return nil
		},
	}
}

func newProfileAddCmd() *cobra.Command {
	var (
		engine     string
		rid        string
		relay      string
		owner      string
		localID    string
		socket     string
		token      string
		setDefault bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a profile",
		Long: `Add a profile. Fields left off the command line are prompted for on a
TTY; in scripts pass them as flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, exists := cfg.Profiles[name]; exists {
				return fmt.Errorf("profile '%s' already exists", name)
			}

			if engine == "" && term.IsTTY() {
				prompt := &survey.Input{
					Message: "Engine (path, http(s):// or ws(s):// endpoint)",
					Default: ".",
				}
				if err := survey.AskOne(prompt, &engine); err != nil {
					return fmt.Errorf("canceled")
				}
			}
			if rid == "" && term.IsTTY() {
				prompt := &survey.Input{
					Message: "Repository id (rid:..., blank for a local-only profile)",
				}
				if err := survey.AskOne(prompt, &rid); err != nil {
					return fmt.Errorf("canceled")
				}
			}
			if token == "" && term.IsTTY() && strings.Contains(engine, "://") {
				prompt := &survey.Password{
					Message: "Engine token (blank for none)",
				}
				if err := survey.AskOne(prompt, &token); err != nil {
					return fmt.Errorf("canceled")
				}
			}

			if rid != "" {
				if _, err := forge.ParseRID(rid); err != nil {
					return err
				}
			}
			if owner != "" {
				if _, err := forge.ParseDID(owner); err != nil {
					return err
				}
			}

			cfg.Set(name, config.Profile{
				Relay:   relay,
				RID:     rid,
				Owner:   owner,
				LocalID: localID,
				Engine:  engine,
				Socket:  socket,
				Token:   token,
			})
			// The first profile becomes the default so a bare
			// 'forgeterm' does something useful immediately.
			if setDefault || len(cfg.Profiles) == 1 {
				cfg.DefaultProfile = name
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}

			output.NewConsole().Info("Saved profile '%s'.", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "", "Engine endpoint: a repository path, an http(s):// URL, or a ws(s):// URL")
	cmd.Flags().StringVar(&rid, "rid", "", "Repository id (rid:...)")
	cmd.Flags().StringVar(&relay, "relay", "", "Relay host the engine synchronizes with")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner identity (did:...)")
	cmd.Flags().StringVar(&localID, "local-id", "", "Local working-copy id")
	cmd.Flags().StringVar(&socket, "socket", "", "Unix socket path for an http engine")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for the engine")
	cmd.Flags().BoolVar(&setDefault, "default", false, "Make this the default profile")

	return cmd
}

func newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path, cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Remove(name) {
				return fmt.Errorf("unknown profile '%s'", name)
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}

			output.NewConsole().Info("Removed profile '%s'.", name)
			return nil
		},
	}
}
