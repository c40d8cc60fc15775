package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"forgeterm.dev/forgeterm/internal/config"
	"forgeterm.dev/forgeterm/internal/runtime"
)

// configPath resolves the --config flag, falling back to the standard
// location.
func configPath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// loadConfig reads the profile store named by the flags.
func loadConfig(cmd *cobra.Command) (string, *config.Config, error) {
	path, err := configPath(cmd)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, cfg, nil
}

// openSession assembles the session selected by --profile and the
// environment. The returned cleanup closes the engine connection when
// the transport holds one.
func openSession(cmd *cobra.Command) (*runtime.Session, func(), error) {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	profileName, err := cmd.Flags().GetString("profile")
	if err != nil {
		return nil, nil, err
	}
	name, profile, err := cfg.Resolve(profileName)
	if err != nil {
		return nil, nil, err
	}

	session, err := profile.Session(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open profile '%s': %w", name, err)
	}

	cleanup := func() {
		if closer, ok := session.Caller.(io.Closer); ok {
			closer.Close()
		}
	}
	return session, cleanup, nil
}
