package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forgeterm.dev/forgeterm/internal/cli"
	"forgeterm.dev/forgeterm/internal/config"
	interrors "forgeterm.dev/forgeterm/internal/errors"
	"forgeterm.dev/forgeterm/internal/rpc"
	"forgeterm.dev/forgeterm/internal/runtime"
	"forgeterm.dev/forgeterm/internal/transport"
	"forgeterm.dev/forgeterm/testhelpers"
)

// runRoot executes the forgeterm root command in process and captures
// what it writes.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd("test", "none", "unknown")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// sceneConfig writes a config file whose lone profile serves a scene
// repository in process.
func sceneConfig(t *testing.T, scene *testhelpers.Scene) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := &config.Config{DefaultProfile: "test"}
	cfg.Set("test", config.Profile{
		RID:    "rid:7f3a9c1d",
		Engine: scene.Dir,
	})
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestExecCommand(t *testing.T) {
	t.Parallel()

	t.Run("runs one git command against the profile", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t)
		path := sceneConfig(t, scene)

		stdout, stderr, err := runRoot(t, "--config", path, "exec", "--", "git", "status")
		require.NoError(t, err)
		require.Equal(t, "On branch main\nnothing to commit, working tree clean\n", stdout)
		require.Empty(t, stderr)
	})

	t.Run("help needs no engine round trip", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t)
		path := sceneConfig(t, scene)

		stdout, _, err := runRoot(t, "--config", path, "exec", "--", "git", "help")
		require.NoError(t, err)
		require.Contains(t, stdout, "usage: git <command> [<args>]")
	})

	t.Run("the command's code becomes the exit code", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t)
		path := sceneConfig(t, scene)

		_, stderr, err := runRoot(t, "--config", path, "exec", "--", "git", "nope")
		require.Error(t, err)
		var exit *cli.ExitError
		require.ErrorAs(t, err, &exit)
		require.Equal(t, 2, exit.Code)
		require.Equal(t, "git: 'nope' is not a git command. See 'git help'.\n", stderr)
	})

	t.Run("usage errors carry the usage line", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t)
		path := sceneConfig(t, scene)

		_, stderr, err := runRoot(t, "--config", path, "exec", "--", "git", "checkout")
		require.Equal(t, 2, cli.ExitCode(err))
		require.Equal(t, "git checkout: missing branch operand\nusage: git checkout <branch>\n", stderr)
	})

	t.Run("a missing profile is a plain error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.json")

		_, _, err := runRoot(t, "--config", path, "exec", "--", "git", "status")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no profile selected")
		require.Equal(t, 1, cli.ExitCode(err))
	})
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runRoot(t, "version")
	require.NoError(t, err)
	require.Equal(t, "forgeterm test (commit none, built unknown)\n", stdout)
}

func TestProfileCommands(t *testing.T) {
	t.Parallel()

	t.Run("add stores a profile and defaults the first one", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.json")

		_, _, err := runRoot(t, "--config", path, "profile", "add", "work",
			"--engine", "https://engine.example.org",
			"--rid", "rid:7f3a9c1d",
			"--token", "s3cret")
		require.NoError(t, err)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Equal(t, "work", cfg.DefaultProfile)
		require.Equal(t, "https://engine.example.org", cfg.Profiles["work"].Engine)
		require.Equal(t, "s3cret", cfg.Profiles["work"].Token)
	})

	t.Run("add rejects duplicates and malformed ids", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.json")

		_, _, err := runRoot(t, "--config", path, "profile", "add", "work", "--engine", "/tmp/repo")
		require.NoError(t, err)

		_, _, err = runRoot(t, "--config", path, "profile", "add", "work", "--engine", "/tmp/other")
		require.Error(t, err)
		require.Contains(t, err.Error(), "already exists")

		_, _, err = runRoot(t, "--config", path, "profile", "add", "bad", "--engine", "/tmp/x", "--rid", "no-prefix")
		require.Error(t, err)
	})

	t.Run("remove deletes a profile", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.json")

		_, _, err := runRoot(t, "--config", path, "profile", "add", "work", "--engine", "/tmp/repo")
		require.NoError(t, err)
		_, _, err = runRoot(t, "--config", path, "profile", "remove", "work")
		require.NoError(t, err)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Empty(t, cfg.Profiles)

		_, _, err = runRoot(t, "--config", path, "profile", "remove", "work")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown profile")
	})

	t.Run("list tolerates a missing config", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.json")

		_, _, err := runRoot(t, "--config", path, "profile", "list")
		require.NoError(t, err)
	})
}

func TestEnginedCommand(t *testing.T) {
	t.Parallel()

	t.Run("serves a repository over a unix socket until canceled", func(t *testing.T) {
		t.Parallel()
		scene := testhelpers.NewScene(t)
		socket := filepath.Join(t.TempDir(), "engine.sock")

		cmd := cli.NewEnginedRootCmd("test", "none", "unknown")
		cmd.SetArgs([]string{"--repo", scene.Dir, "--socket", socket, "--token", "s3cret", "--quiet"})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- cmd.ExecuteContext(ctx)
		}()

		caller, err := transport.NewHTTPCaller("http://forgeterm", transport.HTTPOptions{
			SocketPath: socket,
			Tokens:     runtime.StaticTokens{"": "s3cret"},
		})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			_, err := caller.Call(context.Background(), rpc.OpBranch, rpc.Params{})
			return err == nil
		}, 5*time.Second, 50*time.Millisecond, "daemon did not come up")

		result, err := caller.Call(context.Background(), rpc.OpStatus, rpc.Params{})
		require.NoError(t, err)
		require.Contains(t, result.(string), "On branch main")

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("daemon did not shut down")
		}
	})

	t.Run("rejects a directory without a repository", func(t *testing.T) {
		t.Parallel()

		cmd := cli.NewEnginedRootCmd("test", "none", "unknown")
		cmd.SetArgs([]string{"--repo", t.TempDir(), "--quiet"})
		err := cmd.Execute()
		require.ErrorIs(t, err, interrors.ErrNotRepository)
	})
}
