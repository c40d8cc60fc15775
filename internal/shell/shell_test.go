package shell

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"forgeterm.dev/forgeterm/internal/forge"
	"forgeterm.dev/forgeterm/internal/rpc"
	"forgeterm.dev/forgeterm/internal/runtime"
	"forgeterm.dev/forgeterm/testhelpers"
)

const testRepoID = "rid:7f3a9c1d"

func testSession(caller rpc.Caller) *runtime.Session {
	repo := forge.RepoRef{
		Relay:   "relay.example.org",
		RID:     forge.RID(testRepoID),
		Owner:   forge.DID("did:key:z6MkhaXgBZD"),
		LocalID: "demo",
	}
	return runtime.NewSession(repo, caller)
}

func TestExecuteHelp(t *testing.T) {
	t.Parallel()

	t.Run("bare invocation shows the global summary", func(t *testing.T) {
		t.Parallel()
		result := Execute(context.Background(), []string{"git"}, nil)
		require.Equal(t, CodeOK, result.Code)
		require.Contains(t, result.Stdout, "usage: git <command> [<args>]\n")
		require.Empty(t, result.Stderr)
	})

	t.Run("help subcommand matches the bare invocation", func(t *testing.T) {
		t.Parallel()
		bare := Execute(context.Background(), []string{"git"}, nil)
		help := Execute(context.Background(), []string{"git", "help"}, nil)
		require.Equal(t, bare, help)
	})

	t.Run("global summary lists every command", func(t *testing.T) {
		t.Parallel()
		result := Execute(context.Background(), []string{"git", "help"}, nil)
		for _, name := range []string{
			"status", "show", "log", "branch", "checkout", "switch",
			"diff", "add", "commit", "push", "pull",
		} {
			require.Contains(t, result.Stdout, name)
		}
	})

	t.Run("help with a topic prints that usage line only", func(t *testing.T) {
		t.Parallel()
		result := Execute(context.Background(), []string{"git", "help", "log"}, nil)
		require.Equal(t, CodeOK, result.Code)
		require.Equal(t, "usage: git log [--oneline] [<path>]\n", result.Stdout)
	})

	t.Run("help flag anywhere routes to the subcommand usage", func(t *testing.T) {
		t.Parallel()
		caller := testhelpers.NewScriptedCaller()
		session := testSession(caller)

		result := Execute(context.Background(), []string{"git", "log", "-h"}, session)
		require.Equal(t, CodeOK, result.Code)
		require.Equal(t, "usage: git log [--oneline] [<path>]\n", result.Stdout)

		result = Execute(context.Background(), []string{"git", "status", "--help"}, session)
		require.Equal(t, "usage: git status\n", result.Stdout)

		require.Zero(t, caller.CallCount(), "help must never reach the engine")
	})

	t.Run("unknown topic falls back to the global summary", func(t *testing.T) {
		t.Parallel()
		result := Execute(context.Background(), []string{"git", "help", "frobnicate"}, nil)
		require.Equal(t, CodeOK, result.Code)
		require.Contains(t, result.Stdout, "usage: git <command> [<args>]\n")
	})
}

func TestExecuteVersion(t *testing.T) {
	t.Parallel()

	t.Run("long flag", func(t *testing.T) {
		t.Parallel()
		result := Execute(context.Background(), []string{"git", "--version"}, nil)
		require.Equal(t, Result{Code: CodeOK, Stdout: "git (browser-cli) 0.1.0\n"}, result)
	})

	t.Run("short flag", func(t *testing.T) {
		t.Parallel()
		result := Execute(context.Background(), []string{"git", "-v"}, nil)
		require.Equal(t, Result{Code: CodeOK, Stdout: "git (browser-cli) 0.1.0\n"}, result)
	})

	t.Run("only recognized in the subcommand position", func(t *testing.T) {
		t.Parallel()
		// After a subcommand the token is an ordinary unknown flag, so
		// this dispatches status and hits the missing-engine path.
		result := Execute(context.Background(), []string{"git", "status", "--version"}, nil)
		require.Equal(t, CodeUnavailable, result.Code)
	})
}

func TestExecuteWithoutEngine(t *testing.T) {
	t.Parallel()

	argvs := [][]string{
		{"git", "status"},
		{"git", "show"},
		{"git", "log"},
		{"git", "branch"},
		{"git", "checkout"},
		{"git", "switch"},
		{"git", "diff"},
		{"git", "add"},
		{"git", "commit"},
		{"git", "push"},
		{"git", "pull"},
	}
	for _, argv := range argvs {
		argv := argv
		t.Run(argv[1], func(t *testing.T) {
			t.Parallel()

			// A session without a caller and no session at all behave
			// the same way.
			for _, session := range []*runtime.Session{testSession(nil), nil} {
				result := Execute(context.Background(), argv, session)
				require.Equal(t, CodeUnavailable, result.Code)
				require.Contains(t, result.Stderr, "git "+argv[1]+":")
				require.Contains(t, result.Stderr, "operation unavailable")
				require.Empty(t, result.Stdout)
			}
		})
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	t.Parallel()

	caller := testhelpers.NewScriptedCaller()
	result := Execute(context.Background(), []string{"git", "frobnicate"}, testSession(caller))

	require.Equal(t, CodeUsage, result.Code)
	require.Equal(t, "git: 'frobnicate' is not a git command. See 'git help'.", result.Stderr)
	require.Empty(t, result.Stdout)
	require.Zero(t, caller.CallCount())
}

func TestExecuteUsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		argv       []string
		wantStderr string
	}{
		{
			name:       "show without an object id",
			argv:       []string{"git", "show"},
			wantStderr: "git show: missing object id operand\nusage: git show <object>",
		},
		{
			name:       "show with only flags",
			argv:       []string{"git", "show", "--stat"},
			wantStderr: "git show: missing object id operand\nusage: git show <object>",
		},
		{
			name:       "checkout without a branch",
			argv:       []string{"git", "checkout"},
			wantStderr: "git checkout: missing branch operand\nusage: git checkout <branch>",
		},
		{
			name:       "switch without a branch",
			argv:       []string{"git", "switch"},
			wantStderr: "git switch: missing branch operand\nusage: git switch <branch>",
		},
		{
			name:       "log depth flag without a value",
			argv:       []string{"git", "log", "-n"},
			wantStderr: "git log: option '-n' requires a value\nusage: git log [--oneline] [<path>]",
		},
		{
			name:       "log depth flag with a non-integer value",
			argv:       []string{"git", "log", "--max-count", "xyz"},
			wantStderr: "git log: invalid depth 'xyz'\nusage: git log [--oneline] [<path>]",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			caller := testhelpers.NewScriptedCaller()
			result := Execute(context.Background(), tt.argv, testSession(caller))

			require.Equal(t, CodeUsage, result.Code)
			require.Equal(t, tt.wantStderr, result.Stderr)
			require.Empty(t, result.Stdout)
			require.Zero(t, caller.CallCount(), "usage errors must not reach the engine")
		})
	}
}

func TestExecuteDispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		argv       []string
		wantOp     string
		wantParams rpc.Params
	}{
		{
			name:       "status sends only the repository id",
			argv:       []string{"git", "status"},
			wantOp:     rpc.OpStatus,
			wantParams: rpc.Params{"repoId": testRepoID},
		},
		{
			name:       "show extracts the object id",
			argv:       []string{"git", "show", "abc123"},
			wantOp:     rpc.OpShow,
			wantParams: rpc.Params{"repoId": testRepoID, "oid": "abc123"},
		},
		{
			name:       "show skips flags when scanning for the object id",
			argv:       []string{"git", "show", "--stat", "abc123"},
			wantOp:     rpc.OpShow,
			wantParams: rpc.Params{"repoId": testRepoID, "oid": "abc123"},
		},
		{
			name:       "log defaults to depth 50",
			argv:       []string{"git", "log"},
			wantOp:     rpc.OpLog,
			wantParams: rpc.Params{"repoId": testRepoID, "depth": 50, "oneline": false},
		},
		{
			name:       "log with flags and a branch",
			argv:       []string{"git", "log", "--oneline", "-n", "5", "main"},
			wantOp:     rpc.OpLog,
			wantParams: rpc.Params{"repoId": testRepoID, "branch": "main", "depth": 5, "oneline": true},
		},
		{
			name:       "log long depth flag",
			argv:       []string{"git", "log", "--max-count", "7"},
			wantOp:     rpc.OpLog,
			wantParams: rpc.Params{"repoId": testRepoID, "depth": 7, "oneline": false},
		},
		{
			name:       "checkout extracts the branch",
			argv:       []string{"git", "checkout", "feature"},
			wantOp:     rpc.OpCheckout,
			wantParams: rpc.Params{"repoId": testRepoID, "branch": "feature"},
		},
		{
			name:       "switch shares the checkout operation",
			argv:       []string{"git", "switch", "feature"},
			wantOp:     rpc.OpCheckout,
			wantParams: rpc.Params{"repoId": testRepoID, "branch": "feature"},
		},
		{
			name:       "diff without a path",
			argv:       []string{"git", "diff"},
			wantOp:     rpc.OpDiff,
			wantParams: rpc.Params{"repoId": testRepoID},
		},
		{
			name:       "diff with a path",
			argv:       []string{"git", "diff", "README.md"},
			wantOp:     rpc.OpDiff,
			wantParams: rpc.Params{"repoId": testRepoID, "path": "README.md"},
		},
		{
			name:       "add without paths stages everything",
			argv:       []string{"git", "add"},
			wantOp:     rpc.OpAdd,
			wantParams: rpc.Params{"repoId": testRepoID, "paths": []string{}},
		},
		{
			name:       "add collects every path operand",
			argv:       []string{"git", "add", "a.txt", "b.txt"},
			wantOp:     rpc.OpAdd,
			wantParams: rpc.Params{"repoId": testRepoID, "paths": []string{"a.txt", "b.txt"}},
		},
		{
			name:       "add skips flags when collecting paths",
			argv:       []string{"git", "add", "-p", "a.txt"},
			wantOp:     rpc.OpAdd,
			wantParams: rpc.Params{"repoId": testRepoID, "paths": []string{"a.txt"}},
		},
		{
			name:       "commit without a message leaves it unset",
			argv:       []string{"git", "commit"},
			wantOp:     rpc.OpCommit,
			wantParams: rpc.Params{"repoId": testRepoID},
		},
		{
			name:       "commit with a short message flag",
			argv:       []string{"git", "commit", "-m", "fix parser"},
			wantOp:     rpc.OpCommit,
			wantParams: rpc.Params{"repoId": testRepoID, "message": "fix parser"},
		},
		{
			name:       "commit with the long message flag",
			argv:       []string{"git", "commit", "--message", "fix parser"},
			wantOp:     rpc.OpCommit,
			wantParams: rpc.Params{"repoId": testRepoID, "message": "fix parser"},
		},
		{
			name:       "commit with a dangling message flag still calls",
			argv:       []string{"git", "commit", "-m"},
			wantOp:     rpc.OpCommit,
			wantParams: rpc.Params{"repoId": testRepoID},
		},
		{
			name:       "push defaults",
			argv:       []string{"git", "push"},
			wantOp:     rpc.OpPush,
			wantParams: rpc.Params{"repoId": testRepoID, "force": false},
		},
		{
			name:       "push with force and targets",
			argv:       []string{"git", "push", "-f", "origin", "main"},
			wantOp:     rpc.OpPush,
			wantParams: rpc.Params{"repoId": testRepoID, "force": true, "remote": "origin", "branch": "main"},
		},
		{
			name:       "push with only a remote",
			argv:       []string{"git", "push", "origin"},
			wantOp:     rpc.OpPush,
			wantParams: rpc.Params{"repoId": testRepoID, "force": false, "remote": "origin"},
		},
		{
			name:       "pull defaults",
			argv:       []string{"git", "pull"},
			wantOp:     rpc.OpPull,
			wantParams: rpc.Params{"repoId": testRepoID},
		},
		{
			name:       "pull with remote and branch",
			argv:       []string{"git", "pull", "origin", "main"},
			wantOp:     rpc.OpPull,
			wantParams: rpc.Params{"repoId": testRepoID, "remote": "origin", "branch": "main"},
		},
		{
			name:       "branch sends only the repository id",
			argv:       []string{"git", "branch"},
			wantOp:     rpc.OpBranch,
			wantParams: rpc.Params{"repoId": testRepoID},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			caller := testhelpers.NewScriptedCaller().Reply(tt.wantOp, "ok")
			result := Execute(context.Background(), tt.argv, testSession(caller))

			require.Equal(t, CodeOK, result.Code, "stderr: %s", result.Stderr)
			require.Equal(t, 1, caller.CallCount())

			call, ok := caller.LastCall()
			require.True(t, ok)
			require.Equal(t, tt.wantOp, call.Op)
			require.Equal(t, tt.wantParams, call.Params)
		})
	}
}

func TestExecuteNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		argv       []string
		op         string
		payload    any
		wantStdout string
	}{
		{
			name:       "plain string gains a trailing newline",
			argv:       []string{"git", "log", "--oneline", "-n", "5", "main"},
			op:         rpc.OpLog,
			payload:    map[string]any{"text": "abc123 msg"},
			wantStdout: "abc123 msg\n",
		},
		{
			name:       "terminated string is not doubled",
			argv:       []string{"git", "status"},
			op:         rpc.OpStatus,
			payload:    "nothing to commit, working tree clean\n",
			wantStdout: "nothing to commit, working tree clean\n",
		},
		{
			name:       "empty string stays empty",
			argv:       []string{"git", "status"},
			op:         rpc.OpStatus,
			payload:    "",
			wantStdout: "",
		},
		{
			name:       "nil payload stays empty",
			argv:       []string{"git", "add", "a.txt"},
			op:         rpc.OpAdd,
			payload:    nil,
			wantStdout: "",
		},
		{
			name:       "branch list joins with newlines",
			argv:       []string{"git", "branch"},
			op:         rpc.OpBranch,
			payload:    []string{"* main", "feature"},
			wantStdout: "* main\nfeature\n",
		},
		{
			name:       "branch object exposes a branches field",
			argv:       []string{"git", "branch"},
			op:         rpc.OpBranch,
			payload:    map[string]any{"branches": []any{"* main", "feature"}},
			wantStdout: "* main\nfeature\n",
		},
		{
			name:       "decoded JSON array of lines",
			argv:       []string{"git", "branch"},
			op:         rpc.OpBranch,
			payload:    []any{"* main", "feature"},
			wantStdout: "* main\nfeature\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			caller := testhelpers.NewScriptedCaller().Reply(tt.op, tt.payload)
			result := Execute(context.Background(), tt.argv, testSession(caller))

			require.Equal(t, CodeOK, result.Code)
			require.Equal(t, tt.wantStdout, result.Stdout)
			require.Empty(t, result.Stderr)
		})
	}
}

func TestExecuteEngineFailure(t *testing.T) {
	t.Parallel()

	t.Run("rejection message is surfaced verbatim", func(t *testing.T) {
		t.Parallel()

		caller := testhelpers.NewScriptedCaller().FailMessage(rpc.OpPush, "not authorized")
		result := Execute(context.Background(), []string{"git", "push", "--force"}, testSession(caller))

		require.Equal(t, CodeOpFailed, result.Code)
		require.Equal(t, "git push: not authorized", result.Stderr)
		require.Empty(t, result.Stdout)
	})

	t.Run("every failing operation maps to code 1", func(t *testing.T) {
		t.Parallel()

		caller := testhelpers.NewScriptedCaller().Fail(rpc.OpStatus, errors.New("engine exploded"))
		result := Execute(context.Background(), []string{"git", "status"}, testSession(caller))

		require.Equal(t, CodeOpFailed, result.Code)
		require.Equal(t, "git status: engine exploded", result.Stderr)
	})
}

func TestExecuteIdempotence(t *testing.T) {
	t.Parallel()

	caller := testhelpers.NewScriptedCaller().
		Reply(rpc.OpLog, map[string]any{"text": "abc123 initial"}).
		FailMessage(rpc.OpPush, "not authorized")
	session := testSession(caller)

	for _, argv := range [][]string{
		{"git", "log", "--oneline"},
		{"git", "push"},
		{"git", "help", "log"},
	} {
		first := Execute(context.Background(), argv, session)
		second := Execute(context.Background(), argv, session)
		require.Equal(t, first, second)
	}
}

func TestUsage(t *testing.T) {
	t.Parallel()

	t.Run("empty topic yields the global summary", func(t *testing.T) {
		t.Parallel()
		require.Contains(t, Usage(""), "usage: git <command> [<args>]")
	})

	t.Run("unknown topic yields the global summary", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, Usage(""), Usage("frobnicate"))
	})

	t.Run("every command has a usage line naming it", func(t *testing.T) {
		t.Parallel()
		for _, cmd := range commands {
			require.True(t, strings.HasPrefix(Usage(cmd.name), "usage: git "+cmd.name), cmd.name)
		}
	})

	t.Run("log usage is pinned", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "usage: git log [--oneline] [<path>]", Usage("log"))
	})
}
