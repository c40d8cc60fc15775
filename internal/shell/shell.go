// Package shell interprets git-style command lines for an embedded
// terminal front-end. It owns parsing, dispatch, help, and output
// normalization; every repository effect is delegated to the engine
// caller attached to the session, at most one call per invocation. The
// package keeps no state between invocations and is safe for concurrent
// use.
package shell

import (
	"context"
	"fmt"

	"forgeterm.dev/forgeterm/internal/runtime"
)

// versionLine is printed for `git --version`. The parenthetical
// distinguishes this embedded interpreter from a real git binary.
const versionLine = "git (browser-cli) 0.1.0"

// Execute interprets one argv-style invocation against the session and
// returns its outcome. argv[0] is the program name and is ignored. The
// returned Result always has a meaningful exit code: 0 on success (help
// and version included), 2 for malformed invocations, 127 when the
// session has no engine caller, and 1 when the engine rejects the call.
// Execute never returns a Go error; failures of any kind are rendered
// into the Result so a front-end can print them like a shell would.
func Execute(ctx context.Context, argv []string, session *runtime.Session) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	var args []string
	if len(argv) > 0 {
		args = argv[1:]
	}

	// Help outranks everything, version outranks dispatch. A bare
	// invocation and -h/--help anywhere both route here, so no argv
	// that asks for help can reach an engine call.
	if len(args) == 0 || args[0] == "help" || helpRequested(args) {
		topic := ""
		if len(args) > 0 {
			if args[0] == "help" {
				if len(args) > 1 {
					topic = args[1]
				}
			} else {
				topic = args[0]
			}
		}
		return Result{Code: CodeOK, Stdout: terminate(Usage(topic))}
	}

	if args[0] == "--version" || args[0] == "-v" {
		return Result{Code: CodeOK, Stdout: versionLine + "\n"}
	}

	cmd, found := lookup(args[0])
	if !found {
		return Result{
			Code:   CodeUsage,
			Stderr: fmt.Sprintf("git: '%s' is not a git command. See 'git help'.", args[0]),
		}
	}

	// The capability check comes before argument extraction: with no
	// engine attached every engine-backed subcommand fails fast with
	// 127, even ones that would also be missing an operand.
	if session == nil || session.Caller == nil {
		return unavailable(cmd.name)
	}

	params, usageErr := buildParams(cmd, args[1:])
	if usageErr != nil {
		return usageErr.result()
	}

	params["repoId"] = session.Repo.RID.String()

	payload, err := session.Caller.Call(ctx, cmd.op, params)
	if err != nil {
		return opFail(cmd.name, err)
	}
	return ok(payload)
}

// helpRequested reports whether any token asks for help.
func helpRequested(args []string) bool {
	for _, token := range args {
		if token == "-h" || token == "--help" {
			return true
		}
	}
	return false
}
