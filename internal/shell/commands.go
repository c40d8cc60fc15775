package shell

import (
	"strconv"
	"strings"

	"forgeterm.dev/forgeterm/internal/rpc"
)

// defaultLogDepth is how many commits git.log requests when no -n or
// --max-count flag is given.
const defaultLogDepth = 50

// command describes one supported subcommand: the engine operation it maps
// to, its one-line usage, and the summary shown in the global help table.
type command struct {
	name    string
	op      string
	usage   string
	summary string
}

// commands is the dispatch table, in the order the global help lists them.
// checkout and switch are distinct entries that share one engine operation.
var commands = []command{
	{"status", rpc.OpStatus, "usage: git status", "Show the working tree status"},
	{"show", rpc.OpShow, "usage: git show <object>", "Show various types of objects"},
	{"log", rpc.OpLog, "usage: git log [--oneline] [<path>]", "Show commit logs"},
	{"branch", rpc.OpBranch, "usage: git branch", "List branches"},
	{"checkout", rpc.OpCheckout, "usage: git checkout <branch>", "Switch branches"},
	{"switch", rpc.OpCheckout, "usage: git switch <branch>", "Switch branches"},
	{"diff", rpc.OpDiff, "usage: git diff [<path>]", "Show changes between the working tree and HEAD"},
	{"add", rpc.OpAdd, "usage: git add [<path>...]", "Add file contents to the index"},
	{"commit", rpc.OpCommit, "usage: git commit [-m <message>]", "Record changes to the repository"},
	{"push", rpc.OpPush, "usage: git push [--force] [<remote>] [<branch>]", "Update remote refs along with associated objects"},
	{"pull", rpc.OpPull, "usage: git pull [<remote>] [<branch>]", "Fetch from and integrate with another repository"},
}

// lookup resolves a typed subcommand name against the dispatch table.
func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// isFlag reports whether a token is an option rather than an operand.
func isFlag(token string) bool {
	return strings.HasPrefix(token, "-")
}

// operands returns the non-flag tokens in order. It is only used by
// commands whose flags never consume a following value; log and commit
// scan their arguments manually instead.
func operands(args []string) []string {
	var out []string
	for _, token := range args {
		if !isFlag(token) {
			out = append(out, token)
		}
	}
	return out
}

// buildParams turns the argument tokens after the subcommand name into the
// parameter object for its engine call. Unknown flags are skipped rather
// than rejected. A non-nil error means the invocation was malformed and no
// call may be made; the error renders as the code-2 diagnostic.
func buildParams(cmd command, args []string) (rpc.Params, *usageError) {
	params := rpc.Params{}

	switch cmd.name {
	case "status", "branch":
		// No parameters beyond the repository id.

	case "show":
		rest := operands(args)
		if len(rest) == 0 {
			return nil, &usageError{command: cmd.name, message: "missing object id operand", usage: cmd.usage}
		}
		params["oid"] = rest[0]

	case "log":
		depth := defaultLogDepth
		oneline := false
		branch := ""
		for i := 0; i < len(args); i++ {
			token := args[i]
			switch {
			case token == "--oneline":
				oneline = true
			case token == "-n" || token == "--max-count":
				if i+1 >= len(args) {
					return nil, &usageError{command: cmd.name, message: "option '" + token + "' requires a value", usage: cmd.usage}
				}
				value, err := strconv.Atoi(args[i+1])
				if err != nil {
					return nil, &usageError{command: cmd.name, message: "invalid depth '" + args[i+1] + "'", usage: cmd.usage}
				}
				depth = value
				i++
			case isFlag(token):
				// Skip unrecognized flags.
			default:
				if branch == "" {
					branch = token
				}
			}
		}
		params["depth"] = depth
		params["oneline"] = oneline
		if branch != "" {
			params["branch"] = branch
		}

	case "checkout", "switch":
		rest := operands(args)
		if len(rest) == 0 {
			return nil, &usageError{command: cmd.name, message: "missing branch operand", usage: cmd.usage}
		}
		params["branch"] = rest[0]

	case "diff":
		rest := operands(args)
		if len(rest) > 0 {
			params["path"] = rest[0]
		}

	case "add":
		rest := operands(args)
		if rest == nil {
			rest = []string{}
		}
		params["paths"] = rest

	case "commit":
		for i := 0; i < len(args); i++ {
			token := args[i]
			if token == "-m" || token == "--message" {
				if i+1 < len(args) {
					params["message"] = args[i+1]
					i++
				}
				// A dangling -m leaves the message unset; the engine
				// decides whether an empty commit message is acceptable.
			}
		}

	case "push":
		force := false
		var rest []string
		for _, token := range args {
			switch {
			case token == "--force" || token == "-f":
				force = true
			case isFlag(token):
				// Skip unrecognized flags.
			default:
				rest = append(rest, token)
			}
		}
		params["force"] = force
		if len(rest) > 0 {
			params["remote"] = rest[0]
		}
		if len(rest) > 1 {
			params["branch"] = rest[1]
		}

	case "pull":
		rest := operands(args)
		if len(rest) > 0 {
			params["remote"] = rest[0]
		}
		if len(rest) > 1 {
			params["branch"] = rest[1]
		}
	}

	return params, nil
}

// usageError is a malformed invocation caught during argument scanning.
type usageError struct {
	command string
	message string
	usage   string
}

func (e *usageError) result() Result {
	return usageFail(e.command, e.message, e.usage)
}
