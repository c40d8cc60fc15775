package rpc

// Operation names understood by a git engine. These strings are the wire
// contract between interpreter and engine and never change casing or
// prefix.
const (
	OpStatus   = "git.status"
	OpShow     = "git.show"
	OpLog      = "git.log"
	OpBranch   = "git.branch"
	OpCheckout = "git.checkout"
	OpDiff     = "git.diff"
	OpAdd      = "git.add"
	OpCommit   = "git.commit"
	OpPush     = "git.push"
	OpPull     = "git.pull"
)

// Operations lists every operation an engine must serve, in a stable order.
func Operations() []string {
	return []string{
		OpStatus,
		OpShow,
		OpLog,
		OpBranch,
		OpCheckout,
		OpDiff,
		OpAdd,
		OpCommit,
		OpPush,
		OpPull,
	}
}
