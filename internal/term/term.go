// Package term is the interactive terminal: a prompt wired to the git
// command interpreter. On a TTY it runs a full-screen bubbletea session
// with scrollback and history; anywhere else it degrades to reading
// commands line by line.
package term

import (
	"context"
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"
	"github.com/mattn/go-isatty"

	"forgeterm.dev/forgeterm/internal/runtime"
	"forgeterm.dev/forgeterm/internal/shell"
)

// outcome is what one input line amounts to: a command result, or one of
// the terminal-level verbs (exit, clear, blank line).
type outcome struct {
	result shell.Result
	quit   bool
	clear  bool
	skip   bool
}

// eval interprets one input line. Only "git" reaches the interpreter;
// exit, quit and clear belong to the terminal itself, and anything else
// is not a command here.
func eval(ctx context.Context, session *runtime.Session, line string) outcome {
	argv, err := shellquote.Split(line)
	if err != nil {
		return outcome{result: shell.Result{
			Code:   shell.CodeUsage,
			Stderr: fmt.Sprintf("forgeterm: %v", err),
		}}
	}
	if len(argv) == 0 {
		return outcome{skip: true}
	}

	switch argv[0] {
	case "exit", "quit":
		return outcome{quit: true}
	case "clear":
		return outcome{clear: true}
	case "git":
		return outcome{result: shell.Execute(ctx, argv, session)}
	}
	return outcome{result: shell.Result{
		Code:   shell.CodeUnavailable,
		Stderr: fmt.Sprintf("%s: command not found", argv[0]),
	}}
}

// IsTTY returns true if we can use a TTY for the interactive terminal.
func IsTTY() bool {
	if !((isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))) {
		return false
	}
	// Also try to open /dev/tty to verify it's actually available
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Run starts the terminal for a session and returns the exit code of the
// last command, the way a shell would.
func Run(ctx context.Context, session *runtime.Session) (int, error) {
	if !IsTTY() {
		return RunLines(ctx, session, os.Stdin, os.Stdout, os.Stderr)
	}
	return runUI(ctx, session)
}
