package term

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"forgeterm.dev/forgeterm/internal/runtime"
)

// RunLines is the non-interactive terminal: it reads commands from r one
// line at a time and returns the exit code of the last one, so piped
// scripts behave like a shell session. "clear" is a no-op without a
// screen and "exit" stops reading.
func RunLines(ctx context.Context, session *runtime.Session, r io.Reader, stdout, stderr io.Writer) (int, error) {
	// Transfer progress goes to stderr the way git itself reports it,
	// unless the embedder already routed it elsewhere.
	if session != nil && session.Progress == nil {
		session.Progress = func(line string) { fmt.Fprintln(stderr, line) }
	}

	scanner := bufio.NewScanner(r)
	last := 0
	for scanner.Scan() {
		out := eval(ctx, session, scanner.Text())
		switch {
		case out.quit:
			return last, nil
		case out.skip, out.clear:
			continue
		}

		if out.result.Stdout != "" {
			fmt.Fprint(stdout, out.result.Stdout)
		}
		if out.result.Stderr != "" {
			fmt.Fprintln(stderr, out.result.Stderr)
		}
		last = out.result.Code
	}
	if err := scanner.Err(); err != nil {
		return last, fmt.Errorf("failed to read input: %w", err)
	}
	return last, nil
}
