package cli

import (
	"errors"
	"fmt"
)

// ExitError carries a process exit code out of a command that already
// wrote its own output, so main can exit without printing anything more.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps the error from Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}

// Quiet reports whether main should exit without printing err because
// the command already presented it.
func Quiet(err error) bool {
	var exit *ExitError
	return errors.As(err, &exit)
}
