package shell

import (
	"fmt"
	"strings"
)

// globalUsageHeader is the first line of the command summary. Front-ends
// match on it, so it must not change shape.
const globalUsageHeader = "usage: git <command> [<args>]"

// Usage returns help text for a topic. An empty or unknown topic yields
// the global command summary; a known subcommand name yields its one-line
// usage. The function is pure and total: it never fails and consults no
// session state, so front-ends may call it to render help without an
// engine attached.
func Usage(topic string) string {
	if cmd, ok := lookup(topic); ok {
		return cmd.usage
	}
	return globalUsage()
}

// globalUsage renders the command summary table.
func globalUsage() string {
	width := 0
	for _, cmd := range commands {
		if len(cmd.name) > width {
			width = len(cmd.name)
		}
	}

	var b strings.Builder
	b.WriteString(globalUsageHeader)
	b.WriteString("\n\nThese are the supported git commands:\n\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "   %-*s   %s\n", width, cmd.name, cmd.summary)
	}
	b.WriteString("\n'git help <command>' shows usage for a single command.")
	return b.String()
}
