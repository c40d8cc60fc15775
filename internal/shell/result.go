package shell

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Exit codes returned in Result.Code. They follow POSIX shell conventions:
// 2 is reserved for usage mistakes caught before any engine call, 127 for a
// missing backing capability, and 1 for failures the engine reported.
const (
	CodeOK          = 0
	CodeOpFailed    = 1
	CodeUsage       = 2
	CodeUnavailable = 127
)

// Result is the structured outcome of one command invocation. Code 0 means
// success; in normal operation at most one of Stdout and Stderr carries
// text. The JSON tags match the shape an embedding front-end consumes.
type Result struct {
	Code   int    `json:"code"`
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
}

// ok builds a success result from an engine payload. The payload is
// flattened to text and newline-terminated; an empty payload stays empty.
func ok(payload any) Result {
	return Result{Code: CodeOK, Stdout: terminate(flatten(payload))}
}

// usageFail builds the code-2 result for a malformed invocation. The
// diagnostic names the command; the usage line follows on its own line.
func usageFail(command, message, usage string) Result {
	return Result{
		Code:   CodeUsage,
		Stderr: fmt.Sprintf("git %s: %s\n%s", command, message, usage),
	}
}

// opFail builds the code-1 result for an engine-reported failure. The
// engine's message is used verbatim, prefixed with the command name.
func opFail(command string, err error) Result {
	return Result{
		Code:   CodeOpFailed,
		Stderr: fmt.Sprintf("git %s: %s", command, err.Error()),
	}
}

// unavailable builds the code-127 result used when no engine caller is
// attached to the session. No call is attempted.
func unavailable(command string) Result {
	return Result{
		Code:   CodeUnavailable,
		Stderr: fmt.Sprintf("git %s: operation unavailable (no engine attached)", command),
	}
}

// flatten collapses the payload shapes an engine may answer with into a
// single string: a plain string, a list of lines, or an object exposing
// "text" or (for git.branch) "branches". Every subcommand normalizes
// through this one function so the contract cannot drift per command.
func flatten(payload any) string {
	switch value := payload.(type) {
	case nil:
		return ""
	case string:
		return value
	case []string:
		return strings.Join(value, "\n")
	case []any:
		lines := make([]string, 0, len(value))
		for _, element := range value {
			if s, ok := element.(string); ok {
				lines = append(lines, s)
			} else {
				lines = append(lines, fmt.Sprint(element))
			}
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		if text, ok := value["text"].(string); ok {
			return text
		}
		if branches, ok := value["branches"]; ok {
			return flatten(branches)
		}
		if encoded, err := json.Marshal(value); err == nil {
			return string(encoded)
		}
		return fmt.Sprint(value)
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

// terminate guarantees a trailing newline on non-empty output and never
// adds one to empty output or doubles an existing one.
func terminate(s string) string {
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}
