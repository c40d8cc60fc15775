package runtime

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"

	"forgeterm.dev/forgeterm/internal/forge"
	"forgeterm.dev/forgeterm/internal/rpc"
)

// ProgressFunc receives human-readable progress lines from long-running
// engine operations (push/pull sideband output). Calls may arrive from
// another goroutine; implementations must tolerate that.
type ProgressFunc func(line string)

// TokenSource supplies an authentication token for a given relay host.
// Transports consult it before contacting an engine endpoint; a "" token
// with a nil error means "send no credentials".
type TokenSource interface {
	TokenFor(host string) (string, error)
}

// Session is the invocation context shared by every command a terminal
// runs: one repository reference plus the injected capabilities. The
// interpreter only reads from it; a Session is built once per terminal
// session and may be shared by concurrent invocations.
type Session struct {
	// Repo locates the repository all engine calls operate on.
	Repo forge.RepoRef

	// Caller performs engine operations. When nil, every command that
	// needs the engine fails fast with the capability-unavailable code.
	Caller rpc.Caller

	// Progress, when set, receives sideband progress lines. Not consulted
	// by the interpreter itself.
	Progress ProgressFunc

	// Tokens, when set, supplies per-host authentication tokens to
	// transports. Not consulted by the interpreter itself.
	Tokens TokenSource
}

// NewSession creates a session for the given repository and engine caller.
// Optional fields are set directly on the returned value.
func NewSession(repo forge.RepoRef, caller rpc.Caller) *Session {
	return &Session{
		Repo:   repo,
		Caller: caller,
	}
}

// Report forwards a progress line to the session callback if one is set.
func (s *Session) Report(line string) {
	if s != nil && s.Progress != nil {
		s.Progress(line)
	}
}

// ProgressWriter adapts the session callback to the io.Writer sideband
// interface transfer operations expect. Both newlines and the carriage
// returns git uses to redraw percentage lines complete a line.
func (s *Session) ProgressWriter() io.Writer {
	return &progressWriter{session: s}
}

type progressWriter struct {
	session *Session
	buf     []byte
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			return len(p), nil
		}
		line := strings.TrimSpace(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
		if line != "" {
			w.session.Report(line)
		}
	}
}

// StaticTokens is a TokenSource backed by a fixed host→token map. The ""
// key, when present, serves as the fallback for unlisted hosts.
type StaticTokens map[string]string

// TokenFor returns the configured token for host.
func (t StaticTokens) TokenFor(host string) (string, error) {
	if token, ok := t[host]; ok {
		return token, nil
	}
	return t[""], nil
}

// OAuthTokens adapts per-host oauth2 token sources to the TokenSource
// interface, so refreshing credentials plug in without transport changes.
type OAuthTokens map[string]oauth2.TokenSource

// TokenFor resolves the oauth2 source for host and returns its current
// access token.
func (t OAuthTokens) TokenFor(host string) (string, error) {
	source, ok := t[host]
	if !ok {
		return "", nil
	}
	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("token for %s: %w", host, err)
	}
	return token.AccessToken, nil
}
