package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"forgeterm.dev/forgeterm/internal/forge"
	"forgeterm.dev/forgeterm/internal/runtime"
)

func TestStaticTokens(t *testing.T) {
	tokens := runtime.StaticTokens{
		"relay.example.org": "tok-a",
		"":                  "tok-default",
	}

	token, err := tokens.TokenFor("relay.example.org")
	require.NoError(t, err)
	require.Equal(t, "tok-a", token)

	token, err = tokens.TokenFor("other.example.org")
	require.NoError(t, err)
	require.Equal(t, "tok-default", token)

	empty := runtime.StaticTokens{}
	token, err = empty.TokenFor("anything")
	require.NoError(t, err)
	require.Equal(t, "", token)
}

func TestOAuthTokens(t *testing.T) {
	tokens := runtime.OAuthTokens{
		"relay.example.org": oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "oauth-tok"}),
	}

	token, err := tokens.TokenFor("relay.example.org")
	require.NoError(t, err)
	require.Equal(t, "oauth-tok", token)

	token, err = tokens.TokenFor("unknown.example.org")
	require.NoError(t, err)
	require.Equal(t, "", token)
}

func TestSessionReport(t *testing.T) {
	var lines []string
	session := runtime.NewSession(forge.RepoRef{RID: "rid:z3Taju"}, nil)
	session.Progress = func(line string) { lines = append(lines, line) }

	session.Report("Counting objects: 3")
	require.Equal(t, []string{"Counting objects: 3"}, lines)

	// A session without a callback ignores reports.
	quiet := runtime.NewSession(forge.RepoRef{RID: "rid:z3Taju"}, nil)
	quiet.Report("dropped")
}

func TestProgressWriter(t *testing.T) {
	var lines []string
	session := runtime.NewSession(forge.RepoRef{RID: "rid:z3Taju"}, nil)
	session.Progress = func(line string) { lines = append(lines, line) }

	w := session.ProgressWriter()

	// Carriage returns redraw percentage lines; each redraw reports.
	_, err := w.Write([]byte("Counting objects: 50%\rCounting objects: 100%\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"Counting objects: 50%", "Counting objects: 100%"}, lines)

	// Partial lines wait for their terminator, across writes.
	_, err = w.Write([]byte("Compressing "))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	_, err = w.Write([]byte("objects: done.\n"))
	require.NoError(t, err)
	require.Equal(t, "Compressing objects: done.", lines[2])

	// Blank lines are dropped rather than reported.
	_, err = w.Write([]byte("\r\n\n"))
	require.NoError(t, err)
	require.Len(t, lines, 3)
}
