package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"forgeterm.dev/forgeterm/internal/engine"
	"forgeterm.dev/forgeterm/internal/output"
	"forgeterm.dev/forgeterm/internal/transport"
)

const shutdownGrace = 5 * time.Second

// NewEnginedRootCmd creates the root command of forgeterm-engined, the
// daemon that serves one local repository to forgeterm clients over HTTP
// and websocket.
func NewEnginedRootCmd(version, commit, date string) *cobra.Command {
	var (
		listen        string
		socket        string
		repoPath      string
		token         string
		logFile       string
		quiet         bool
		identityName  string
		identityEmail string
	)

	cmd := &cobra.Command{
		Use:   "forgeterm-engined",
		Short: "Serve a local git repository to forgeterm clients",
		Long: `Serve a local git repository to forgeterm clients.

The daemon answers the terminal's git operations at POST /rpc and
GET /rpc/ws, and reports liveness at GET /healthz. With --token set,
requests must carry the token as a bearer credential.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			console, err := newEnginedConsole(logFile)
			if err != nil {
				return err
			}
			defer console.Close()
			console.SetQuiet(quiet)

			eng, err := engine.Open(repoPath)
			if err != nil {
				return err
			}
			if identityName != "" || identityEmail != "" {
				eng.SetIdentity(engine.Identity{Name: identityName, Email: identityEmail})
			}

			server := transport.NewServer(eng, transport.ServerOptions{
				Token:  token,
				Logger: console.Logger(),
			})

			var listener net.Listener
			if socket != "" {
				// A socket file left behind by a crashed run would
				// fail the bind.
				_ = os.Remove(socket)
				listener, err = net.Listen("unix", socket)
			} else {
				listener, err = net.Listen("tcp", listen)
			}
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			httpServer := &http.Server{Handler: server.Routes()}
			serveErr := make(chan error, 1)
			go func() {
				serveErr <- httpServer.Serve(listener)
			}()
			console.Info("Serving %s on %s", repoPath, listener.Addr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-serveErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("failed to serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			console.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down: %w", err)
			}
			if socket != "" {
				_ = os.Remove(socket)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:7644", "TCP address to listen on")
	cmd.Flags().StringVar(&socket, "socket", "", "Serve on a Unix socket instead of TCP")
	cmd.Flags().StringVar(&repoPath, "repo", ".", "Path to the repository to serve")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token clients must present")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also write logs to this file, rotated")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Only log warnings and errors")
	cmd.Flags().StringVar(&identityName, "committer-name", "", "Commit signature name")
	cmd.Flags().StringVar(&identityEmail, "committer-email", "", "Commit signature email")

	return cmd
}

func newEnginedConsole(logFile string) (*output.Console, error) {
	if logFile == "" {
		return output.NewConsole(), nil
	}
	return output.NewConsoleWithFile(logFile)
}
