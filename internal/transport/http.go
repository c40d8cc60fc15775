package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"forgeterm.dev/forgeterm/internal/errors"
	"forgeterm.dev/forgeterm/internal/rpc"
	"forgeterm.dev/forgeterm/internal/runtime"
)

// HTTPOptions configures an HTTP caller beyond its endpoint.
type HTTPOptions struct {
	// SocketPath dials a Unix socket instead of TCP. The endpoint URL
	// still supplies the request host and scheme.
	SocketPath string

	// Tokens supplies the bearer token for the endpoint host.
	Tokens runtime.TokenSource

	// Client overrides the HTTP client. Tests use this to point at an
	// httptest server.
	Client *http.Client
}

// HTTPCaller posts each engine operation to the engine's /rpc endpoint
// as one JSON request. Stateless between calls; safe for concurrent use.
type HTTPCaller struct {
	endpoint string
	host     string
	tokens   runtime.TokenSource
	client   *http.Client
}

// NewHTTPCaller builds a caller for an engine base URL, for example
// "http://127.0.0.1:7483". With a socket path the URL host only names
// the peer for token lookup; bytes flow over the Unix socket.
func NewHTTPCaller(endpoint string, opts HTTPOptions) (*HTTPCaller, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid engine endpoint %q: %w", endpoint, err)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
		if opts.SocketPath != "" {
			socketPath := opts.SocketPath
			client.Transport = &http.Transport{
				DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
					return (&net.Dialer{}).DialContext(ctx, "unix", socketPath)
				},
			}
		}
	}

	return &HTTPCaller{
		endpoint: strings.TrimRight(endpoint, "/") + "/rpc",
		host:     parsed.Host,
		tokens:   opts.Tokens,
		client:   client,
	}, nil
}

// Call implements rpc.Caller.
func (c *HTTPCaller) Call(ctx context.Context, op string, params rpc.Params) (any, error) {
	body, err := json.Marshal(callRequest{Op: op, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.TokenFor(c.host)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token for %s: %w", c.host, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	response, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewRemoteError(op, "", 0, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.NewRemoteError(op, "", response.StatusCode, err)
	}

	var decoded callResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Not our wire format: an intermediary answered. Surface what
		// it said.
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = fmt.Sprintf("HTTP %d", response.StatusCode)
		}
		return nil, errors.NewRemoteError(op, message, response.StatusCode, err)
	}
	if decoded.Error != nil {
		return nil, errors.NewRemoteError(op, decoded.Error.Message, response.StatusCode, nil)
	}
	if response.StatusCode != http.StatusOK {
		return nil, errors.NewRemoteError(op, fmt.Sprintf("HTTP %d", response.StatusCode), response.StatusCode, nil)
	}

	payload, err := decodeResult(decoded.Result)
	if err != nil {
		return nil, errors.NewRemoteError(op, "", response.StatusCode, err)
	}
	return payload, nil
}
