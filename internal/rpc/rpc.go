// Package rpc defines the boundary between the command interpreter and the
// git engine that answers it. The interpreter never talks to a transport
// directly: it sees a Caller, and the embedding application decides whether
// that caller is the in-process engine, an HTTP client, or a WebSocket
// bridge to a worker on the far side of a sandbox.
package rpc

import "context"

// Params carries the parameters of a single engine operation. Values are
// restricted to JSON-representable types so every transport can forward
// them unchanged.
type Params map[string]any

// Caller executes one engine operation and resolves to its payload. The
// payload is loosely typed on purpose: engines may answer with a plain
// string, a {text: ...} object, or (for git.branch) a list of branch lines.
// The interpreter owns normalization, not the caller.
//
// Implementations must be safe for concurrent use; the interpreter issues
// at most one call per invocation but a terminal may run invocations
// concurrently against one session.
type Caller interface {
	Call(ctx context.Context, op string, params Params) (any, error)
}

// Handler is the serving side of the same contract: the engine itself, or
// the far end of a transport. Splitting the two directions keeps client
// transports from accidentally satisfying the server interface.
type Handler interface {
	Handle(ctx context.Context, op string, params Params) (any, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, op string, params Params) (any, error)

// Call invokes the function.
func (f CallerFunc) Call(ctx context.Context, op string, params Params) (any, error) {
	return f(ctx, op, params)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, op string, params Params) (any, error)

// Handle invokes the function.
func (f HandlerFunc) Handle(ctx context.Context, op string, params Params) (any, error) {
	return f(ctx, op, params)
}

// Bridge exposes a Handler as a Caller with no transport in between. This
// is the in-process wiring used when the engine runs inside the same
// program as the terminal.
func Bridge(handler Handler) Caller {
	return CallerFunc(handler.Handle)
}
