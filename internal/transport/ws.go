package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"forgeterm.dev/forgeterm/internal/errors"
	"forgeterm.dev/forgeterm/internal/rpc"
	"forgeterm.dev/forgeterm/internal/runtime"
)

// WSCaller multiplexes engine calls over one WebSocket connection.
// Every frame carries the call id, so responses may arrive out of order
// and concurrent calls are safe.
type WSCaller struct {
	conn   *websocket.Conn
	nextID atomic.Int64

	// Gorilla allows one concurrent frame writer.
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan callResponse
	err     error         // set when the read loop dies
	done    chan struct{} // closed with it
}

// DialWS connects to an engine's WebSocket endpoint, for example
// "ws://127.0.0.1:7483/rpc/ws". The token for the endpoint host, when
// one resolves, rides along as a bearer header.
func DialWS(ctx context.Context, endpoint string, tokens runtime.TokenSource) (*WSCaller, error) {
	header := http.Header{}
	if tokens != nil {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid engine endpoint %q: %w", endpoint, err)
		}
		token, err := tokens.TokenFor(parsed.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve token for %s: %w", parsed.Host, err)
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, response, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if response != nil {
			return nil, fmt.Errorf("failed to dial engine: %s: %w", response.Status, err)
		}
		return nil, fmt.Errorf("failed to dial engine: %w", err)
	}

	caller := &WSCaller{
		conn:    conn,
		pending: map[int64]chan callResponse{},
		done:    make(chan struct{}),
	}
	go caller.readLoop()
	return caller, nil
}

// readLoop routes incoming frames to the call that is waiting on them.
func (w *WSCaller) readLoop() {
	for {
		var frame callResponse
		if err := w.conn.ReadJSON(&frame); err != nil {
			w.mu.Lock()
			w.err = err
			close(w.done)
			w.mu.Unlock()
			return
		}

		w.mu.Lock()
		ch, ok := w.pending[frame.ID]
		if ok {
			delete(w.pending, frame.ID)
		}
		w.mu.Unlock()
		if ok {
			ch <- frame
		}
	}
}

// Call implements rpc.Caller.
func (w *WSCaller) Call(ctx context.Context, op string, params rpc.Params) (any, error) {
	id := w.nextID.Add(1)
	ch := make(chan callResponse, 1)

	w.mu.Lock()
	if w.err != nil {
		err := w.err
		w.mu.Unlock()
		return nil, errors.NewRemoteError(op, "connection closed", 0, err)
	}
	w.pending[id] = ch
	w.mu.Unlock()

	w.writeMu.Lock()
	err := w.conn.WriteJSON(callRequest{ID: id, Op: op, Params: params})
	w.writeMu.Unlock()
	if err != nil {
		w.forget(id)
		return nil, errors.NewRemoteError(op, "", 0, err)
	}

	select {
	case frame := <-ch:
		if frame.Error != nil {
			return nil, errors.NewRemoteError(op, frame.Error.Message, 0, nil)
		}
		payload, err := decodeResult(frame.Result)
		if err != nil {
			return nil, errors.NewRemoteError(op, "", 0, err)
		}
		return payload, nil
	case <-ctx.Done():
		w.forget(id)
		return nil, ctx.Err()
	case <-w.done:
		w.mu.Lock()
		err := w.err
		w.mu.Unlock()
		return nil, errors.NewRemoteError(op, "connection closed", 0, err)
	}
}

func (w *WSCaller) forget(id int64) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

// Close tears down the connection. In-flight calls fail with a
// connection-closed error.
func (w *WSCaller) Close() error {
	w.writeMu.Lock()
	_ = w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	w.writeMu.Unlock()
	return w.conn.Close()
}
