// Package transport carries engine operations across a process boundary.
//
// The wire format is one JSON object per call: `{op, params}` out,
// `{result}` or `{error: {message}}` back. The HTTP caller posts each
// call to /rpc; the WebSocket caller multiplexes calls over one
// connection with id-correlated frames. Server is the far end of both,
// adapting an rpc.Handler onto /rpc and /rpc/ws.
package transport

import (
	"encoding/json"

	"forgeterm.dev/forgeterm/internal/rpc"
)

// callRequest is one operation invocation on the wire. ID correlates
// frames on the WebSocket transport and is unused over HTTP.
type callRequest struct {
	ID     int64      `json:"id,omitempty"`
	Op     string     `json:"op"`
	Params rpc.Params `json:"params,omitempty"`
}

// callResponse is the answer to one callRequest. Exactly one of Result
// and Error is set.
type callResponse struct {
	ID     int64           `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// wireError carries an engine rejection. Message is surfaced verbatim in
// command diagnostics.
type wireError struct {
	Message string `json:"message"`
}

// decodeResult turns the raw result payload back into the shapes the
// interpreter normalizes: string, list, or object.
func decodeResult(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
