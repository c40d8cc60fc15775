package testhelpers

import (
	"context"
	"sync"

	"forgeterm.dev/forgeterm/internal/errors"
	"forgeterm.dev/forgeterm/internal/rpc"
)

// Call is one recorded engine invocation.
type Call struct {
	Op     string
	Params rpc.Params
}

// ScriptedCaller is an rpc.Caller whose answers are scripted per
// operation. It records every call so tests can assert on the exact
// operation names and parameter objects the interpreter produced.
// Safe for concurrent use.
type ScriptedCaller struct {
	mu      sync.Mutex
	calls   []Call
	replies map[string]any
	errs    map[string]error
}

// NewScriptedCaller returns a caller with an empty script. Operations
// without a script entry resolve to nil, which normalizes to no output.
func NewScriptedCaller() *ScriptedCaller {
	return &ScriptedCaller{
		replies: map[string]any{},
		errs:    map[string]error{},
	}
}

// Reply scripts a successful payload for op. Returns the caller for
// chaining.
func (c *ScriptedCaller) Reply(op string, payload any) *ScriptedCaller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[op] = payload
	return c
}

// Fail scripts a failure for op. Returns the caller for chaining.
func (c *ScriptedCaller) Fail(op string, err error) *ScriptedCaller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[op] = err
	return c
}

// FailMessage scripts a failure for op whose rendered message is exactly
// message, the way a remote engine rejection surfaces.
func (c *ScriptedCaller) FailMessage(op, message string) *ScriptedCaller {
	return c.Fail(op, errors.NewRemoteError(op, message, 0, nil))
}

// Call implements rpc.Caller.
func (c *ScriptedCaller) Call(_ context.Context, op string, params rpc.Params) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: op, Params: params})
	if err, ok := c.errs[op]; ok {
		return nil, err
	}
	return c.replies[op], nil
}

// Calls returns a copy of every recorded call in order.
func (c *ScriptedCaller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many calls have been recorded.
func (c *ScriptedCaller) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// LastCall returns the most recent call, or false when none were made.
func (c *ScriptedCaller) LastCall() (Call, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return Call{}, false
	}
	return c.calls[len(c.calls)-1], true
}
