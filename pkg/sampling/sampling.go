// Package sampling implements the Sampling capability (§4.5.5): a server
// asking its own client, over the same connection, to run an LLM
// completion on its behalf. New relative to the teacher (a pure server
// that never originated requests), grounded on other_examples'
// creachadair/jrpc2 client.go — its blocking `scall` pattern is exactly
// what a server-as-caller needs here, reusing pkg/dispatcher's own Call.
package sampling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// DefaultTimeout bounds how long a server waits for the client's model
// call to complete before giving up (§4.5.5).
const DefaultTimeout = 120 * time.Second

// Caller is the subset of *dispatcher.Dispatcher sampling needs — kept as
// an interface so capability modules don't import dispatcher directly and
// so tests can substitute a fake.
type Caller interface {
	Call(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error)
}

// CreateMessage issues sampling/createMessage on d and decodes the result.
// A zero timeout falls back to DefaultTimeout rather than blocking
// forever — a client that never answers must not wedge the server.
func CreateMessage(ctx context.Context, d Caller, params protocol.CreateMessageParams, timeout time.Duration) (protocol.CreateMessageResult, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	raw, err := d.Call(ctx, string(protocol.MethodSamplingCreateMessage), params, timeout)
	if err != nil {
		return protocol.CreateMessageResult{}, err
	}
	var result protocol.CreateMessageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return protocol.CreateMessageResult{}, protocol.NewInternalError(err)
	}
	return result, nil
}
