package dispatcher

import (
	"context"
	"encoding/json"
)

// RequestHandler answers a JSON-RPC request. It is invoked on its own
// goroutine (§4.3) so a long-running handler never stalls the read loop.
// A returned *protocol.HandlerError or *protocol.ProtocolError (the value
// itself, not one wrapped inside another error) becomes a JSON-RPC error
// response carrying its own code; any other error becomes an internal
// error response. A user-visible failure (§7) is not an error here: the
// handler returns a successful result with isError=true.
type RequestHandler func(ctx *Context, params json.RawMessage) (any, error)

// NotificationHandler reacts to a notification. Its return value, if any,
// is ignored — notifications never produce a response (§4.1).
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// Registry is the read-only, post-Build handler table (§4.4): a mapping
// from exact method name to a typed adapter. Because it never mutates
// after Build, the dispatch loop can read it without synchronization.
type Registry struct {
	requests      map[string]RequestHandler
	notifications map[string]NotificationHandler
}

func (r *Registry) request(method string) (RequestHandler, bool) {
	h, ok := r.requests[method]
	return h, ok
}

func (r *Registry) notification(method string) (NotificationHandler, bool) {
	h, ok := r.notifications[method]
	return h, ok
}

// Builder accumulates (method, handler) registrations. Build freezes the
// accumulated table into an immutable Registry; no further registration is
// possible afterward, which is what lets the dispatch loop skip locking
// the handler table (only the pending-call table needs a mutex, per §5).
type Builder struct {
	requests      map[string]RequestHandler
	notifications map[string]NotificationHandler
}

func NewBuilder() *Builder {
	return &Builder{
		requests:      make(map[string]RequestHandler),
		notifications: make(map[string]NotificationHandler),
	}
}

// Request registers a handler for method, to be answered with a response.
func (b *Builder) Request(method string, handler RequestHandler) *Builder {
	b.requests[method] = handler
	return b
}

// Notification registers a handler for method, which produces no
// response.
func (b *Builder) Notification(method string, handler NotificationHandler) *Builder {
	b.notifications[method] = handler
	return b
}

// Build freezes the registry. Calling Request/Notification on the
// *Builder* afterward still mutates the builder's own maps but has no
// effect on already-built Registry values — callers should treat Build as
// terminal.
func (b *Builder) Build() *Registry {
	reqs := make(map[string]RequestHandler, len(b.requests))
	for k, v := range b.requests {
		reqs[k] = v
	}
	notifs := make(map[string]NotificationHandler, len(b.notifications))
	for k, v := range b.notifications {
		notifs[k] = v
	}
	return &Registry{requests: reqs, notifications: notifs}
}
