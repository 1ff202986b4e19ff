// Package dispatcher implements the bidirectional JSON-RPC 2.0 runtime
// (§4.3): request/response correlation via a pending-call table, inbound
// routing to a frozen Registry, per-request timeouts, and cooperative
// cancellation. Grounded on other_examples' creachadair/jrpc2 Client — its
// mutex-protected `pending map[string]*Response` keyed by id and its
// `deliverLocked` correlation idiom — generalized to also run the server
// role (inbound routing) over the same connection, since sampling
// requires a server to call back into its own client (§4.5.5, §9).
package dispatcher

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcpgo/mcp/internal/logger"
	"github.com/mcpgo/mcp/pkg/protocol"
	"github.com/mcpgo/mcp/pkg/transport"
)

// DefaultCallTimeout is a timeout callers can pass to Call when they have
// no bound of their own, as the server does for its roots/list callback at
// session start. Call itself applies no deadline when given a zero timeout.
const DefaultCallTimeout = 30 * time.Second

// pendingCall is a record held by the dispatcher for one outstanding
// outgoing request (§3): created on send, resolved on matching response,
// cancelled on timeout or explicit cancellation, removed from the table on
// any resolution. Invariant: at most one pendingCall per id at any instant.
type pendingCall struct {
	ch     chan *protocol.Response
	cancel context.CancelFunc
}

// Dispatcher is one connection's correlator. It multiplexes concurrent
// in-flight calls over a single Transport and presents both the client
// role (Call/Notify, originating requests) and the server role (routing
// inbound requests to a Registry) simultaneously — a single connection
// can host both, as sampling requires.
type Dispatcher struct {
	t        transport.Transport
	registry *Registry

	mu      sync.Mutex
	pending map[string]*pendingCall
	nextID  int64

	// handlerCancel tracks the cancel func for each in-flight inbound
	// request, keyed by its id, so notifications/cancelled can reach it.
	handlerCancel map[string]context.CancelFunc

	wg sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// New builds a Dispatcher over an already-open transport, dispatching
// inbound requests to registry. registry may be nil for a pure client
// connection that never serves requests; every inbound request is then
// answered with MethodNotFound, so a client that answers sampling callbacks
// passes a registry with that method registered.
func New(t transport.Transport, registry *Registry) *Dispatcher {
	if registry == nil {
		registry = NewBuilder().Build()
	}
	return &Dispatcher{
		t:             t,
		registry:      registry,
		pending:       make(map[string]*pendingCall),
		handlerCancel: make(map[string]context.CancelFunc),
		closed:        make(chan struct{}),
	}
}

// Context is handed to every RequestHandler. It carries cancellation (from
// both the caller's Go context and a notifications/cancelled signal) and a
// handle back into the dispatcher for emitting progress without a
// back-pointer baked into the handler itself (§9 "cyclic references").
type Context struct {
	context.Context
	RequestID protocol.ID
	d         *Dispatcher
}

// Caller exposes the outbound half of the dispatcher serving this request,
// so a handler can call back into its own client (sampling, roots/list)
// over the same connection (§4.5.4, §4.5.5) without a direct struct
// dependency on *Dispatcher leaking into every capability package.
func (c *Context) Caller() *Dispatcher { return c.d }

// Progress emits notifications/progress for this request's token (§4.3).
// The caller supplies the token it received in the original request's
// _meta.progressToken — this core does not track that association itself
// since tokens are opaque to the protocol layer.
func (c *Context) Progress(ctx context.Context, token string, progress float64, total *float64) error {
	return c.d.Notify(ctx, string(protocol.MethodProgress), protocol.ProgressParams{
		ProgressToken: token, Progress: progress, Total: total,
	})
}

// Call sends method as the sequentially-allocated outgoing request,
// registers a pending-call entry, and blocks until a matching response
// arrives, the context is cancelled, or timeout elapses (zero means no
// deadline). On timeout the entry is removed and ErrTimeout is returned;
// any later response for that id is discarded as stale (§8 scenario 3).
func (d *Dispatcher) Call(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	id := protocol.NewIntID(atomic.AddInt64(&d.nextID, 1))

	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	ch := make(chan *protocol.Response, 1)
	key := id.Key()

	d.mu.Lock()
	d.pending[key] = &pendingCall{ch: ch, cancel: cancel}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
	}()

	data, err := protocol.EncodeRequest(method, params, id)
	if err != nil {
		return nil, err
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := d.t.Send(ctx, msg); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-callCtx.Done():
		if timeout > 0 && callCtx.Err() == context.DeadlineExceeded {
			return nil, protocol.ErrTimeout
		}
		return nil, protocol.ErrCancelled
	case <-d.closed:
		return nil, protocol.ErrConnectionClosed
	}
}

// Notify sends a fire-and-forget notification; no response is awaited.
func (d *Dispatcher) Notify(ctx context.Context, method string, params any) error {
	data, err := protocol.EncodeNotification(method, params)
	if err != nil {
		return err
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	return d.t.Send(ctx, msg)
}

// CancelCall requests cancellation of our own outstanding call with id —
// used when the local caller gives up before a deadline (distinct from
// receiving a peer's notifications/cancelled, which targets a call we are
// serving, not one we issued).
func (d *Dispatcher) CancelCall(id protocol.ID) {
	d.mu.Lock()
	p, ok := d.pending[id.Key()]
	d.mu.Unlock()
	if ok {
		p.cancel()
	}
}

// Run is the read loop (§5): receive → classify → dispatch (spawn) →
// repeat. It returns when the transport yields end-of-stream or a
// transport error, at which point every outstanding pending call resolves
// with ErrConnectionClosed (§5 lifecycle) and Run's caller should treat the
// connection as finished.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.shutdown()

	for {
		msg, err := d.t.Receive(ctx)
		if err != nil {
			return err
		}
		if msg == nil {
			return nil // graceful end of stream
		}

		switch msg.Kind {
		case protocol.KindResponse:
			d.deliver(msg.Resp)
		case protocol.KindRequest:
			d.wg.Add(1)
			go d.serveRequest(ctx, msg.Req)
		case protocol.KindNotification:
			d.handleNotification(ctx, msg.Notif)
		}
	}
}

func (d *Dispatcher) deliver(resp *protocol.Response) {
	d.mu.Lock()
	p, ok := d.pending[resp.ID.Key()]
	if ok {
		delete(d.pending, resp.ID.Key())
	}
	d.mu.Unlock()

	if !ok {
		logger.Warn("dispatcher: discarding response for unknown id", resp.ID.String())
		return
	}
	select {
	case p.ch <- resp:
	default:
	}
}

func (d *Dispatcher) serveRequest(ctx context.Context, req *protocol.Request) {
	defer d.wg.Done()

	handlerCtx, cancel := context.WithCancel(ctx)
	key := req.ID.Key()
	d.mu.Lock()
	d.handlerCancel[key] = cancel
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.handlerCancel, key)
		d.mu.Unlock()
		cancel()
	}()

	handler, ok := d.registry.request(req.Method)
	if !ok {
		d.sendError(ctx, protocol.NewMethodNotFound(req.Method).ToJsonRpcError(), req.ID)
		return
	}

	hctx := &Context{Context: handlerCtx, RequestID: req.ID, d: d}
	result, err := handler(hctx, req.Params)

	select {
	case <-handlerCtx.Done():
		if handlerCtx.Err() == context.Canceled {
			return // cancelled: no response delivered (§8 scenario 4)
		}
	default:
	}

	if err != nil {
		d.sendHandlerError(ctx, err, req.ID)
		return
	}

	data, err := protocol.EncodeResult(result, req.ID)
	if err != nil {
		d.sendError(ctx, protocol.NewInternalError(err).ToJsonRpcError(), req.ID)
		return
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		d.sendError(ctx, protocol.NewInternalError(err).ToJsonRpcError(), req.ID)
		return
	}
	if err := d.t.Send(ctx, msg); err != nil {
		logger.Warn("dispatcher: failed to send response", err)
	}
}

func (d *Dispatcher) sendHandlerError(ctx context.Context, err error, id protocol.ID) {
	switch e := err.(type) {
	case *protocol.HandlerError:
		d.sendError(ctx, e.ToJsonRpcError(), id)
	case *protocol.ProtocolError:
		d.sendError(ctx, e.ToJsonRpcError(), id)
	default:
		d.sendError(ctx, protocol.NewInternalError(err).ToJsonRpcError(), id)
	}
}

func (d *Dispatcher) sendError(ctx context.Context, jerr *protocol.JsonRpcError, id protocol.ID) {
	data, err := protocol.EncodeError(jerr, id)
	if err != nil {
		logger.Error("dispatcher: failed to encode error response", err)
		return
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		logger.Error("dispatcher: failed to re-decode error response", err)
		return
	}
	if err := d.t.Send(ctx, msg); err != nil {
		logger.Warn("dispatcher: failed to send error response", err)
	}
}

func (d *Dispatcher) handleNotification(ctx context.Context, notif *protocol.Notification) {
	if notif.Method == string(protocol.MethodCancelled) {
		var params protocol.CancelledParams
		if err := json.Unmarshal(notif.Params, &params); err == nil {
			d.mu.Lock()
			cancel, ok := d.handlerCancel[params.RequestID.Key()]
			d.mu.Unlock()
			if ok {
				cancel()
			}
		}
		return
	}

	handler, ok := d.registry.notification(notif.Method)
	if !ok {
		return // unknown notifications are silently dropped (§4.3)
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		handler(ctx, notif.Params)
	}()
}

func (d *Dispatcher) shutdown() {
	d.closeOnce.Do(func() {
		close(d.closed)
	})
}

// Wait blocks until every spawned handler goroutine has returned. Intended
// for graceful shutdown after Run returns.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
