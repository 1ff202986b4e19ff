package transport

import (
	"context"
	"sync"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// DefaultQueueCapacity is the default bound on each direction's queue
// (§4.2.2).
const DefaultQueueCapacity = 256

// MemoryTransport is one endpoint of a pair of bounded queues: everything
// Send puts on this endpoint's outbound queue, Receive on the paired
// endpoint pulls off, and vice versa. Used by tests to drive a full server
// in-process without a real process boundary.
type MemoryTransport struct {
	out chan *protocol.Message
	in  chan *protocol.Message

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryTransportPair builds two endpoints whose outbound queue is the
// other's inbound queue.
func NewMemoryTransportPair(capacity int) (client, server *MemoryTransport) {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	a2b := make(chan *protocol.Message, capacity)
	b2a := make(chan *protocol.Message, capacity)

	client = &MemoryTransport{out: a2b, in: b2a, closed: make(chan struct{})}
	server = &MemoryTransport{out: b2a, in: a2b, closed: make(chan struct{})}
	return client, server
}

func (t *MemoryTransport) Open(ctx context.Context) error {
	return nil
}

func (t *MemoryTransport) Send(ctx context.Context, msg *protocol.Message) error {
	select {
	case <-t.closed:
		return protocol.ErrTransportClosed
	default:
	}
	select {
	case t.out <- msg:
		return nil
	case <-t.closed:
		return protocol.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *MemoryTransport) Receive(ctx context.Context) (*protocol.Message, error) {
	select {
	case msg, ok := <-t.in:
		if !ok {
			return nil, nil
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes this endpoint's outbound queue. The paired endpoint's
// Receive drains whatever was already queued, then observes end of
// stream.
func (t *MemoryTransport) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		close(t.closed)
		close(t.out)
	})
	return nil
}
