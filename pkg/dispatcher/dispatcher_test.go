package dispatcher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgo/mcp/pkg/protocol"
	"github.com/mcpgo/mcp/pkg/transport"
)

func TestCallRoundTrip(t *testing.T) {
	clientT, serverT := transport.NewMemoryTransportPair(8)
	ctx := context.Background()
	require.NoError(t, clientT.Open(ctx))
	require.NoError(t, serverT.Open(ctx))

	registry := NewBuilder().
		Request("echo", func(ctx *Context, params json.RawMessage) (any, error) {
			var args map[string]string
			_ = json.Unmarshal(params, &args)
			return map[string]string{"echo": args["text"]}, nil
		}).
		Build()

	server := New(serverT, registry)
	client := New(clientT, nil)

	go server.Run(ctx)
	go client.Run(ctx)

	raw, err := client.Call(ctx, "echo", map[string]string{"text": "hi"}, time.Second)
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "hi", result["echo"])
}

func TestCallUnknownMethodReturnsJsonRpcError(t *testing.T) {
	clientT, serverT := transport.NewMemoryTransportPair(8)
	ctx := context.Background()
	require.NoError(t, clientT.Open(ctx))
	require.NoError(t, serverT.Open(ctx))

	server := New(serverT, NewBuilder().Build())
	client := New(clientT, nil)
	go server.Run(ctx)
	go client.Run(ctx)

	_, err := client.Call(ctx, "does/not/exist", nil, time.Second)
	require.Error(t, err)
	jerr, ok := err.(*protocol.JsonRpcError)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrMethodNotFound, jerr.Code)
	assert.Equal(t, "Method not found", jerr.Message)
}

func TestCallTimesOutWhenHandlerNeverReplies(t *testing.T) {
	clientT, serverT := transport.NewMemoryTransportPair(8)
	ctx := context.Background()
	require.NoError(t, clientT.Open(ctx))
	require.NoError(t, serverT.Open(ctx))

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	registry := NewBuilder().
		Request("slow", func(ctx *Context, params json.RawMessage) (any, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}
			return nil, nil
		}).
		Build()

	server := New(serverT, registry)
	client := New(clientT, nil)
	go server.Run(ctx)
	go client.Run(ctx)

	_, err := client.Call(ctx, "slow", nil, 20*time.Millisecond)
	assert.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestNotifyDeliversToNotificationHandler(t *testing.T) {
	clientT, serverT := transport.NewMemoryTransportPair(8)
	ctx := context.Background()
	require.NoError(t, clientT.Open(ctx))
	require.NoError(t, serverT.Open(ctx))

	received := make(chan string, 1)
	registry := NewBuilder().
		Notification("notifications/initialized", func(ctx context.Context, params json.RawMessage) {
			received <- "got it"
		}).
		Build()

	server := New(serverT, registry)
	client := New(clientT, nil)
	go server.Run(ctx)
	go client.Run(ctx)

	require.NoError(t, client.Notify(ctx, "notifications/initialized", nil))

	select {
	case msg := <-received:
		assert.Equal(t, "got it", msg)
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}
}
