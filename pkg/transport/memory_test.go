package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgo/mcp/pkg/protocol"
)

func TestMemoryTransportRoundTrip(t *testing.T) {
	client, server := NewMemoryTransportPair(4)
	ctx := context.Background()

	req := &protocol.Message{Kind: protocol.KindRequest, Req: &protocol.Request{
		ID: protocol.NewIntID(1), Method: "ping",
	}}
	require.NoError(t, client.Send(ctx, req))

	got, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ping", got.Req.Method)
}

func TestMemoryTransportCloseYieldsEndOfStream(t *testing.T) {
	client, server := NewMemoryTransportPair(4)
	ctx := context.Background()

	require.NoError(t, client.Close(ctx))

	msg, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMemoryTransportSendAfterCloseFails(t *testing.T) {
	client, _ := NewMemoryTransportPair(4)
	ctx := context.Background()
	require.NoError(t, client.Close(ctx))

	err := client.Send(ctx, &protocol.Message{Kind: protocol.KindNotification, Notif: &protocol.Notification{Method: "x"}})
	require.ErrorIs(t, err, protocol.ErrTransportClosed)
}

func TestMemoryTransportBackpressure(t *testing.T) {
	client, _ := NewMemoryTransportPair(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	notif := &protocol.Message{Kind: protocol.KindNotification, Notif: &protocol.Notification{Method: "x"}}
	require.NoError(t, client.Send(context.Background(), notif))

	err := client.Send(ctx, notif)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
