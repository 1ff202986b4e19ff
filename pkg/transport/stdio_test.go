package transport

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgo/mcp/pkg/protocol"
)

func TestStdioTransportReceiveParsesLine(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}` + "\n")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out)
	require.NoError(t, tr.Open(context.Background()))

	msg, err := tr.Receive(context.Background())
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "ping", msg.Req.Method)
}

func TestStdioTransportReceiveEOFIsGraceful(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out)
	require.NoError(t, tr.Open(context.Background()))

	msg, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestStdioTransportSendWritesOneLine(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out)
	require.NoError(t, tr.Open(context.Background()))

	msg := &protocol.Message{Kind: protocol.KindNotification, Notif: &protocol.Notification{Method: "notifications/initialized"}}
	require.NoError(t, tr.Send(context.Background(), msg))

	assert.True(t, strings.HasSuffix(out.String(), "\n"))
	assert.Contains(t, out.String(), "notifications/initialized")
}

func TestStdioTransportDoubleOpenFails(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, tr.Open(context.Background()))
	err := tr.Open(context.Background())
	require.ErrorIs(t, err, protocol.ErrTransportAlreadyOpen)
}
