package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgo/mcp/pkg/completion"
	"github.com/mcpgo/mcp/pkg/protocol"
	"github.com/mcpgo/mcp/pkg/resources"
	"github.com/mcpgo/mcp/pkg/tools"
	"github.com/mcpgo/mcp/pkg/transport"
)

func testServer() *Server {
	return NewBuilder("test-server", "0.0.1").
		RegisterTool(tools.CalculatorTool(), tools.HandleCalculatorTool).
		RegisterResource(resources.ExampleResource(), resources.HandleExampleResource).
		RegisterResourceTemplate(resources.WeatherResourceTemplate(), resources.HandleWeatherResource).
		RegisterResourceCompletable("weather://{city}/current", "city",
			completion.NewFixedList("paris", "london", "tokyo")).
		Build()
}

// call drives one request/response round trip over an in-memory transport
// pair against a freshly Serve'd session.
func call(t *testing.T, srv *Server, method string, params any) (json.RawMessage, *protocol.JsonRpcError) {
	t.Helper()
	clientT, serverT := transport.NewMemoryTransportPair(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, clientT.Open(ctx))

	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, serverT)
		close(done)
	}()

	raw, err := encodeAndSend(t, ctx, clientT, method, params)
	require.NoError(t, err)

	resp, err := decodeResponse(ctx, clientT)
	require.NoError(t, err)
	_ = raw

	return resp.Result, resp.Error
}

func encodeAndSend(t *testing.T, ctx context.Context, tr *transport.MemoryTransport, method string, params any) (json.RawMessage, error) {
	t.Helper()
	data, err := protocol.EncodeRequest(method, params, protocol.NewIntID(1))
	if err != nil {
		return nil, err
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		return nil, err
	}
	return nil, tr.Send(ctx, msg)
}

func decodeResponse(ctx context.Context, tr *transport.MemoryTransport) (*protocol.Response, error) {
	msg, err := tr.Receive(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Resp, nil
}

func TestHandleInitializeNegotiatesSupportedVersion(t *testing.T) {
	srv := testServer()
	result, jerr := call(t, srv, string(protocol.MethodInitialize), protocol.InitializeParams{
		ProtocolVersion: "9999-99-99",
		ClientInfo:      protocol.Implementation{Name: "test-client", Version: "1.0"},
	})
	require.Nil(t, jerr)

	var res protocol.InitializeResult
	require.NoError(t, json.Unmarshal(result, &res))
	assert.Equal(t, SupportedProtocolVersion, res.ProtocolVersion)
	assert.Equal(t, "test-server", res.ServerInfo.Name)
	assert.NotNil(t, res.Capabilities.Tools)
	assert.NotNil(t, res.Capabilities.Resources)
}

func TestHandleToolsCallDispatchesToRegisteredTool(t *testing.T) {
	srv := testServer()
	result, jerr := call(t, srv, string(protocol.MethodToolsCall), protocol.CallToolParams{
		Name:      "calculator",
		Arguments: map[string]any{"expression": "2 + 2"},
	})
	require.Nil(t, jerr)

	var res protocol.CallToolResult
	require.NoError(t, json.Unmarshal(result, &res))
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Contains(t, res.Content[0].Text, "4")
}

func TestHandleResourcesReadUnknownURIIsJsonRpcError(t *testing.T) {
	srv := testServer()
	_, jerr := call(t, srv, string(protocol.MethodResourcesRead), protocol.ReadResourceParams{
		URI: "docs://does-not-exist",
	})
	require.NotNil(t, jerr)
	assert.Equal(t, resources.ErrNotFound.ToJsonRpcError().Code, jerr.Code)
}

func TestHandlePingReturnsEmptyResult(t *testing.T) {
	srv := testServer()
	result, jerr := call(t, srv, string(protocol.MethodPing), nil)
	require.Nil(t, jerr)
	assert.JSONEq(t, `{}`, string(result))
}

func TestHandleToolsListReturnsRegisteredTool(t *testing.T) {
	srv := testServer()
	result, jerr := call(t, srv, string(protocol.MethodToolsList), nil)
	require.Nil(t, jerr)

	var res protocol.ToolsListResult
	require.NoError(t, json.Unmarshal(result, &res))
	require.Len(t, res.Tools, 1)
	assert.Equal(t, "calculator", res.Tools[0].Name)
}

func TestHandleCompletionCompleteResourceRef(t *testing.T) {
	srv := testServer()
	result, jerr := call(t, srv, string(protocol.MethodCompletionComplete), protocol.CompleteParams{
		Ref:      protocol.CompletionRef{Type: "ref/resource", URI: "weather://{city}/current"},
		Argument: protocol.CompletionArgument{Name: "city", Value: ""},
	})
	require.Nil(t, jerr)

	var res protocol.CompleteResult
	require.NoError(t, json.Unmarshal(result, &res))
	assert.ElementsMatch(t, []string{"paris", "london", "tokyo"}, res.Completion.Values)
	assert.False(t, res.Completion.HasMore)
}

func TestHandleCompletionCompleteUnknownResourceRefIsEmpty(t *testing.T) {
	srv := testServer()
	result, jerr := call(t, srv, string(protocol.MethodCompletionComplete), protocol.CompleteParams{
		Ref:      protocol.CompletionRef{Type: "ref/resource", URI: "docs://example"},
		Argument: protocol.CompletionArgument{Name: "anything", Value: ""},
	})
	require.Nil(t, jerr)

	var res protocol.CompleteResult
	require.NoError(t, json.Unmarshal(result, &res))
	assert.Empty(t, res.Completion.Values)
}

func TestServeReturnsOnTransportClose(t *testing.T) {
	srv := testServer()
	clientT, serverT := transport.NewMemoryTransportPair(8)
	ctx := context.Background()
	require.NoError(t, clientT.Open(ctx))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, serverT) }()

	require.NoError(t, clientT.Close(ctx))

	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after transport close")
	}
}
