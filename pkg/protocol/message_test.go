package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"ping"},"id":1}`)
	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindRequest, msg.Kind)
	assert.Equal(t, "tools/call", msg.Req.Method)
	assert.Equal(t, NewIntID(1), msg.Req.ID)
}

func TestDecodeResponse(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","id":2,"result":{"ok":true}}`)
	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindResponse, msg.Kind)
	assert.Nil(t, msg.Resp.Error)
	assert.JSONEq(t, `{"ok":true}`, string(msg.Resp.Result))
}

func TestDecodeNotification(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":7}}`)
	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindNotification, msg.Kind)
	assert.Equal(t, "notifications/cancelled", msg.Notif.Method)
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	_, err := Decode([]byte(`{"jsonrpc":"1.0","method":"ping","id":1}`))
	require.Error(t, err)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrInvalidRequest, perr.Code)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrParse, perr.Code)
}

func TestDecodeRejectsAmbiguousShape(t *testing.T) {
	_, err := Decode([]byte(`{"jsonrpc":"2.0"}`))
	require.Error(t, err)
}

func TestRoundTripRequest(t *testing.T) {
	encoded, err := EncodeRequest("ping", map[string]any{"x": 1}, NewStringID("abc"))
	require.NoError(t, err)

	msg, err := Decode(encoded)
	require.NoError(t, err)
	reEncoded, err := Encode(msg)
	require.NoError(t, err)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(encoded, &a))
	require.NoError(t, json.Unmarshal(reEncoded, &b))
	assert.Equal(t, a, b)
}

func TestIDEqualityByTypeAndValue(t *testing.T) {
	assert.True(t, NewIntID(1).Equal(NewIntID(1)))
	assert.False(t, NewIntID(1).Equal(NewStringID("1")))
	assert.False(t, NewStringID("1").Equal(NewIntID(1)))
}

func TestPingPongScenario(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"ping"},"id":1}`)
	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindRequest, msg.Kind)

	result := TextResult("pong")
	encoded, err := EncodeResult(result, msg.Req.ID)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"pong"}],"isError":false}}`,
		string(encoded))
}

func TestUnknownMethodScenario(t *testing.T) {
	id := NewIntID(2)
	encoded, err := EncodeError(NewMethodNotFound("does/not/exist").ToJsonRpcError(), id)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"Method not found"}}`,
		string(encoded))
}
