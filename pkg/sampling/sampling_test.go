package sampling

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgo/mcp/pkg/protocol"
)

type fakeCaller struct {
	raw json.RawMessage
	err error
}

func (f *fakeCaller) Call(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	return f.raw, f.err
}

func TestCreateMessageDecodesResult(t *testing.T) {
	raw, _ := json.Marshal(protocol.CreateMessageResult{Role: "assistant", Model: "test-model"})
	caller := &fakeCaller{raw: raw}

	result, err := CreateMessage(context.Background(), caller, protocol.CreateMessageParams{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "test-model", result.Model)
}
