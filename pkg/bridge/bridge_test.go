package bridge

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgo/mcp/pkg/protocol"
)

func sampleTool() protocol.Tool {
	return protocol.Tool{
		Name:        "calculator",
		Description: "does math",
		InputSchema: protocol.InputSchema{
			Type:     "object",
			Required: []string{"expression"},
			Properties: map[string]protocol.ToolProperty{
				"expression": {Type: "string"},
			},
		},
	}
}

func TestToolToOpenAI(t *testing.T) {
	got := ToolToOpenAI(sampleTool())
	assert.Equal(t, openai.ToolTypeFunction, got.Type)
	assert.Equal(t, "calculator", got.Function.Name)
}

func TestParseToolCall(t *testing.T) {
	call := openai.ToolCall{
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      "calculator",
			Arguments: `{"expression":"2+2"}`,
		},
	}
	name, args, err := ParseToolCall(call)
	require.NoError(t, err)
	assert.Equal(t, "calculator", name)
	assert.Equal(t, "2+2", args["expression"])
}

func TestResultToOpenAIMessage(t *testing.T) {
	msg := ResultToOpenAIMessage("call-1", protocol.TextResult("4"))
	assert.Equal(t, "call-1", msg.ToolCallID)
	assert.Equal(t, "4", msg.Content)
}

func TestResultToOpenAIMessageMultiBlockIsJSONSerialized(t *testing.T) {
	result := protocol.CallToolResult{
		Content: []protocol.ContentBlock{
			protocol.TextBlock("partial answer"),
			protocol.ImageBlock("YmFzZTY0", "image/png"),
		},
	}
	msg := ResultToOpenAIMessage("call-2", result)

	var blocks []protocol.ContentBlock
	require.NoError(t, json.Unmarshal([]byte(msg.Content), &blocks))
	assert.Equal(t, result.Content, blocks)
}

func TestResultToOpenAIMessageErrorWithNoContent(t *testing.T) {
	msg := ResultToOpenAIMessage("call-3", protocol.ErrorResult(""))
	assert.NotEmpty(t, msg.Content)
}

func TestToolToOllama(t *testing.T) {
	got := ToolToOllama(sampleTool())
	assert.Equal(t, "function", got.Type)
	assert.Equal(t, "calculator", got.Function.Name)
}

func TestExtractFunctionCall(t *testing.T) {
	text := `I will call a tool now.
<function_call>{"name":"calculator","arguments":{"expression":"2+2"}}</function_call>
`
	name, args, ok := ExtractFunctionCall(text)
	require.True(t, ok)
	assert.Equal(t, "calculator", name)
	assert.Equal(t, "2+2", args["expression"])
}

func TestParseOllamaToolCall(t *testing.T) {
	call := OllamaToolCall{}
	call.Function.Name = "calculator"
	call.Function.Arguments = map[string]any{"expression": "2+2"}

	name, args := ParseOllamaToolCall(call)
	assert.Equal(t, "calculator", name)
	assert.Equal(t, "2+2", args["expression"])
}

func TestParseOllamaToolCallNilArguments(t *testing.T) {
	call := OllamaToolCall{}
	call.Function.Name = "calculator"

	_, args := ParseOllamaToolCall(call)
	assert.NotNil(t, args)
	assert.Empty(t, args)
}

func TestExtractFunctionCallAbsent(t *testing.T) {
	_, _, ok := ExtractFunctionCall("just plain text")
	assert.False(t, ok)
}
