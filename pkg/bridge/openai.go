// Package bridge translates between MCP's Tool/CallToolResult shapes and
// the function-calling conventions of two LLM runtimes: OpenAI's
// structured tool-call API and Ollama's looser, often text-embedded one
// (ollama.go). Grounded on the AleutianLocal example repo's use of
// sashabaranov/go-openai for the OpenAI half; the Ollama half is
// hand-written since nothing in the retrieval pack wraps it (§9, noted in
// DESIGN.md as the one deliberately stdlib-only corner of the bridge).
package bridge

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// ToolToOpenAI renders one MCP Tool as an OpenAI function-calling
// definition. The InputSchema's Raw field (if set) is used verbatim;
// otherwise the typed Properties/Required are marshaled through.
func ToolToOpenAI(tool protocol.Tool) openai.Tool {
	var params any
	if tool.InputSchema.Raw != nil {
		var raw map[string]any
		_ = json.Unmarshal(tool.InputSchema.Raw, &raw)
		params = raw
	} else {
		params = map[string]any{
			"type":                 tool.InputSchema.Type,
			"properties":           tool.InputSchema.Properties,
			"required":             tool.InputSchema.Required,
			"additionalProperties": tool.InputSchema.AdditionalProperties,
		}
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  params,
		},
	}
}

// ToolsToOpenAI renders an entire tool catalogue for a chat completion
// request's Tools field.
func ToolsToOpenAI(tools []protocol.Tool) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = ToolToOpenAI(t)
	}
	return out
}

// ParseToolCall decodes an OpenAI ToolCall's JSON-string Arguments into the
// map[string]any shape CallToolParams.Arguments expects.
func ParseToolCall(call openai.ToolCall) (name string, args map[string]any, err error) {
	if call.Type != openai.ToolTypeFunction {
		return "", nil, fmt.Errorf("bridge: unsupported tool call type %q", call.Type)
	}
	args = make(map[string]any)
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", nil, fmt.Errorf("bridge: invalid function arguments: %w", err)
		}
	}
	return call.Function.Name, args, nil
}

// ResultToOpenAIMessage renders a CallToolResult as the "tool" role
// message OpenAI's chat completion API expects back in conversation
// history, correlated to the original tool_call_id. A single text block is
// sent verbatim; a single non-text block or more than one block is carried
// as the JSON-serialized content array (§4.6) so image/resource blocks
// survive instead of being silently dropped. A result with no blocks yields
// empty content. An error result whose content comes out empty is sent as
// "tool call failed".
func ResultToOpenAIMessage(toolCallID string, result protocol.CallToolResult) openai.ChatCompletionMessage {
	text := resultTextContent(result)
	if result.IsError && text == "" {
		text = "tool call failed"
	}
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    text,
		ToolCallID: toolCallID,
	}
}

func resultTextContent(result protocol.CallToolResult) string {
	if len(result.Content) == 1 && result.Content[0].Type == protocol.ContentText {
		return result.Content[0].Text
	}
	if len(result.Content) == 0 {
		return ""
	}
	data, err := json.Marshal(result.Content)
	if err != nil {
		return ""
	}
	return string(data)
}
