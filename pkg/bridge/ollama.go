package bridge

import (
	"encoding/json"
	"regexp"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// OllamaFunction mirrors the "function" object Ollama's /api/chat accepts
// inside a request's tools array — a name/description/parameters triple,
// the same shape OpenAI uses but kept as its own type since Ollama's JSON
// tags and optionality differ slightly from go-openai's struct.
type OllamaFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// OllamaTool is one entry of a request's tools array.
type OllamaTool struct {
	Type     string         `json:"type"`
	Function OllamaFunction `json:"function"`
}

// OllamaToolCall is one entry of a response message's tool_calls array,
// for models that support Ollama's structured calling.
type OllamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

// ToolToOllama renders one MCP Tool as an Ollama tool definition.
func ToolToOllama(tool protocol.Tool) OllamaTool {
	var params map[string]any
	if tool.InputSchema.Raw != nil {
		_ = json.Unmarshal(tool.InputSchema.Raw, &params)
	} else {
		params = map[string]any{
			"type":                 tool.InputSchema.Type,
			"properties":           tool.InputSchema.Properties,
			"required":             tool.InputSchema.Required,
			"additionalProperties": tool.InputSchema.AdditionalProperties,
		}
	}
	return OllamaTool{
		Type: "function",
		Function: OllamaFunction{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  params,
		},
	}
}

func ToolsToOllama(tools []protocol.Tool) []OllamaTool {
	out := make([]OllamaTool, len(tools))
	for i, t := range tools {
		out[i] = ToolToOllama(t)
	}
	return out
}

// ParseOllamaToolCall extracts the uniform name/arguments tuple (§4.6) from
// a response message's native tool_calls entry — the structured-calling
// counterpart to ExtractFunctionCall's text-embedded fallback.
func ParseOllamaToolCall(call OllamaToolCall) (name string, args map[string]any) {
	args = call.Function.Arguments
	if args == nil {
		args = make(map[string]any)
	}
	return call.Function.Name, args
}

// functionCallTagRe matches the <function_call>{...}</function_call>
// fallback shape some Ollama models emit as plain text instead of using
// the structured tool_calls field — the dotall flag lets the JSON body
// span multiple lines.
var functionCallTagRe = regexp.MustCompile(`(?s)<function_call>\s*(\{.*?\})\s*</function_call>`)

// ExtractFunctionCall scans text for the <function_call> fallback tag
// (§4.6) and parses its JSON body into a name/arguments pair. ok is false
// if no tag is present or its body doesn't parse.
func ExtractFunctionCall(text string) (name string, args map[string]any, ok bool) {
	m := functionCallTagRe.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	var body struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(m[1]), &body); err != nil {
		return "", nil, false
	}
	return body.Name, body.Arguments, true
}
