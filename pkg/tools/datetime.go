package tools

import (
	"context"
	"time"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// DateTimeTool describes the datetime reference tool (§9), kept from the
// teacher's own datetime sample.
func DateTimeTool() protocol.Tool {
	return protocol.Tool{
		Name:        "get_datetime",
		Description: "Returns the current date and time",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"format": {
					Type:        "string",
					Description: "A Go time layout such as 2006-01-02T15:04:05Z07:00",
				},
			},
			AdditionalProperties: false,
		},
	}
}

func HandleDateTimeTool(ctx context.Context, args map[string]any) (protocol.CallToolResult, error) {
	format := time.RFC3339
	if f, ok := args["format"].(string); ok && f != "" {
		format = f
	}
	return protocol.TextResult(time.Now().Format(format)), nil
}
