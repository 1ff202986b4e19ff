package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// CalculatorTool describes the calculator reference tool (§9 "reference
// Tools"), kept from the teacher's own calculator sample.
func CalculatorTool() protocol.Tool {
	return protocol.Tool{
		Name:        "calculator",
		Description: "A simple calculator that can perform basic arithmetic operations",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"expression": {
					Type:        "string",
					Description: "A simple arithmetic expression with space-separated operands and operator, such as 2 + 2 or 4 * 6",
				},
			},
			Required:             []string{"expression"},
			AdditionalProperties: false,
		},
	}
}

// HandleCalculatorTool evaluates expression and returns a text result.
// A malformed expression is a business-logic failure, reported as
// isError=true rather than a Go error, per §7.
func HandleCalculatorTool(ctx context.Context, args map[string]any) (protocol.CallToolResult, error) {
	expression, ok := args["expression"].(string)
	if !ok || expression == "" {
		return protocol.ErrorResult("expression parameter is required and must be a string"), nil
	}

	result, err := calculateResult(expression)
	if err != nil {
		return protocol.ErrorResult(err.Error()), nil
	}
	return protocol.TextResult(fmt.Sprintf("%s = %g", expression, result)), nil
}

func calculateResult(expression string) (float64, error) {
	parts := strings.Fields(strings.TrimSpace(expression))
	if len(parts) != 3 {
		return 0, fmt.Errorf("expression must be in format 'number operator number'")
	}

	num1, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid first number: %w", err)
	}
	operator := parts[1]
	num2, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid second number: %w", err)
	}

	switch operator {
	case "+":
		return num1 + num2, nil
	case "-":
		return num1 - num2, nil
	case "*":
		return num1 * num2, nil
	case "/":
		if num2 == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return num1 / num2, nil
	default:
		return 0, fmt.Errorf("unsupported operator: %s", operator)
	}
}
