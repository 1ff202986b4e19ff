package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCallUnknownToolIsErrorResult(t *testing.T) {
	r := NewBuilder().Build()
	result, err := r.Call(context.Background(), "does-not-exist", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRegistryCallDispatchesToHandler(t *testing.T) {
	r := NewBuilder().
		Register(CalculatorTool(), HandleCalculatorTool).
		Build()

	result, err := r.Call(context.Background(), "calculator", map[string]any{"expression": "2 + 2"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "4")
}

func TestRegistryListPaginates(t *testing.T) {
	r := NewBuilder().
		Register(CalculatorTool(), HandleCalculatorTool).
		Register(DateTimeTool(), HandleDateTimeTool).
		Build()

	page := r.List("", 1)
	require.Len(t, page.Tools, 1)
	require.NotNil(t, page.NextCursor)

	rest := r.List(*page.NextCursor, 0)
	assert.Len(t, rest.Tools, 1)
	assert.Nil(t, rest.NextCursor)
}

func TestCalculatorDivisionByZeroIsErrorResult(t *testing.T) {
	result, err := HandleCalculatorTool(context.Background(), map[string]any{"expression": "1 / 0"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
