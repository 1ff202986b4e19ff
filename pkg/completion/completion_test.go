package completion

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcpgo/mcp/pkg/protocol"
)

func TestFixedListFiltersCaseInsensitive(t *testing.T) {
	l := NewFixedList("Go", "Python", "Rust", "golang-tools")
	result := l.Complete(context.Background(), "go")
	assert.ElementsMatch(t, []string{"Go", "golang-tools"}, result.Values)
	assert.False(t, result.HasMore)
}

func TestFixedListCapsAtMaxResults(t *testing.T) {
	values := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		values = append(values, fmt.Sprintf("item-%d", i))
	}
	l := NewFixedList(values...)
	result := l.Complete(context.Background(), "item")
	assert.Len(t, result.Values, maxResults)
	assert.True(t, result.HasMore)
	assert.EqualValues(t, 150, *result.Total)
}

func TestFuncCompletable(t *testing.T) {
	var c Completable = Func(func(ctx context.Context, value string) protocol.CompletionResult {
		return protocol.CompletionResult{Values: []string{"dynamic"}}
	})
	result := c.Complete(context.Background(), "")
	assert.Equal(t, []string{"dynamic"}, result.Values)
}
