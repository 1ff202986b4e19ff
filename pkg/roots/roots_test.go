package roots

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcpgo/mcp/pkg/protocol"
)

func TestSetContainsPrefixMatch(t *testing.T) {
	s := NewSet([]protocol.Root{{URI: "file:///home/user/project"}})
	assert.True(t, s.Contains("file:///home/user/project/src/main.go"))
	assert.False(t, s.Contains("file:///etc/passwd"))
}

func TestSetContainsRejectsSiblingDirectory(t *testing.T) {
	s := NewSet([]protocol.Root{{URI: "file:///home/user/project"}})
	assert.False(t, s.Contains("file:///home/user/project2/secret"))
	assert.True(t, s.Contains("file:///home/user/project"))
}

func TestSetEmpty(t *testing.T) {
	s := NewSet(nil)
	assert.True(t, s.Empty())
}
