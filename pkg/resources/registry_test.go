package resources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpgo/mcp/pkg/completion"
	"github.com/mcpgo/mcp/pkg/protocol"
)

func protocolResourceTemplate(uriTemplate string) protocol.ResourceTemplateDescriptor {
	return protocol.ResourceTemplateDescriptor{URITemplate: uriTemplate, Name: "test_template"}
}

func staticFileHandler(ctx context.Context, uri string, vars map[string]string) (protocol.ResourceContent, error) {
	return protocol.ResourceContent{URI: uri, Text: vars["path"]}, nil
}

func TestRegistryReadStaticResource(t *testing.T) {
	r := DefaultRegistry()
	content, err := r.Read(context.Background(), "docs://example")
	require.NoError(t, err)
	assert.Contains(t, content.Text, "MCP Documentation")
}

func TestRegistryReadTemplateExtractsVars(t *testing.T) {
	r := DefaultRegistry()
	content, err := r.Read(context.Background(), "weather://paris/current")
	require.NoError(t, err)
	assert.Contains(t, content.Text, "paris")
}

func TestRegistryReadUnknownURIIsNotFound(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Read(context.Background(), "docs://missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistrySubscribeTracksSession(t *testing.T) {
	r := DefaultRegistry()
	r.Subscribe("session-1", "docs://example")
	assert.Equal(t, []string{"session-1"}, r.Subscribers("docs://example"))

	r.Unsubscribe("session-1", "docs://example")
	assert.Empty(t, r.Subscribers("docs://example"))
}

func TestRegistryCompletableMatchesTemplateByURI(t *testing.T) {
	r := NewBuilder().
		RegisterTemplate(protocolResourceTemplate("file:///{path}"), staticFileHandler).
		RegisterCompletable("file:///{path}", "path", completion.NewFixedList("a.txt", "b.txt")).
		Build()

	c, ok := r.Completable("file:///{path}", "path")
	require.True(t, ok)

	result := c.Complete(context.Background(), "")
	assert.Equal(t, []string{"a.txt", "b.txt"}, result.Values)
	assert.False(t, result.HasMore)
}

func TestRegistryCompletableUnknownVarOrTemplate(t *testing.T) {
	r := NewBuilder().
		RegisterTemplate(protocolResourceTemplate("file:///{path}"), staticFileHandler).
		RegisterCompletable("file:///{path}", "path", completion.NewFixedList("a.txt")).
		Build()

	_, ok := r.Completable("file:///{path}", "other")
	assert.False(t, ok)

	_, ok = r.Completable("weather://{city}/current", "path")
	assert.False(t, ok)
}

func TestTemplateCompileAndMatch(t *testing.T) {
	tmpl := CompileTemplate("weather://{city}/current")
	vars, ok := tmpl.Match("weather://london/current")
	require.True(t, ok)
	assert.Equal(t, "london", vars["city"])

	_, ok = tmpl.Match("weather://london/forecast")
	assert.False(t, ok)
}
