package resources

import (
	"context"
	"fmt"

	"github.com/mcpgo/mcp/pkg/completion"
	"github.com/mcpgo/mcp/pkg/protocol"
)

// ExampleResource is the static documentation resource kept from the
// teacher's own example catalogue.
func ExampleResource() protocol.Resource {
	return protocol.Resource{
		URI:         "docs://example",
		Name:        "example_documentation",
		Description: "Example documentation resource for MCP",
		MimeType:    "text/markdown",
	}
}

// HandleExampleResource serves ExampleResource's static content.
func HandleExampleResource(ctx context.Context, uri string, vars map[string]string) (protocol.ResourceContent, error) {
	return protocol.ResourceContent{
		URI:      uri,
		MimeType: "text/markdown",
		Text:     "# MCP Documentation\n\nThis is example documentation for the Model Context Protocol.",
	}, nil
}

// WeatherResourceTemplate is a resource template parameterized on city,
// generalizing the teacher's single hard-coded WeatherResource into the
// RFC 6570 Level 1 shape the protocol expects of templates (§3, §4.5.2).
func WeatherResourceTemplate() protocol.ResourceTemplateDescriptor {
	return protocol.ResourceTemplateDescriptor{
		URITemplate: "weather://{city}/current",
		Name:        "weather_current",
		Description: "Current weather conditions for a city",
		MimeType:    "application/json",
	}
}

// HandleWeatherResource serves one instantiation of WeatherResourceTemplate.
func HandleWeatherResource(ctx context.Context, uri string, vars map[string]string) (protocol.ResourceContent, error) {
	city := vars["city"]
	return protocol.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text: fmt.Sprintf(
			`{"location":%q,"temperature":72,"conditions":"Partly Cloudy"}`, city,
		),
	}, nil
}

// DefaultRegistry builds the reference catalogue (§9): one static
// resource, one templated resource with a completion list for its city
// variable. The CLI entry point registers the same two resources on its
// server builder directly rather than through this function.
func DefaultRegistry() *Registry {
	return NewBuilder().
		Register(ExampleResource(), HandleExampleResource).
		RegisterTemplate(WeatherResourceTemplate(), HandleWeatherResource).
		RegisterCompletable("weather://{city}/current", "city",
			completion.NewFixedList("paris", "london", "tokyo")).
		Build()
}
