// Package tools implements the Tools capability module (§4.5.1): a
// cursor-paginated catalogue of callable tools plus the tools/call dispatch
// that turns a name+arguments pair into a CallToolResult. Grounded on the
// teacher's pkg/server/server.go RegisterTool/handleToolsList/handleToolsCall
// trio, split out of the server singleton into its own frozen Registry in
// the style of pkg/dispatcher's Builder.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/mcpgo/mcp/pkg/protocol"
)

// Handler executes one tool call. A non-nil error is an internal failure
// (becomes a JSON-RPC error); a business-logic failure — bad arguments,
// a downstream call that failed — is reported via ErrorResult(...) as a
// *successful* response with isError=true (§7).
type Handler func(ctx context.Context, args map[string]any) (protocol.CallToolResult, error)

type registeredTool struct {
	tool    protocol.Tool
	handler Handler
}

// Registry is the frozen, read-only tool catalogue.
type Registry struct {
	tools map[string]registeredTool
	order []string
}

// List returns tools starting after cursor, at most pageSize of them
// (pageSize<=0 means "all remaining"). Grounded on the teacher's flat
// handleToolsList, extended with the opaque-cursor pagination (§4.5.1).
func (r *Registry) List(cursor string, pageSize int) protocol.ToolsListResult {
	start := 0
	if cursor != "" {
		for i, name := range r.order {
			if name == cursor {
				start = i + 1
				break
			}
		}
	}
	end := len(r.order)
	if pageSize > 0 && start+pageSize < end {
		end = start + pageSize
	}

	result := protocol.ToolsListResult{Tools: make([]protocol.Tool, 0, end-start)}
	for _, name := range r.order[start:end] {
		result.Tools = append(result.Tools, r.tools[name].tool)
	}
	if end < len(r.order) {
		next := r.order[end-1]
		result.NextCursor = &next
	}
	return result
}

// Call dispatches to the named tool's handler. An unregistered tool name
// yields a successful response with isError=true, never a JSON-RPC error
// (§4.5.1 invariant) — only a handler's own returned Go error escalates to
// the protocol layer.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (protocol.CallToolResult, error) {
	rt, ok := r.tools[name]
	if !ok {
		return protocol.ErrorResult(fmt.Sprintf("tool not found: %s", name)), nil
	}
	return rt.handler(ctx, args)
}

// Has reports whether name is registered, so a caller can validate a
// model's proposed function call before invoking it.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Builder accumulates tool registrations before Build freezes them.
type Builder struct {
	tools map[string]registeredTool
	order []string
}

func NewBuilder() *Builder {
	return &Builder{tools: make(map[string]registeredTool)}
}

// Register adds tool under tool.Name, replacing any prior registration of
// the same name without error (last write wins), mirroring the teacher's
// append-only RegisterTool except idempotent re-registration is now safe.
func (b *Builder) Register(tool protocol.Tool, handler Handler) *Builder {
	if _, exists := b.tools[tool.Name]; !exists {
		b.order = append(b.order, tool.Name)
	}
	b.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
	return b
}

func (b *Builder) Build() *Registry {
	tools := make(map[string]registeredTool, len(b.tools))
	for k, v := range b.tools {
		tools[k] = v
	}
	order := make([]string, len(b.order))
	copy(order, b.order)
	sort.Strings(order)
	return &Registry{tools: tools, order: order}
}
