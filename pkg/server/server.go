// Package server assembles the Dispatcher, the frozen capability
// Registries, and the initialize handshake into one runnable MCP server,
// replacing the teacher's package-level singleton (pkg/server/server.go's
// GetInstance/InitInstance/mu) with an explicit, transport-agnostic
// Builder whose product can be Serve'd over any number of connections
// concurrently — required once SSE/WebSocket sessions can be concurrent,
// unlike the teacher's single stdio process.
package server

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mcpgo/mcp/internal/logger"
	"github.com/mcpgo/mcp/pkg/completion"
	"github.com/mcpgo/mcp/pkg/dispatcher"
	"github.com/mcpgo/mcp/pkg/prompts"
	"github.com/mcpgo/mcp/pkg/protocol"
	"github.com/mcpgo/mcp/pkg/resources"
	"github.com/mcpgo/mcp/pkg/roots"
	"github.com/mcpgo/mcp/pkg/tools"
	"github.com/mcpgo/mcp/pkg/transport"
)

// SupportedProtocolVersion is the highest protocolVersion this server
// speaks. If a client proposes a newer one at initialize, the server
// replies with this value instead (§4.4 version negotiation) — the
// client then decides whether to proceed or disconnect.
const SupportedProtocolVersion = "2024-11-05"

// Server is an immutable set of capability registries plus server
// identity. Build one with NewBuilder, then Serve it over as many
// transports/connections as needed.
type Server struct {
	info      protocol.Implementation
	tools     *tools.Registry
	resources *resources.Registry
	prompts   *prompts.Store

	// promptCompletions backs completion/complete for ref/prompt, adapting
	// the prompt store's completion functions to Completable. It is nil
	// when no prompt store is attached.
	promptCompletions func(promptName, argName string) (completion.Completable, bool)
}

// Builder accumulates a server's capability registries before Build
// freezes them, mirroring the Builder shape used throughout this module
// (pkg/dispatcher, pkg/tools, pkg/resources).
type Builder struct {
	info      protocol.Implementation
	tools     *tools.Builder
	resources *resources.Builder
	prompts   *prompts.Store
}

func NewBuilder(name, version string) *Builder {
	return &Builder{
		info:      protocol.Implementation{Name: name, Version: version},
		tools:     tools.NewBuilder(),
		resources: resources.NewBuilder(),
	}
}

func (b *Builder) RegisterTool(tool protocol.Tool, handler tools.Handler) *Builder {
	b.tools.Register(tool, handler)
	return b
}

func (b *Builder) RegisterResource(resource protocol.Resource, handler resources.ReadHandler) *Builder {
	b.resources.Register(resource, handler)
	return b
}

func (b *Builder) RegisterResourceTemplate(descriptor protocol.ResourceTemplateDescriptor, handler resources.ReadHandler) *Builder {
	b.resources.RegisterTemplate(descriptor, handler)
	return b
}

// RegisterResourceCompletable attaches a completion callback for a resource
// template's variable, served by completion/complete on a ref/resource
// request (§4.5.6).
func (b *Builder) RegisterResourceCompletable(uriTemplate, varName string, c completion.Completable) *Builder {
	b.resources.RegisterCompletable(uriTemplate, varName, c)
	return b
}

// WithPrompts attaches a prompt store — optional, since not every server
// needs file-backed prompt templates.
func (b *Builder) WithPrompts(store *prompts.Store) *Builder {
	b.prompts = store
	return b
}

func (b *Builder) Build() *Server {
	s := &Server{
		info:      b.info,
		tools:     b.tools.Build(),
		resources: b.resources.Build(),
		prompts:   b.prompts,
	}
	if s.prompts != nil {
		s.promptCompletions = func(promptName, argName string) (completion.Completable, bool) {
			fn, ok := s.prompts.Completable(promptName, argName)
			if !ok {
				return nil, false
			}
			return completion.Func(func(ctx context.Context, value string) protocol.CompletionResult {
				return fn(value)
			}), true
		}
	}
	return s
}

// Serve runs one connection to completion: it opens t, builds a fresh
// per-connection Dispatcher bound to this server's capability registries,
// and blocks in the read loop until the peer disconnects or ctx is
// cancelled. Grounded on the teacher's Start()'s signal-aware blocking
// ProcessRequests call, generalized to run per-session rather than once
// for the process's lifetime (§5).
func (s *Server) Serve(ctx context.Context, t transport.Transport) error {
	sessionID := uuid.NewString()
	if err := t.Open(ctx); err != nil {
		return err
	}
	defer func() {
		_ = t.Close(ctx)
		s.resources.DropSession(sessionID)
	}()

	sess := &session{id: sessionID, server: s}
	registry := s.buildRegistry(sess)
	d := dispatcher.New(t, registry)
	sess.d = d

	err := d.Run(ctx)
	d.Wait()
	if err != nil {
		logger.Warn("server: session ended", sessionID, err)
	}
	return err
}

// session carries the per-connection state no capability Registry can
// hold itself: the negotiated roots set and a back-reference for
// server-initiated calls (sampling, roots/list).
type session struct {
	id     string
	server *Server
	d      *dispatcher.Dispatcher
	roots  *roots.Set
}

func (s *Server) buildRegistry(sess *session) *dispatcher.Registry {
	b := dispatcher.NewBuilder()

	b.Request(string(protocol.MethodInitialize), sess.handleInitialize)
	b.Notification(string(protocol.MethodInitialized), sess.handleInitialized)
	b.Request(string(protocol.MethodPing), sess.handlePing)

	b.Request(string(protocol.MethodToolsList), sess.handleToolsList)
	b.Request(string(protocol.MethodToolsCall), sess.handleToolsCall)

	b.Request(string(protocol.MethodResourcesList), sess.handleResourcesList)
	b.Request(string(protocol.MethodResourcesRead), sess.handleResourcesRead)
	b.Request(string(protocol.MethodResourcesTemplates), sess.handleResourcesTemplates)
	b.Request(string(protocol.MethodResourcesSubscribe), sess.handleResourcesSubscribe)
	b.Request(string(protocol.MethodResourcesUnsubscribe), sess.handleResourcesUnsubscribe)

	if s.prompts != nil {
		b.Request(string(protocol.MethodPromptsList), sess.handlePromptsList)
		b.Request(string(protocol.MethodPromptsGet), sess.handlePromptsGet)
	}

	b.Request(string(protocol.MethodCompletionComplete), sess.handleCompletionComplete)
	b.Request(string(protocol.MethodLoggingSetLevel), sess.handleSetLevel)

	return b.Build()
}

func (sess *session) handleInitialize(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, protocol.NewInvalidParams(err.Error())
		}
	}

	version := req.ProtocolVersion
	if version == "" || version > SupportedProtocolVersion {
		version = SupportedProtocolVersion
	}

	caps := protocol.ServerCapabilities{}
	caps.Tools = &protocol.ToolsCapability{ListChanged: false}
	caps.Resources = &protocol.ResourcesCapability{Subscribe: true, ListChanged: false}
	if sess.server.prompts != nil {
		caps.Prompts = &protocol.PromptsCapability{ListChanged: false}
	}
	caps.Logging = map[string]any{}

	if req.Capabilities.Roots != nil {
		sess.roots = roots.NewSet(nil)
	}

	return protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      sess.server.info,
	}, nil
}

func (sess *session) handleInitialized(ctx context.Context, params json.RawMessage) {
	logger.Info("session initialized", sess.id)
	if sess.roots == nil {
		return
	}
	go func() {
		raw, err := sess.d.Call(ctx, string(protocol.MethodRootsList), nil, dispatcher.DefaultCallTimeout)
		if err != nil {
			logger.Warn("session: roots/list failed", sess.id, err)
			return
		}
		var result protocol.RootsListResult
		if err := json.Unmarshal(raw, &result); err != nil {
			logger.Warn("session: roots/list response malformed", sess.id, err)
			return
		}
		sess.roots = roots.NewSet(result.Roots)
	}()
}

func (sess *session) handlePing(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	return struct{}{}, nil
}

func (sess *session) handleToolsList(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req struct {
		Cursor string `json:"cursor"`
	}
	_ = json.Unmarshal(params, &req)
	return sess.server.tools.List(req.Cursor, 0), nil
}

func (sess *session) handleToolsCall(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.CallToolParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	return sess.server.tools.Call(ctx, req.Name, req.Arguments)
}

func (sess *session) handleResourcesList(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req struct {
		Cursor string `json:"cursor"`
	}
	_ = json.Unmarshal(params, &req)
	return sess.server.resources.List(req.Cursor, 0), nil
}

func (sess *session) handleResourcesRead(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.ReadResourceParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	content, err := sess.server.resources.Read(ctx, req.URI)
	if err != nil {
		return nil, err
	}
	return struct {
		Contents []protocol.ResourceContent `json:"contents"`
	}{Contents: []protocol.ResourceContent{content}}, nil
}

func (sess *session) handleResourcesTemplates(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	return sess.server.resources.Templates(), nil
}

func (sess *session) handleResourcesSubscribe(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.SubscribeParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	sess.server.resources.Subscribe(sess.id, req.URI)
	return struct{}{}, nil
}

func (sess *session) handleResourcesUnsubscribe(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.SubscribeParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	sess.server.resources.Unsubscribe(sess.id, req.URI)
	return struct{}{}, nil
}

func (sess *session) handlePromptsList(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	return protocol.PromptsListResult{Prompts: sess.server.prompts.List()}, nil
}

func (sess *session) handlePromptsGet(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.GetPromptParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	return sess.server.prompts.Render(req.Name, req.Arguments)
}

func (sess *session) handleCompletionComplete(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.CompleteParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	switch req.Ref.Type {
	case "ref/prompt":
		if sess.server.promptCompletions != nil {
			if c, ok := sess.server.promptCompletions(req.Ref.Name, req.Argument.Name); ok {
				return protocol.CompleteResult{Completion: c.Complete(ctx, req.Argument.Value)}, nil
			}
		}
	case "ref/resource":
		if c, ok := sess.server.resources.Completable(req.Ref.URI, req.Argument.Name); ok {
			return protocol.CompleteResult{Completion: c.Complete(ctx, req.Argument.Value)}, nil
		}
	}
	return protocol.CompleteResult{Completion: protocol.CompletionResult{Values: []string{}}}, nil
}

func (sess *session) handleSetLevel(ctx *dispatcher.Context, params json.RawMessage) (any, error) {
	var req protocol.SetLevelParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	logger.SetLevel(logger.ParseLevel(req.Level))
	return struct{}{}, nil
}
