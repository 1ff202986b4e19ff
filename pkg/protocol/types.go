package protocol

import "encoding/json"

// MethodType names the JSON-RPC methods in the MCP namespace (§6). Grouped
// the way the teacher's jsonrpc.go groups its own MethodType constants.
type MethodType string

const (
	MethodInitialize  MethodType = "initialize"
	MethodInitialized MethodType = "notifications/initialized"

	MethodToolsList             MethodType = "tools/list"
	MethodToolsCall             MethodType = "tools/call"
	MethodToolsListChanged      MethodType = "notifications/tools/list_changed"
	MethodResourcesList         MethodType = "resources/list"
	MethodResourcesRead         MethodType = "resources/read"
	MethodResourcesTemplates    MethodType = "resources/templates/list"
	MethodResourcesSubscribe    MethodType = "resources/subscribe"
	MethodResourcesUnsubscribe  MethodType = "resources/unsubscribe"
	MethodResourcesUpdated      MethodType = "notifications/resources/updated"
	MethodResourcesListChanged  MethodType = "notifications/resources/list_changed"
	MethodPromptsList           MethodType = "prompts/list"
	MethodPromptsGet            MethodType = "prompts/get"
	MethodPromptsListChanged    MethodType = "notifications/prompts/list_changed"
	MethodRootsList             MethodType = "roots/list"
	MethodRootsListChanged      MethodType = "notifications/roots/list_changed"
	MethodCompletionComplete    MethodType = "completion/complete"
	MethodSamplingCreateMessage MethodType = "sampling/createMessage"
	MethodLoggingSetLevel       MethodType = "logging/setLevel"
	MethodNotificationsMessage MethodType = "notifications/message"
	MethodPing                  MethodType = "ping"
	MethodCancelled              MethodType = "notifications/cancelled"
	MethodProgress               MethodType = "notifications/progress"
)

// ToolProperty describes one property of a tool's JSON Schema input.
// Strict schema validation is delegated to handlers (§1 Non-goals); this
// shape exists so simple tools can declare one without hand-writing raw
// JSON, following the teacher's pkg/protocol/jsonrpc.go InputSchema.
type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// InputSchema is a minimal JSON Schema object shape. Tools that need a
// richer schema can populate Raw instead and leave the typed fields empty.
type InputSchema struct {
	Type                 string                  `json:"type"`
	Properties           map[string]ToolProperty `json:"properties,omitempty"`
	Required             []string                `json:"required,omitempty"`
	AdditionalProperties bool                    `json:"additionalProperties"`
	Raw                  json.RawMessage         `json:"-"`
}

func (s InputSchema) MarshalJSON() ([]byte, error) {
	if s.Raw != nil {
		return s.Raw, nil
	}
	type alias InputSchema
	return json.Marshal(alias(s))
}

// Tool is a RegisteredTool's advertised shape (§3, §4.5.1).
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema InputSchema `json:"inputSchema"`
}

// ContentBlockType discriminates the three ContentBlock shapes (GLOSSARY).
type ContentBlockType string

const (
	ContentText     ContentBlockType = "text"
	ContentImage    ContentBlockType = "image"
	ContentResource ContentBlockType = "resource"
)

// ContentBlock is one element of a CallToolResult or a prompt message: a
// text block, an image block (base64 data + mime type), or an embedded
// resource reference.
type ContentBlock struct {
	Type     ContentBlockType `json:"type"`
	Text     string           `json:"text,omitempty"`
	Data     string           `json:"data,omitempty"`     // base64, for images
	MimeType string           `json:"mimeType,omitempty"`
	Resource *ResourceContent `json:"resource,omitempty"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

func ImageBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Type: ContentImage, Data: data, MimeType: mimeType}
}

func ResourceBlock(rc ResourceContent) ContentBlock {
	return ContentBlock{Type: ContentResource, Resource: &rc}
}

// CallToolResult is the result of a tools/call invocation (§4.5.1).
// Invariant: a missing/unregistered tool surfaces as IsError=true here,
// never as a JSON-RPC error — that is reserved for transport/protocol
// faults.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError"`
}

func ErrorResult(message string) CallToolResult {
	return CallToolResult{Content: []ContentBlock{TextBlock(message)}, IsError: true}
}

func TextResult(text string) CallToolResult {
	return CallToolResult{Content: []ContentBlock{TextBlock(text)}, IsError: false}
}

// ToolsListResult is the tools/list response with opaque cursor pagination
// (§4.5.1).
type ToolsListResult struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// Resource is one entry in resources/list (§4.5.2).
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContent is the body returned by resources/read: either inline
// text or a base64 blob, keyed by URI.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ResourcesListResult paginates resources/list.
type ResourcesListResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}

// ResourceTemplateDescriptor is the wire shape of a registered
// ResourceTemplate returned by resources/templates/list (§3).
type ResourceTemplateDescriptor struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceTemplatesListResult is the resources/templates/list response.
type ResourceTemplatesListResult struct {
	ResourceTemplates []ResourceTemplateDescriptor `json:"resourceTemplates"`
}

// PromptArgument declares one named argument a prompt accepts, kept from
// the teacher's prompts/registry.go shape.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Prompt is a RegisteredPrompt's advertised shape (§3, §4.5.3). Tags and
// Metadata are additive fields carried over from the teacher's sample
// prompts (not required by the core protocol).
type Prompt struct {
	ID          string                    `json:"id,omitempty"`
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	Arguments   []PromptArgument          `json:"arguments,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
	Metadata    map[string]any            `json:"metadata,omitempty"`
}

// PromptMessage is one message in a prompts/get result.
type PromptMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// PromptsListResult paginates prompts/list.
type PromptsListResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor *string  `json:"nextCursor,omitempty"`
}

// GetPromptResult is the prompts/get response.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// Root is one entry of the client-advertised root set (§3, §4.5.4).
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// RootsListResult is the roots/list response.
type RootsListResult struct {
	Roots []Root `json:"roots"`
}

// SamplingMessage is one turn in a sampling/createMessage conversation.
type SamplingMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ModelPreferences hints the client's model selection for a sampling
// request; all fields optional per spec.
type ModelPreferences struct {
	Hints                []map[string]string `json:"hints,omitempty"`
	CostPriority         float64              `json:"costPriority,omitempty"`
	SpeedPriority        float64              `json:"speedPriority,omitempty"`
	IntelligencePriority float64              `json:"intelligencePriority,omitempty"`
}

// CreateMessageParams is the sampling/createMessage request body (§3,
// §4.5.5).
type CreateMessageParams struct {
	Messages        []SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	IncludeContext   string            `json:"includeContext,omitempty"`
	Temperature      *float64          `json:"temperature,omitempty"`
	MaxTokens        int               `json:"maxTokens,omitempty"`
	StopSequences    []string          `json:"stopSequences,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
}

// CreateMessageResult is the sampling/createMessage response.
type CreateMessageResult struct {
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stopReason,omitempty"`
}

// CompletionRef identifies what a completion/complete call is completing
// against: a resource template URI or a prompt name (§4.5.6).
type CompletionRef struct {
	Type string `json:"type"` // "ref/resource" or "ref/prompt"
	URI  string `json:"uri,omitempty"`
	Name string `json:"name,omitempty"`
}

// CompletionArgument is the partial input being completed.
type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompleteParams is the completion/complete request body.
type CompleteParams struct {
	Ref      CompletionRef      `json:"ref"`
	Argument CompletionArgument `json:"argument"`
}

// CompletionResult is a Completable's output (§3).
type CompletionResult struct {
	Values  []string `json:"values"`
	Total   *uint64  `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

// CompleteResult wraps a CompletionResult in the completion/complete
// response envelope.
type CompleteResult struct {
	Completion CompletionResult `json:"completion"`
}

// ClientInfo/ServerInfo/Capabilities back the initialize handshake (§4.4).
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities advertises which capability modules a server
// implements. Each field is an optional JSON object (nil = not supported);
// the inner struct's fields are themselves optional flags per capability.
type ServerCapabilities struct {
	Tools        *ToolsCapability        `json:"tools,omitempty"`
	Resources    *ResourcesCapability    `json:"resources,omitempty"`
	Prompts      *PromptsCapability      `json:"prompts,omitempty"`
	Logging      map[string]any          `json:"logging,omitempty"`
	Experimental map[string]any          `json:"experimental,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ClientCapabilities advertises the client's own optional capabilities,
// notably roots and sampling (the client hosts those, per §4.5.4/4.5.5).
type ClientCapabilities struct {
	Roots    *RootsCapability `json:"roots,omitempty"`
	Sampling map[string]any   `json:"sampling,omitempty"`
}

type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// InitializeParams is the client's opening proposal.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the server's counter-proposal (§4.4 version
// negotiation: if the client's version exceeds the highest this server
// supports, the server replies with its own highest and the client
// decides whether to proceed).
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// CancelledParams is notifications/cancelled's payload (§4.3).
type CancelledParams struct {
	RequestID ID     `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

// ProgressParams is notifications/progress's payload (§4.3).
type ProgressParams struct {
	ProgressToken string   `json:"progressToken"`
	Progress      float64  `json:"progress"`
	Total         *float64 `json:"total,omitempty"`
}

// CallToolParams is the tools/call request body.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// GetPromptParams is the prompts/get request body.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// ReadResourceParams is the resources/read request body.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// SubscribeParams is the resources/subscribe (and .../unsubscribe) body.
type SubscribeParams struct {
	URI string `json:"uri"`
}

// ResourcesUpdatedParams is notifications/resources/updated's payload.
type ResourcesUpdatedParams struct {
	URI string `json:"uri"`
}

// SetLevelParams is the logging/setLevel request body.
type SetLevelParams struct {
	Level string `json:"level"`
}

// LogMessageParams is notifications/message's payload.
type LogMessageParams struct {
	Level  string `json:"level"`
	Logger string `json:"logger,omitempty"`
	Data   any    `json:"data"`
}
