// Package resources implements the Resources capability module (§4.5.2):
// a cursor-paginated catalogue of static resources, RFC 6570 Level 1
// resource templates, and a per-connection subscribe/updated mechanism.
// Grounded on the teacher's pkg/resources/example.go catalogue, expanded
// from its single-server-side HandleResourceQuery switch into a frozen
// Registry dispatching to per-resource read handlers, in the style of
// pkg/dispatcher's Builder.
package resources

import (
	"context"
	"strings"
	"sync"

	"github.com/mcpgo/mcp/pkg/completion"
	"github.com/mcpgo/mcp/pkg/protocol"
)

// ReadHandler produces the content of one resource (static) or one
// instantiation of a template (vars carries the extracted bindings; nil
// for static resources).
type ReadHandler func(ctx context.Context, uri string, vars map[string]string) (protocol.ResourceContent, error)

type registeredResource struct {
	resource protocol.Resource
	handler  ReadHandler
}

type registeredTemplate struct {
	descriptor  protocol.ResourceTemplateDescriptor
	template    *Template
	handler     ReadHandler
	completions map[string]completion.Completable // variable name -> Completable
}

// ErrNotFound is returned by Read when uri matches neither a static
// resource nor any template — the caller renders it as a JSON-RPC error,
// since (unlike tools/call) a missing resource is a protocol-level fault,
// not a business-logic one (§7).
var ErrNotFound = protocol.NewHandlerError(-32002, "Resource not found")

// Registry is the frozen, read-only resource catalogue.
type Registry struct {
	byURI     map[string]registeredResource
	order     []string
	templates []registeredTemplate

	mu   sync.Mutex
	subs map[string]map[string]struct{} // sessionID -> set of subscribed URIs
}

func (r *Registry) List(cursor string, pageSize int) protocol.ResourcesListResult {
	start := 0
	if cursor != "" {
		for i, uri := range r.order {
			if uri == cursor {
				start = i + 1
				break
			}
		}
	}
	end := len(r.order)
	if pageSize > 0 && start+pageSize < end {
		end = start + pageSize
	}
	result := protocol.ResourcesListResult{Resources: make([]protocol.Resource, 0, end-start)}
	for _, uri := range r.order[start:end] {
		result.Resources = append(result.Resources, r.byURI[uri].resource)
	}
	if end < len(r.order) {
		next := r.order[end-1]
		result.NextCursor = &next
	}
	return result
}

func (r *Registry) Templates() protocol.ResourceTemplatesListResult {
	descs := make([]protocol.ResourceTemplateDescriptor, len(r.templates))
	for i, t := range r.templates {
		descs[i] = t.descriptor
	}
	return protocol.ResourceTemplatesListResult{ResourceTemplates: descs}
}

// Read resolves uri against static resources first, then templates in
// registration order, returning ErrNotFound if nothing matches.
func (r *Registry) Read(ctx context.Context, uri string) (protocol.ResourceContent, error) {
	if rr, ok := r.byURI[uri]; ok {
		return rr.handler(ctx, uri, nil)
	}
	for _, t := range r.templates {
		if vars, ok := t.template.Match(uri); ok {
			return t.handler(ctx, uri, vars)
		}
	}
	return protocol.ResourceContent{}, ErrNotFound
}

// Completable returns the registered completion callback for varName on the
// resource template referenced by uri (§4.5.6), by matching uri against each
// template's raw URI template string — either the exact template ("a ref
// names the template itself, e.g. "file:///{path}") or a literal prefix of
// it (the static portion preceding its first variable).
func (r *Registry) Completable(uri, varName string) (completion.Completable, bool) {
	for _, t := range r.templates {
		raw := t.descriptor.URITemplate
		if uri != raw && !strings.HasPrefix(raw, uri) {
			continue
		}
		c, ok := t.completions[varName]
		return c, ok
	}
	return nil, false
}

// Subscribe records that sessionID wants notifications/resources/updated
// for uri (§4.5.2). Unsubscribe removes it. Subscribe records any uri
// without checking it against the catalogue; Unsubscribe of a session or
// uri that is not subscribed is a no-op. Both are idempotent, since a
// client may retry.
func (r *Registry) Subscribe(sessionID, uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[sessionID] == nil {
		r.subs[sessionID] = make(map[string]struct{})
	}
	r.subs[sessionID][uri] = struct{}{}
}

func (r *Registry) Unsubscribe(sessionID, uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs[sessionID], uri)
}

// Subscribers returns the session IDs currently subscribed to uri, for the
// server to notify via each session's own dispatcher.
func (r *Registry) Subscribers(uri string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for sessionID, uris := range r.subs {
		if _, ok := uris[uri]; ok {
			out = append(out, sessionID)
		}
	}
	return out
}

// DropSession removes every subscription held by sessionID, called when a
// connection closes.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, sessionID)
}

// Builder accumulates resource and template registrations.
type Builder struct {
	byURI       map[string]registeredResource
	order       []string
	templates   []registeredTemplate
	completions map[string]map[string]completion.Completable // uriTemplate -> varName -> Completable
}

func NewBuilder() *Builder {
	return &Builder{
		byURI:       make(map[string]registeredResource),
		completions: make(map[string]map[string]completion.Completable),
	}
}

func (b *Builder) Register(resource protocol.Resource, handler ReadHandler) *Builder {
	if _, exists := b.byURI[resource.URI]; !exists {
		b.order = append(b.order, resource.URI)
	}
	b.byURI[resource.URI] = registeredResource{resource: resource, handler: handler}
	return b
}

func (b *Builder) RegisterTemplate(descriptor protocol.ResourceTemplateDescriptor, handler ReadHandler) *Builder {
	b.templates = append(b.templates, registeredTemplate{
		descriptor: descriptor,
		template:   CompileTemplate(descriptor.URITemplate),
		handler:    handler,
	})
	return b
}

// RegisterCompletable attaches a completion callback for the variable
// varName of the template registered under uriTemplate (its raw, literal
// template string — matching RegisterTemplate's descriptor.URITemplate).
// It may be called before or after the matching RegisterTemplate call.
func (b *Builder) RegisterCompletable(uriTemplate, varName string, c completion.Completable) *Builder {
	if b.completions[uriTemplate] == nil {
		b.completions[uriTemplate] = make(map[string]completion.Completable)
	}
	b.completions[uriTemplate][varName] = c
	return b
}

func (b *Builder) Build() *Registry {
	byURI := make(map[string]registeredResource, len(b.byURI))
	for k, v := range b.byURI {
		byURI[k] = v
	}
	order := make([]string, len(b.order))
	copy(order, b.order)
	templates := make([]registeredTemplate, len(b.templates))
	copy(templates, b.templates)
	for i, t := range templates {
		if cs, ok := b.completions[t.descriptor.URITemplate]; ok {
			templates[i].completions = cs
		}
	}
	return &Registry{byURI: byURI, order: order, templates: templates, subs: make(map[string]map[string]struct{})}
}
