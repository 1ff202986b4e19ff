// Package prompts implements the Prompts capability module (§4.5.3):
// a file-backed catalogue of prompt templates plus prompts/get argument
// substitution. Grounded on the teacher's pkg/prompts/registry.go
// ~/.mcp/prompts JSON store, generalized from its Content/Variables field
// names onto the wire protocol.Prompt/PromptArgument shape, with an
// in-memory completion-callback layer added on top (§4.5.6) that the
// teacher's file store never needed. prompts/get always renders the stored
// template by {{name}} substitution; there is no per-prompt execute
// callback.
package prompts

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mcpgo/mcp/internal/logger"
	"github.com/mcpgo/mcp/pkg/protocol"
)

// storedPrompt is the on-disk JSON shape: the wire-visible Prompt plus the
// template text, which is never sent back verbatim (only the substituted
// result is).
type storedPrompt struct {
	protocol.Prompt
	Content string `json:"content"`
}

// CompletionFunc supplies value suggestions for one named argument of one
// prompt, wired into the Completion capability (§4.5.6) via Store.Completable.
type CompletionFunc func(value string) protocol.CompletionResult

// Store manages the storage and retrieval of prompt templates for MCP,
// backed by one JSON file per prompt under baseDir.
type Store struct {
	baseDir string

	mu          sync.Mutex
	completions map[string]CompletionFunc // keyed by "promptName/argName"
}

// NewStore uses ~/.mcp/prompts, creating it (and a handful of sample
// prompts) if absent, exactly as the teacher's registry does.
func NewStore() *Store {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Error("Failed to get user home directory", err)
		homeDir = "."
	}
	return NewStoreAt(filepath.Join(homeDir, ".mcp", "prompts"))
}

// NewStoreAt roots the store at an explicit directory, used by tests that
// don't want to touch the caller's real home directory.
func NewStoreAt(baseDir string) *Store {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		logger.Error("Failed to create prompt store directory", err)
	}
	s := &Store{baseDir: baseDir, completions: make(map[string]CompletionFunc)}
	s.ensureSamplePrompts()
	return s
}

func (s *Store) promptPath(name string) (string, error) {
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid prompt name: %s", name)
	}
	return filepath.Join(s.baseDir, name+".json"), nil
}

func (s *Store) get(name string) (*storedPrompt, error) {
	path, err := s.promptPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("prompt not found: %s", name)
		}
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	var p storedPrompt
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}
	return &p, nil
}

// List returns every stored prompt's wire-visible metadata, for
// prompts/list. Unreadable files are logged and skipped rather than
// failing the whole listing.
func (s *Store) List() []protocol.Prompt {
	var out []protocol.Prompt
	_ = filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), ".json")
		p, err := s.get(name)
		if err != nil {
			logger.Warn("Failed to read prompt", name, err)
			return nil
		}
		out = append(out, p.Prompt)
		return nil
	})
	return out
}

// Save persists prompt with its template content.
func (s *Store) Save(prompt protocol.Prompt, content string) error {
	if prompt.Name == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	for _, arg := range prompt.Arguments {
		if arg.Required && arg.Name == "" {
			return protocol.NewInvalidParams(
				fmt.Sprintf("prompt %q: required argument cannot have an empty name", prompt.Name))
		}
	}
	path, err := s.promptPath(prompt.Name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(storedPrompt{Prompt: prompt, Content: content}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prompt: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Render resolves prompt name against its stored template, enforcing the
// required-argument invariant (§4.5.3: a required argument whose value is
// missing or empty is an InvalidParams failure, not a silently-blank
// substitution) and substituting {{name}} placeholders.
func (s *Store) Render(name string, arguments map[string]string) (protocol.GetPromptResult, error) {
	p, err := s.get(name)
	if err != nil {
		return protocol.GetPromptResult{}, err
	}

	for _, arg := range p.Arguments {
		if arg.Required && strings.TrimSpace(arguments[arg.Name]) == "" {
			return protocol.GetPromptResult{}, protocol.NewInvalidParams(
				fmt.Sprintf("missing required argument %q for prompt %q", arg.Name, name))
		}
	}

	content := p.Content
	for key, value := range arguments {
		content = strings.ReplaceAll(content, "{{"+key+"}}", value)
	}

	return protocol.GetPromptResult{
		Description: p.Description,
		Messages: []protocol.PromptMessage{
			{Role: "user", Content: []protocol.ContentBlock{protocol.TextBlock(content)}},
		},
	}, nil
}

// RegisterCompletable wires a value-suggestion function for one prompt
// argument (§4.5.6), backing completion/complete for ref/prompt.
func (s *Store) RegisterCompletable(promptName, argName string, fn CompletionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[promptName+"/"+argName] = fn
}

// Completable looks up a registered completion function, if any.
func (s *Store) Completable(promptName, argName string) (CompletionFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, ok := s.completions[promptName+"/"+argName]
	return fn, ok
}

func (s *Store) ensureSamplePrompts() {
	samples := []struct {
		prompt  protocol.Prompt
		content string
	}{
		{
			prompt: protocol.Prompt{
				Name:        "code-review",
				Description: "Review code for best practices, bugs, and improvements",
				Tags:        []string{"development", "review", "code-quality"},
				Arguments: []protocol.PromptArgument{
					{Name: "language", Description: "Programming language of the code", Required: true},
					{Name: "code", Description: "The code to review", Required: true},
				},
			},
			content: "Please review the following {{language}} code for:\n- Best practices\n- Potential bugs\n- Performance improvements\n- Security issues\n\nCode:\n```{{language}}\n{{code}}\n```",
		},
		{
			prompt: protocol.Prompt{
				Name:        "explain-concept",
				Description: "Explain a technical concept in simple terms",
				Tags:        []string{"education", "explanation", "technical"},
				Arguments: []protocol.PromptArgument{
					{Name: "concept", Description: "The technical concept to explain", Required: true},
					{Name: "audience", Description: "Target audience", Required: false},
				},
			},
			content: "Please explain {{concept}} in simple terms that a {{audience}} would understand.",
		},
		{
			prompt: protocol.Prompt{
				Name:        "sample",
				Description: "A sample prompt for testing",
				Tags:        []string{"sample", "test"},
				Arguments: []protocol.PromptArgument{
					{Name: "variable1", Description: "First variable", Required: true},
					{Name: "variable2", Description: "Second variable", Required: false},
				},
			},
			content: "This is a sample prompt with {{variable1}} and {{variable2}}.",
		},
	}

	for _, sample := range samples {
		if _, err := s.get(sample.prompt.Name); err != nil {
			if err := s.Save(sample.prompt, sample.content); err != nil {
				logger.Warn("Failed to create sample prompt", sample.prompt.Name, err)
			}
		}
	}
}
