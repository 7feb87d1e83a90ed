// Package llm provides a unified abstraction over LLM providers.
// Embedding and chat may be served by different providers.
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/zakon-kg/lawrag/pkg/utils/json"
)

// EmbeddingProvider defines the embedding provider interface.
type EmbeddingProvider interface {
	// Embed generates vector embeddings for multiple texts. When normalize
	// is true the returned vectors are unit length.
	Embed(ctx context.Context, texts []string, normalize bool) ([][]float32, error)

	// EmbedSingle generates a vector embedding for a single text.
	EmbedSingle(ctx context.Context, text string, normalize bool) ([]float32, error)

	// Name returns the provider name.
	Name() string
}

// ChatProvider defines the chat provider interface.
type ChatProvider interface {
	// Chat performs a multi-turn conversation.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Generate produces text from a single prompt.
	Generate(ctx context.Context, prompt string, systemPrompt string) (string, error)

	// GenerateStructured asks the model for output constrained to a JSON
	// schema and unmarshals the result into out. Parts carry optional
	// binary attachments (documents, images) alongside the prompt.
	GenerateStructured(ctx context.Context, req *StructuredRequest, out any) error

	// Name returns the provider name.
	Name() string
}

// Message represents a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKind identifies the kind of a binary content part.
type PartKind string

const (
	PartFile  PartKind = "file"
	PartImage PartKind = "image"
)

// ContentPart is a binary attachment sent with a structured request.
type ContentPart struct {
	Kind PartKind
	// MIMEType of the attached data, e.g. application/pdf or image/png.
	MIMEType string
	// Filename is a display name for file parts.
	Filename string
	Data     []byte
}

// FilePart builds a document content part.
func FilePart(filename, mimeType string, data []byte) ContentPart {
	return ContentPart{Kind: PartFile, Filename: filename, MIMEType: mimeType, Data: data}
}

// ImagePart builds an image content part.
func ImagePart(mimeType string, data []byte) ContentPart {
	return ContentPart{Kind: PartImage, MIMEType: mimeType, Data: data}
}

// StructuredSchema names a JSON schema the model output must satisfy.
type StructuredSchema struct {
	Name   string
	Schema json.RawMessage
}

// StructuredRequest describes a schema-constrained generation call.
type StructuredRequest struct {
	// Instructions is the system prompt.
	Instructions string
	// Prompt is the user text.
	Prompt string
	// Parts are optional binary attachments.
	Parts []ContentPart
	// Schema constrains the model output.
	Schema StructuredSchema
}

// Provider serves both embedding and chat.
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// ProviderFactory builds a full provider from a config map.
type ProviderFactory func(config map[string]any) (Provider, error)

// EmbeddingProviderFactory builds an embedding-only provider.
type EmbeddingProviderFactory func(config map[string]any) (EmbeddingProvider, error)

// ChatProviderFactory builds a chat-only provider.
type ChatProviderFactory func(config map[string]any) (ChatProvider, error)

var registry = &providerRegistry{
	providers:          make(map[string]ProviderFactory),
	embeddingProviders: make(map[string]EmbeddingProviderFactory),
	chatProviders:      make(map[string]ChatProviderFactory),
}

type providerRegistry struct {
	mu                 sync.RWMutex
	providers          map[string]ProviderFactory
	embeddingProviders map[string]EmbeddingProviderFactory
	chatProviders      map[string]ChatProviderFactory
}

// RegisterProvider registers a full provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// RegisterEmbeddingProvider registers an embedding provider factory.
func RegisterEmbeddingProvider(name string, factory EmbeddingProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.embeddingProviders[name] = factory
}

// RegisterChatProvider registers a chat provider factory.
func RegisterChatProvider(name string, factory ChatProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.chatProviders[name] = factory
}

// NewProvider creates a full provider instance by name.
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	return factory(config)
}

// NewEmbeddingProvider creates an embedding provider by name.
// A dedicated embedding factory takes precedence over a full provider.
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if factory, ok := registry.embeddingProviders[name]; ok {
		return factory(config)
	}

	if factory, ok := registry.providers[name]; ok {
		return factory(config)
	}

	return nil, fmt.Errorf("unknown embedding provider: %s", name)
}

// NewChatProvider creates a chat provider by name.
// A dedicated chat factory takes precedence over a full provider.
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if factory, ok := registry.chatProviders[name]; ok {
		return factory(config)
	}

	if factory, ok := registry.providers[name]; ok {
		return factory(config)
	}

	return nil, fmt.Errorf("unknown chat provider: %s", name)
}

// ListProviders lists the names of all registered providers.
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string

	for name := range registry.providers {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range registry.embeddingProviders {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range registry.chatProviders {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	return names
}
