package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zakon-kg/lawrag/pkg/llm"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("expected BaseURL http://localhost:11434, got %s", cfg.BaseURL)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", cfg.MaxRetries)
	}
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		resp := map[string]any{
			"model":      "test-embed",
			"embeddings": [][]float32{{1, 2, 3}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewProviderWithConfig(&Config{
		BaseURL:    server.URL,
		EmbedModel: "test-embed",
		Timeout:    5 * time.Second,
	})

	embeddings, err := provider.Embed(context.Background(), []string{"text"}, false)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(embeddings) != 1 || len(embeddings[0]) != 3 {
		t.Fatalf("unexpected embeddings: %v", embeddings)
	}
}

func TestEmbedShortResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// one embedding for two inputs
		resp := map[string]any{
			"model":      "test-embed",
			"embeddings": [][]float32{{1, 2, 3}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewProviderWithConfig(&Config{
		BaseURL:    server.URL,
		EmbedModel: "test-embed",
		Timeout:    5 * time.Second,
	})

	if _, err := provider.Embed(context.Background(), []string{"a", "b"}, false); err == nil {
		t.Error("expected error when fewer vectors than inputs are returned")
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		resp := map[string]any{
			"model":   "test-chat",
			"message": map[string]any{"role": "assistant", "content": "answer"},
			"done":    true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewProviderWithConfig(&Config{
		BaseURL:   server.URL,
		ChatModel: "test-chat",
		Timeout:   5 * time.Second,
	})

	out, err := provider.Generate(context.Background(), "question", "system")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "answer" {
		t.Errorf("expected 'answer', got '%s'", out)
	}
}

func TestGenerateStructured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if _, ok := req["format"]; !ok {
			t.Error("expected format field in request")
		}
		resp := map[string]any{
			"model":   "test-chat",
			"message": map[string]any{"role": "assistant", "content": `{"questions":[{"question":"q"}]}`},
			"done":    true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewProviderWithConfig(&Config{
		BaseURL:   server.URL,
		ChatModel: "test-chat",
		Timeout:   5 * time.Second,
	})

	var out struct {
		Questions []struct {
			Question string `json:"question"`
		} `json:"questions"`
	}
	req := &llm.StructuredRequest{
		Prompt: "rephrase",
		Schema: llm.StructuredSchema{Name: "questions", Schema: []byte(`{"type":"object"}`)},
	}
	if err := provider.GenerateStructured(context.Background(), req, &out); err != nil {
		t.Fatalf("GenerateStructured failed: %v", err)
	}
	if len(out.Questions) != 1 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestGenerateStructuredRejectsFilePart(t *testing.T) {
	provider := NewProviderWithConfig(DefaultConfig())
	req := &llm.StructuredRequest{
		Prompt: "extract",
		Parts:  []llm.ContentPart{llm.FilePart("doc.pdf", "application/pdf", []byte("%PDF"))},
		Schema: llm.StructuredSchema{Name: "points", Schema: []byte(`{}`)},
	}
	if err := provider.GenerateStructured(context.Background(), req, &struct{}{}); err == nil {
		t.Error("expected error for file part")
	}
}
