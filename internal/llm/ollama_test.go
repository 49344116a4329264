package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != "llama3" {
			t.Errorf("Expected model llama3, got %s", req.Model)
		}
		if req.Stream {
			t.Error("Expected stream=false")
		}

		resp := ollamaResponse{
			Model:           "llama3",
			Response:        `{"theme": "Texture Specificity", "lesson": "Name the visible texture."}`,
			Done:            true,
			PromptEvalCount: 50,
			EvalCount:       30,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{
		BaseURL: server.URL,
		Model:   "llama3",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompleteRequest{
		Prompt: "Synthesize the batch.",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.TokensUsed != 80 {
		t.Errorf("Expected 80 tokens used, got %d", resp.TokensUsed)
	}

	var parsed struct {
		Theme  string `json:"theme"`
		Lesson string `json:"lesson"`
	}
	if err := ExtractJSON(resp.Text, &parsed); err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if parsed.Theme != "Texture Specificity" {
		t.Errorf("Unexpected theme: %s", parsed.Theme)
	}
}

func TestOllamaProvider_Complete_RequiresModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{BaseURL: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Complete(context.Background(), CompleteRequest{Prompt: "hi"})
	if err == nil {
		t.Error("Expected error when model not specified")
	}
}

func TestOllamaProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not loaded"})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{
		BaseURL: server.URL,
		Model:   "llama3",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Complete(context.Background(), CompleteRequest{Prompt: "hi"})
	if err == nil {
		t.Error("Expected error for API failure")
	}
}
