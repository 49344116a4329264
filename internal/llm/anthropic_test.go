package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var apiReq anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(apiReq.Messages) != 1 || !strings.Contains(apiReq.Messages[0].Content, "why did the winner rank higher") {
			t.Errorf("Prompt not forwarded: %+v", apiReq.Messages)
		}

		resp := anthropicResponse{
			ID:   "msg_123",
			Type: "message",
			Role: "assistant",
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{Type: "text", Text: `{"found_gap": true, "rule": "Name the fabric."}`},
			},
			Model: "claude-3-5-sonnet-20241022",
			Usage: struct {
				InputTokens  int `json:"input_tokens"`
				OutputTokens int `json:"output_tokens"`
			}{
				InputTokens:  50,
				OutputTokens: 50,
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-3-5-sonnet-20241022",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompleteRequest{
		Prompt: "why did the winner rank higher?",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if !strings.Contains(resp.Text, `"found_gap": true`) {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Unexpected token usage: %d", resp.TokensUsed)
	}
	if resp.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("Unexpected model: %s", resp.Model)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "api_error", "message": "Internal Server Error"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Complete(context.Background(), CompleteRequest{Prompt: "hello"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Internal Server Error") {
		t.Errorf("Expected error message to contain 'Internal Server Error', got %v", err)
	}
}

func TestAnthropicProvider_Complete_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "Rate limit exceeded"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err = provider.Complete(context.Background(), CompleteRequest{Prompt: "hello"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestAnthropicProvider_Complete_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err = provider.Complete(context.Background(), CompleteRequest{Prompt: "hello"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestAnthropicProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestAnthropicProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{Type: "text", Text: "Hi"},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}
