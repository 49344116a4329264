package llm

import (
	"context"

	"github.com/ajayraho/mgeo/internal/model"
)

// Provider defines the interface for LLM completion providers. The core
// pipeline only ever needs this single narrow operation, so filtering,
// scoring, and aggregation stay testable with a deterministic stub.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a prompt and returns the raw completion text.
	// Responses may embed the expected JSON inside surrounding prose;
	// callers extract it with ExtractJSON.
	Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompleteRequest contains the input for one completion call.
type CompleteRequest struct {
	// Prompt is the full prompt text
	Prompt string

	// System is an optional system instruction
	System string

	// Model overrides the configured model for this call
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompleteResponse contains the completion output.
type CompleteResponse struct {
	// Text is the raw completion text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
