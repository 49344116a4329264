// Package embed turns diagnosis texts into vectors for semantic
// clustering. Providers mirror the llm package: OpenAI's embeddings API
// or a local Ollama instance, behind one narrow interface.
package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajayraho/mgeo/internal/model"
)

// Embedder defines the interface for embedding providers.
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Config holds embedding provider configuration.
type Config struct {
	// Provider name: "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds
}

// ConfigFromModel converts model.EmbeddingConfig to embed.Config.
func ConfigFromModel(mc model.EmbeddingConfig) Config {
	return Config{
		Provider: mc.Provider,
		Model:    mc.Model,
		APIKey:   mc.APIKey,
		BaseURL:  mc.BaseURL,
		Timeout:  mc.Timeout,
	}
}

// NewEmbedder creates an embedding provider based on configuration.
func NewEmbedder(config Config) (Embedder, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIEmbedder(config)

	case "ollama":
		return NewOllamaEmbedder(config)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: openai, ollama)", config.Provider)
	}
}
