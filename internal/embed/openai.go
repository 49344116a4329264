package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder implements the Embedder interface via OpenAI's
// embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	config Config
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(config Config) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (e *OpenAIEmbedder) Name() string {
	return "openai"
}

// Embed returns one vector per input text, in input order
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := openai.EmbeddingModel(e.config.Model)
	if e.config.Model == "" {
		model = openai.SmallEmbedding3
	}

	timeout := time.Duration(e.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctxWithTimeout, openai.EmbeddingRequest{
		Input: texts,
		Model: model,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vec := make([]float64, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float64(v)
		}
		vectors[d.Index] = vec
	}

	return vectors, nil
}
