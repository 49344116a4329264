package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ajayraho/mgeo/internal/cache"
)

// CachedEmbedder memoizes vectors by text content so repeated or resumed
// aggregation runs do not re-embed unchanged diagnoses.
type CachedEmbedder struct {
	inner Embedder
	store cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps an embedder with a cache.
func NewCachedEmbedder(inner Embedder, store cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store, ttl: ttl}
}

// Name returns the wrapped provider's name
func (e *CachedEmbedder) Name() string {
	return e.inner.Name()
}

// Embed serves cached vectors where possible and embeds only the misses,
// preserving input order.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))

	var missing []string
	var missingIdx []int

	for i, text := range texts {
		key := e.keyFor(text)
		if data, ok := e.store.Get(key); ok {
			var vec []float64
			if err := json.Unmarshal(data, &vec); err == nil && len(vec) > 0 {
				vectors[i] = vec
				continue
			}
			// Corrupt entry: drop and re-embed
			_ = e.store.Delete(key)
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := e.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(fresh))
	}

	for i, vec := range fresh {
		vectors[missingIdx[i]] = vec
		if data, err := json.Marshal(vec); err == nil {
			_ = e.store.Set(e.keyFor(missing[i]), data, e.ttl)
		}
	}

	return vectors, nil
}

func (e *CachedEmbedder) keyFor(text string) string {
	return cache.Key("embed:"+e.inner.Name(), text)
}
