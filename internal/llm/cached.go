package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ajayraho/mgeo/internal/cache"
)

// CachedProvider memoizes completions by prompt content so re-run or
// resumed stages do not repay LLM calls for prompts already answered.
// Diagnosis and synthesis prompts are deterministic functions of their
// input artifacts, which makes content keying safe.
type CachedProvider struct {
	inner Provider
	store cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps a provider with a cache.
func NewCachedProvider(inner Provider, store cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, store: store, ttl: ttl}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (p *CachedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Complete serves a cached response when one exists for this request
// and otherwise calls through, caching the result. Errors are never
// cached.
func (p *CachedProvider) Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error) {
	key := p.keyFor(req)
	if data, ok := p.store.Get(key); ok {
		var resp CompleteResponse
		if err := json.Unmarshal(data, &resp); err == nil && resp.Text != "" {
			return &resp, nil
		}
		// Corrupt entry: drop and call through
		_ = p.store.Delete(key)
	}

	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = p.store.Set(key, data, p.ttl)
	}
	return resp, nil
}

// keyFor hashes everything that shapes the completion: the model
// override, the system instruction, and the prompt itself.
func (p *CachedProvider) keyFor(req CompleteRequest) string {
	content := strings.Join([]string{req.Model, req.System, req.Prompt}, "\x00")
	return cache.Key("llm:"+p.inner.Name(), content)
}
