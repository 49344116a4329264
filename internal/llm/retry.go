package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ajayraho/mgeo/internal/model"
)

// Retrier wraps a Provider with bounded exponential backoff on transport
// failures. After the attempt budget is exhausted the error surfaces to
// the caller, which treats it as a unit-level failure and moves on.
type Retrier struct {
	provider Provider
	cfg      model.RetryConfig
}

// NewRetrier wraps the provider with the given retry policy.
func NewRetrier(provider Provider, cfg model.RetryConfig) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 8 * time.Second
	}
	return &Retrier{provider: provider, cfg: cfg}
}

// Name returns the wrapped provider's name
func (r *Retrier) Name() string {
	return r.provider.Name()
}

// IsAvailable delegates to the wrapped provider
func (r *Retrier) IsAvailable(ctx context.Context) bool {
	return r.provider.IsAvailable(ctx)
}

// Complete calls the wrapped provider, retrying with capped exponential
// backoff. Context cancellation stops the retry loop immediately.
func (r *Retrier) Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error) {
	var lastErr error

	delay := r.cfg.BaseDelay
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		resp, err := r.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == r.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}

	return nil, fmt.Errorf("completion failed after %d attempts: %w", r.cfg.MaxAttempts, lastErr)
}
