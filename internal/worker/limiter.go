package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces calls per endpoint ("llm", "embedding"). Each endpoint
// gets its own token bucket so a slow completion backend cannot starve
// the embedding stage.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter with a shared default rate.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the endpoint's bucket grants a token or the context
// is cancelled.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	return l.getLimiter(endpoint).Wait(ctx)
}

// Allow reports whether a call may proceed right now without waiting.
func (l *Limiter) Allow(endpoint string) bool {
	return l.getLimiter(endpoint).Allow()
}

func (l *Limiter) getLimiter(endpoint string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[endpoint]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[endpoint]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[endpoint] = limiter

	return limiter
}

// SetEndpointRate overrides the rate for one endpoint.
func (l *Limiter) SetEndpointRate(endpoint string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[endpoint] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
