package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "llm"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// An unseen endpoint gets its own fresh bucket
	if err := limiter.Wait(ctx, "embedding"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_EndpointsAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "llm"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Token for "llm" is consumed
	if limiter.Allow("llm") {
		t.Errorf("expected llm tokens exhausted")
	}

	// "embedding" still has its full burst
	if !limiter.Allow("embedding") {
		t.Errorf("expected embedding endpoint unaffected")
	}
}

func TestLimiter_SetEndpointRate(t *testing.T) {
	limiter := NewLimiter(10, 10)

	limiter.SetEndpointRate("llm", 0.1, 1)

	if !limiter.Allow("llm") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("llm") {
		t.Errorf("second request should fail under the strict rate")
	}

	if !limiter.Allow("embedding") {
		t.Errorf("other endpoint should keep the fast default")
	}
}

func TestLimiter_WaitRespectsCancellation(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	ctx, cancel := context.WithCancel(context.Background())

	// Drain the burst token, then cancel before the next refill
	if err := limiter.Wait(ctx, "llm"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	cancel()

	if err := limiter.Wait(ctx, "llm"); err == nil {
		t.Error("expected error waiting on cancelled context")
	}
}
