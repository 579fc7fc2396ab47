package worker

import (
	"context"
	"testing"
	"time"
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

	if err := limiter.Wait(ctx, "https://docs.example.com/setup"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A different host has its own bucket
	if err := limiter.Wait(ctx, "https://wiki.example.org/guide"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_PerHostBuckets(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	_ = limiter.Wait(ctx, "https://docs.example.com/a")
	_ = limiter.Wait(ctx, "https://docs.example.com/b")
	_ = limiter.Wait(ctx, "https://wiki.example.org/c")

	limiter.mu.RLock()
	hosts := len(limiter.limiters)
	limiter.mu.RUnlock()

	if hosts != 2 {
		t.Errorf("expected 2 host buckets, got %d", hosts)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, "https://docs.example.com/setup", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", elapsed)
	}
}

func TestLimiter_WaitWithDelay_Canceled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.WaitWithDelay(ctx, "https://docs.example.com/setup", time.Second); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestExtractHost(t *testing.T) {
	host, err := extractHost("https://docs.example.com/setup")
	if err != nil {
		t.Fatalf("extractHost failed: %v", err)
	}
	if host != "docs.example.com" {
		t.Errorf("expected docs.example.com, got %s", host)
	}

	if _, err := extractHost("::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
