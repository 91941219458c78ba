package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemory_Allow(t *testing.T) {
	limiter := NewMemory(Config{Limit: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "client-a")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Fatalf("Allow() hit %d = false, want true", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "client-a")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("Allow() over limit = true, want false")
	}
}

func TestMemory_AllowPerKey(t *testing.T) {
	limiter := NewMemory(Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "client-a"); !allowed {
		t.Fatal("first hit for client-a should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "client-b"); !allowed {
		t.Error("first hit for client-b should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "client-a"); allowed {
		t.Error("second hit for client-a should be blocked")
	}
}

func TestMemory_WindowReset(t *testing.T) {
	limiter := NewMemory(Config{Limit: 1, Window: time.Minute})
	current := time.Now()
	limiter.now = func() time.Time { return current }
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "client-a"); !allowed {
		t.Fatal("first hit should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "client-a"); allowed {
		t.Fatal("second hit should be blocked")
	}

	current = current.Add(2 * time.Minute)

	if allowed, _ := limiter.Allow(ctx, "client-a"); !allowed {
		t.Error("hit after window reset should be allowed")
	}
}
