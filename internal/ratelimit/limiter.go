// Package ratelimit provides fixed-window request rate limiting.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	// Allow records a hit for key and reports whether it stays within the
	// window limit.
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds rate limit settings.
type Config struct {
	// Limit is the number of requests allowed per window.
	Limit int

	// Window is the fixed window length.
	Window time.Duration
}

// DefaultConfig allows 100 requests per 10 minutes.
func DefaultConfig() Config {
	return Config{
		Limit:  100,
		Window: 10 * time.Minute,
	}
}

// Memory is an in-process fixed-window limiter.
type Memory struct {
	cfg Config

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count int
	reset time.Time
}

// NewMemory creates an in-memory limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		cfg:     cfg,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records a hit for key.
func (m *Memory) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.After(w.reset) {
		m.windows[key] = &window{count: 1, reset: now.Add(m.cfg.Window)}
		// Opportunistic cleanup of expired windows.
		if len(m.windows) > 10000 {
			for k, w := range m.windows {
				if now.After(w.reset) {
					delete(m.windows, k)
				}
			}
		}
		return true, nil
	}

	w.count++
	return w.count <= m.cfg.Limit, nil
}

// Ensure Memory implements Limiter.
var _ Limiter = (*Memory)(nil)
