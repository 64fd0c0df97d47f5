package httpx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter is a per-process token bucket limiter keyed by string.
type MemoryLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter converts cfg into a token bucket refilled evenly over the window.
func NewMemoryLimiter(cfg RateLimitConfig) *MemoryLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerWindow
	}
	return &MemoryLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

// MemoryLimiterFactory satisfies LimiterFactory.
func MemoryLimiterFactory(cfg RateLimitConfig) Limiter { return NewMemoryLimiter(cfg) }

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	lim := m.get(key)
	if lim.Allow() {
		return true, 0, nil
	}

	// Peek at the next token without consuming it.
	res := lim.Reserve()
	delay := res.Delay()
	res.Cancel()
	return false, delay, nil
}

func (m *MemoryLimiter) get(key string) *rate.Limiter {
	if lim, ok := m.limiters.Load(key); ok {
		return lim.(*rate.Limiter)
	}
	actual, _ := m.limiters.LoadOrStore(key, rate.NewLimiter(m.rate, m.burst))
	m.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle buckets (full of tokens) at most every five minutes.
func (m *MemoryLimiter) maybeCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCleanup) < 5*time.Minute {
		return
	}
	m.lastCleanup = time.Now()

	m.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(m.burst) {
			m.limiters.Delete(key)
		}
		return true
	})
}
