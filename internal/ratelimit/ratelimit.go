// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit enforces a minimum delay between requests to each
// target host, tracked independently per host.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces out requests per key (a host name or source name). The
// keyed limiters are created lazily; the map is guarded so sources may run
// concurrently.
type Limiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	limiters map[string]*rate.Limiter
}

// New returns a Limiter enforcing minDelay between requests to the same
// key. A non-positive minDelay disables limiting.
func New(minDelay time.Duration) *Limiter {
	return &Limiter{
		minDelay: minDelay,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to key is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil || l.minDelay <= 0 {
		return nil
	}

	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.minDelay), 1)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}
