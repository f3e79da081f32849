// Package ratelimit paces work per key with token buckets. The relay uses it
// to keep outbound sends to any one destination channel inside the transport
// provider's limits while unrelated channels proceed independently.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Keyed hands out one token-bucket limiter per key, created on first use.
type Keyed struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyed builds a limiter set allowing rps sustained events per key with
// the given burst headroom.
func NewKeyed(rps float64, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until the key's bucket grants a token or ctx is done.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	return k.limiter(key).Wait(ctx)
}

// Allow reports whether the key's bucket grants a token right now.
func (k *Keyed) Allow(key string) bool {
	return k.limiter(key).Allow()
}

func (k *Keyed) limiter(key string) *rate.Limiter {
	k.mu.RLock()
	lim, ok := k.limiters[key]
	k.mu.RUnlock()
	if ok {
		return lim
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if lim, ok = k.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(k.limit, k.burst)
	k.limiters[key] = lim
	return lim
}
