package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is an in-process token bucket per key. It backs the Redis limiter
// on expensive routes when Redis cannot be reached.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*localEntry
	every    time.Duration
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter allows `limit` requests per `window` per key, refilling evenly.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &LocalLimiter{
		limiters: make(map[string]*localEntry),
		every:    window / time.Duration(limit),
		burst:    limit,
		idleTTL:  10 * window,
		now:      time.Now,
	}
}

// Allow reports whether the key may proceed now.
func (l *LocalLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	if len(l.limiters) > 1024 {
		l.evictIdleLocked(now)
	}
	return entry.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LocalLimiter) evictIdleLocked(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.limiters, key)
		}
	}
}
