package http

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter applies a per-actor token bucket in front of the write-heavy
// operations (create and accept). Buckets are created on first use and kept
// for the life of the process.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewRateLimiter allows perMinute requests per actor with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

func (l *RateLimiter) allow(actorID string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[actorID]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[actorID] = bucket
	}
	l.mu.Unlock()
	return bucket.Allow()
}

// check ends the request with 429 when the actor's bucket is empty.
func (l *RateLimiter) check(w http.ResponseWriter, actorID string) bool {
	if l == nil {
		return true
	}
	if !l.allow(actorID) {
		writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}
