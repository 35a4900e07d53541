// Package middleware provides the gin middleware chain of the audit API:
// request ids, actor capture, body limits, rate limiting, security headers
// and Prometheus instrumentation.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets caps the number of tracked keys.
const maxBuckets = 100_000

// bucketMaxAge is how long an idle bucket is kept before eviction.
const bucketMaxAge = 10 * time.Minute

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// ByClientIP charges requests to the client IP. ClientIP ignores
// X-Forwarded-For because the router trusts no proxies.
func ByClientIP(c *gin.Context) string { return c.ClientIP() }

// ByClientIPAndActor charges requests to the client IP and the resolved actor,
// so several inspectors behind one NAT do not share a bucket. The Actor
// middleware must run first.
func ByClientIPAndActor(c *gin.Context) string { return c.ClientIP() + "|" + ActorFrom(c) }

// RateLimiter implements a token bucket rate limiter per key.
type RateLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
	rate    float64
	burst   float64
	key     KeyFunc
}

// bucket holds fractional tokens so slow refill rates are not rounded away.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// take refills b for the time since it was last seen and consumes one token.
// It returns the wait until a token is available when none is left.
func (rl *RateLimiter) take(b *bucket, now time.Time) (bool, time.Duration) {
	b.tokens = min(rl.burst, b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--

		return true, 0
	}

	return false, time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))
}

// NewRateLimiter creates a RateLimiter with the given requests per second and
// burst size. A nil key charges by client IP. Stale buckets are evicted in the
// background until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int, key KeyFunc) *RateLimiter {
	if key == nil {
		key = ByClientIP
	}

	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
		key:     key,
	}
	go rl.startCleanup(ctx)

	return rl
}

func (rl *RateLimiter) startCleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evict(now)
		}
	}
}

// evict drops buckets idle for longer than bucketMaxAge.
func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) > bucketMaxAge {
			delete(rl.buckets, k)
		}
	}
}

// Handler returns Gin middleware that applies rate limiting per key.
// Rejections carry a Retry-After header in whole seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		k := rl.key(c)
		now := time.Now()

		rl.mu.Lock()
		b, ok := rl.buckets[k]
		if !ok {
			if len(rl.buckets) >= maxBuckets {
				rl.mu.Unlock()
				respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

				return
			}

			b = &bucket{tokens: rl.burst, lastSeen: now}
			rl.buckets[k] = b
		}

		allowed, wait := rl.take(b, now)
		rl.mu.Unlock()

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
