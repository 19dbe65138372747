package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per caller. Each bucket holds limit
// tokens and refills at limit per window, so a caller may burst up to
// limit requests and then sustain limit per window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter. Buckets idle for two windows are
// dropped periodically until ctx is done.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	go rl.evictIdle(ctx)
	return rl
}

func (rl *RateLimiter) refill() rate.Limit {
	if rl.limit <= 0 || rl.window <= 0 {
		return 0
	}
	return rate.Every(rl.window / time.Duration(rl.limit))
}

func (rl *RateLimiter) evictIdle(ctx context.Context) {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-2 * rl.window)
	for key, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Allow takes a token from key's bucket
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(rl.refill(), max(rl.limit, 0))}
		rl.clients[key] = b
	}
	b.lastSeen = now
	return b.tokens.AllowN(now, 1)
}

// Remaining returns how many whole tokens key has left
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok {
		return max(rl.limit, 0)
	}
	return max(int(b.tokens.TokensAt(rl.now())), 0)
}

// RateLimit limits requests per authenticated gateway, falling back to the client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		if gateway := GetGateway(c); gateway != "" {
			return "gateway:" + gateway
		}
		return "ip:" + c.ClientIP()
	})
}

// RateLimitByKey rate limits by the key keyFunc extracts from the request
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))

		if !limiter.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(int(limiter.retryAfter().Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}

// retryAfter is the time for one token to refill, rounded up to a second
func (rl *RateLimiter) retryAfter() time.Duration {
	if rl.limit <= 0 {
		return rl.window
	}
	return (rl.window/time.Duration(rl.limit) + time.Second - 1).Truncate(time.Second)
}
