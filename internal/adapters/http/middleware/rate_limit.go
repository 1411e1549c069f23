package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig configures a fixed-window, in-memory rate limiter.
type RateLimitConfig struct {
	Limit   int
	Window  time.Duration
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimitConfig is a generous per-IP limit for read endpoints.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limit:   100,
		Window:  time.Minute,
		KeyFunc: func(c *gin.Context) string { return c.ClientIP() },
	}
}

// PostingRateLimitConfig is the stricter limit applied to the three
// money-movement flows, keyed by caller id when authenticated.
func PostingRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limit:  30,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if id := GetCallerID(c); id != "" {
				return "caller:" + id
			}
			return "ip:" + c.ClientIP()
		},
	}
}

type bucket struct {
	tokens    int
	resetAt   time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     *RateLimitConfig
}

func newRateLimiter(cfg *RateLimitConfig) *rateLimiter {
	return &rateLimiter{buckets: make(map[string]*bucket), cfg: cfg}
}

func (rl *rateLimiter) allow(key string) (ok bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.buckets[key]
	if !exists || now.After(b.resetAt) {
		b = &bucket{tokens: rl.cfg.Limit - 1, resetAt: now.Add(rl.cfg.Window)}
		rl.buckets[key] = b
		return true, b.tokens, rl.cfg.Window
	}
	if b.tokens <= 0 {
		return false, 0, b.resetAt.Sub(now)
	}
	b.tokens--
	return true, b.tokens, b.resetAt.Sub(now)
}

// RateLimit applies a fixed-window request cap per KeyFunc, returning
// 429 with Retry-After once a key exhausts its window.
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	limiter := newRateLimiter(config)

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		allowed, remaining, retryAfter := limiter.allow(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retrySeconds := int(retryAfter.Seconds())
			if retrySeconds < 1 {
				retrySeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retrySeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "TOO_MANY_REQUESTS",
					"message":    "rate limit exceeded, try again later",
					"retryAfter": retrySeconds,
				},
				"requestId": GetRequestID(c),
				"timestamp": time.Now().UTC(),
			})
			return
		}
		c.Next()
	}
}
