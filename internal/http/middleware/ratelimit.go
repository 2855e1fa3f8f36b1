package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to its rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByAddressOrIP buckets by wallet address on /users/:address routes and
// by client IP elsewhere. The "addr:" and "ip:" prefixes keep the two
// namespaces apart.
func KeyByAddressOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if a := addressFromCtx(c); a != "" {
			return "addr:" + a
		}
		return "ip:" + c.ClientIP()
	}
}

const (
	bucketIdleTTL = 10 * time.Minute
	sweepEvery    = 5000 // lookups between idle-bucket sweeps
	// Retry-After when the limit admits no refill at all (RATE_RPS=0).
	noRefillRetry = time.Minute
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. Idle buckets are
// swept every few thousand lookups. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   KeyFunc
	now   func() time.Time
	ttl   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter refills rps tokens per second up to burst (min 1).
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		key:     key,
		now:     time.Now,
		ttl:     bucketIdleTTL,
		buckets: make(map[string]*bucket),
	}
}

// limiter returns the bucket for key. The sweep runs first so an expired
// bucket is replaced rather than refreshed.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepEvery {
		rl.lookups = 0
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
	}
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay; replays never spend tokens.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// Handler admits a request when its bucket has a token. Otherwise it
// answers 429 with Retry-After set to the whole seconds until the next token.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		now := rl.now()
		res := rl.limiter(rl.key(c), now).ReserveN(now, 1)

		wait := noRefillRetry
		if res.OK() {
			if wait = res.DelayFrom(now); wait <= 0 {
				c.Next()
				return
			}
			// Give the token back; this request is rejected, not queued.
			res.CancelAt(now)
		}

		c.Header("Retry-After", strconv.Itoa(retrySeconds(wait)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

func retrySeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
