package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key. A bucket holds limit tokens
// and refills fully over window. Idle keys are swept on the calling
// goroutine once two windows have passed, so the limiter owns no
// background work.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	every     rate.Limit
	clock     clockwork.Clock
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Quota is the outcome of one Take
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// NewRateLimiter allows limit requests per key every window. A nil clock
// uses the real one.
func NewRateLimiter(limit int, window time.Duration, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	every := rate.Inf
	if window > 0 {
		every = rate.Limit(float64(limit) / window.Seconds())
	}
	return &RateLimiter{
		limit:     limit,
		window:    window,
		every:     every,
		clock:     clock,
		buckets:   make(map[string]*bucket),
		lastSweep: clock.Now(),
	}
}

// Take consumes one token for key
func (rl *RateLimiter) Take(key string) Quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	q := Quota{Limit: rl.limit}
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		q.ResetIn = rl.window
		return q
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		q.ResetIn = delay
		return q
	}

	q.Allowed = true
	q.Remaining = max(0, int(math.Floor(b.limiter.TokensAt(now))))
	return q
}

func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < 2*rl.window {
		return
	}
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.window {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// RateLimit limits each client address
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return "ip:" + c.ClientIP() },
		"Too many requests, please try again later")
}

// AuthRateLimit limits login attempts per client address. Its keys never
// collide with RateLimit when both share a limiter.
func AuthRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return "auth:" + c.ClientIP() },
		"Too many login attempts, please try again later")
}

// RateLimitByKey limits requests grouped by keyFunc and reports the quota
// in X-RateLimit-* headers
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := limiter.Take(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))

		if !q.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(q.ResetIn.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRateLimited, message, GetRequestID(c)))
			return
		}
		c.Next()
	}
}
