package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/shared/telemetry"
)

const (
	defaultRateLimitGroup = "DEFAULT"
	// A bucket idle this long is full again, so dropping it loses nothing.
	bucketIdleTTL   = 15 * time.Minute
	sweepEveryCalls = 1024
	minRetryAfter   = time.Second
)

// RateLimitRule is a token bucket: Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

func (r RateLimitRule) disabled() bool {
	return r.Rate <= 0 || r.Burst <= 0
}

// RateLimitConfig maps each request to a group and each group to a rule.
// Groups without a rule are not limited.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

func (cfg RateLimitConfig) groupOf(c *gin.Context) string {
	if cfg.GroupFor != nil {
		if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
			return g
		}
	}
	return cfg.DefaultGroup
}

// RateLimiter holds one bucket per principal and group.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
	calls   int
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

func (b *rateBucket) refill(now time.Time, rule RateLimitRule) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(float64(rule.Burst), b.tokens+elapsed*rule.Rate)
	b.last = now
}

// NewRateLimiter returns an empty limiter reading time from now, or
// time.Now when now is nil.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{buckets: make(map[string]*rateBucket), now: now}
}

// RateLimit runs after Auth so signed-in callers are keyed by identity and
// guests by client IP. Requests without either share a bucket per client IP.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.groupOf(c)
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := ratePrincipal(c)
		allowed, wait := cfg.Limiter.Allow(principal+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}

		wait = max(wait, minRetryAfter)
		metrics.IncRateLimited()
		telemetry.Warn("http.rate_limited", map[string]any{
			"request_id":     RequestIDFromContext(c),
			"principal":      principal,
			"group":          group,
			"route":          c.FullPath(),
			"retry_after_ms": wait.Milliseconds(),
		})
		c.Header("Retry-After", retryAfterSeconds(wait))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down", gin.H{
			"group":        group,
			"retryAfterMs": wait.Milliseconds(),
		})
	}
}

func ratePrincipal(c *gin.Context) string {
	if id := strings.TrimSpace(QuotaKey(c)); id != "" {
		return id
	}
	return "ip:" + c.ClientIP()
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

// Allow takes one token from key's bucket. When the bucket is empty it
// returns how long until the next token lands. Disabled rules always pass.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.disabled() {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.calls++; l.calls%sweepEveryCalls == 0 {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &rateBucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = b
	}
	b.refill(now, rule)
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	ms := math.Ceil((1 - b.tokens) / rule.Rate * 1000)
	return false, time.Duration(ms) * time.Millisecond
}

// Size reports how many buckets are tracked.
func (l *RateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets idle longer than bucketIdleTTL.
func (l *RateLimiter) Sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > bucketIdleTTL {
			delete(l.buckets, key)
		}
	}
}
