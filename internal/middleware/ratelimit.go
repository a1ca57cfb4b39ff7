package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/errors"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/util"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name namespaces counters so route groups do not share a budget
	Name string
	// Requests per window
	Limit  int
	Window time.Duration
	// KeyFunc picks the caller identity; ClientIP by default
	KeyFunc func(c *gin.Context) string
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "default",
		Limit:   100,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// AuthRateLimitConfig returns stricter limits for register and login
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "auth",
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// UploadRateLimitConfig returns limits for icon uploads
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "upload",
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// SearchRateLimitConfig returns limits for search endpoints
func SearchRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:    "search",
		Limit:   60,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

func (cfg RateLimitConfig) key(c *gin.Context) string {
	if cfg.KeyFunc != nil {
		if k := cfg.KeyFunc(c); k != "" {
			return k
		}
	}
	return c.ClientIP()
}

// RateLimiter keeps one x/time/rate limiter per caller key
type RateLimiter struct {
	limiters  map[string]*rate.Limiter
	config    RateLimitConfig
	mu        sync.Mutex
	lastSweep time.Time
}

func newRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		config:    config,
		lastSweep: time.Now(),
	}
}

// NewRateLimiter creates an in-process rate limiting middleware
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	rl := newRateLimiter(config)

	return func(c *gin.Context) {
		key := config.key(c)
		if !rl.Allow(key) {
			rejectRateLimited(c, config, rl.RetryAfter(key))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > 2*rl.config.Window {
		rl.sweep(now)
	}
	lim, ok := rl.limiters[key]
	if !ok {
		every := rl.config.Window / time.Duration(max(rl.config.Limit, 1))
		lim = rate.NewLimiter(rate.Every(every), rl.config.Limit)
		rl.limiters[key] = lim
	}
	return lim
}

// Allow checks if key may make another request
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	return rl.limiter(key, now).AllowN(now, 1)
}

// sweep drops idle limiters; a full one is indistinguishable from a new one.
// Caller holds rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, lim := range rl.limiters {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(rl.limiters, key)
		}
	}
	rl.lastSweep = now
}

// RetryAfter returns whole seconds until key gets its next token
func (rl *RateLimiter) RetryAfter(key string) int {
	now := time.Now()
	r := rl.limiter(key, now).ReserveN(now, 1)
	if !r.OK() {
		return 1
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return max(int(math.Ceil(delay.Seconds())), 1)
}

func rejectRateLimited(c *gin.Context, config RateLimitConfig, retryAfter int) {
	metrics.RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	util.RespondWithAPIError(c, errors.RateLimited("rate limit exceeded").
		WithDetails("retry after "+strconv.Itoa(retryAfter)+"s"))
}
