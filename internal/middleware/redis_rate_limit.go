package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/util"
	"go.uber.org/zap"
)

// WindowCounter counts hits in a fixed window. *cache.RedisClient implements it.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

var _ WindowCounter = (*cache.RedisClient)(nil)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every API
// instance through counter. A counter failure rejects the request with 503
// rather than letting traffic through unmetered.
func RedisRateLimitMiddleware(counter WindowCounter, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := cache.Key("rate_limit", config.Name, config.key(c))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := counter.IncrWindow(ctx, key, config.Window)
		if err != nil {
			logger.Log.Error("Rate limit check failed, rejecting request",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			util.RespondServiceUnavailable(c, "rate limiter")
			return
		}

		remaining := int64(config.Limit) - count
		if remaining < 0 {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.String("limiter", config.Name),
				zap.Int64("count", count),
			)
			rejectRateLimited(c, config, int(config.Window.Seconds()))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Next()
	}
}

// RateLimit uses the Redis limiter when a Redis client is connected
// and falls back to the in-process token bucket otherwise.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	if client := cache.GetRedisClient(); client != nil {
		return RedisRateLimitMiddleware(client, config)
	}
	return NewRateLimiter(config)
}
