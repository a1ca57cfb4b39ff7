package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"go.uber.org/zap"
)

const responseCacheName = "response_cache"

// ResponseCacheMiddleware caches 2xx GET bodies in store for ttl and sets
// X-Cache: HIT or MISS. Keys are response:{path}[:{query}][:{user_id}].
// A nil store disables caching.
func ResponseCacheMiddleware(store cache.Store, ttl time.Duration) gin.HandlerFunc {
	maxAge := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))

	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		cacheKey := responseCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery, c.GetString("user_id"))
		ctx := c.Request.Context()

		start := time.Now()
		cached, err := store.Get(ctx, cacheKey)
		metrics.RecordCacheOperation("GET", responseCacheName, time.Since(start))

		if err == nil {
			metrics.RecordCacheHit(responseCacheName)
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", maxAge)
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		metrics.RecordCacheMiss(responseCacheName)

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", maxAge)

		c.Next()

		if writer.statusCode < 200 || writer.statusCode >= 300 || writer.body.Len() == 0 {
			return
		}

		start = time.Now()
		if err := store.SetEx(ctx, cacheKey, writer.body.String(), ttl); err != nil {
			logger.Log.Debug("Failed to write response to cache", zap.String("key", cacheKey), zap.Error(err))
			return
		}
		metrics.RecordCacheOperation("SET", responseCacheName, time.Since(start))
	}
}

func responseCacheKey(path, query, userID string) string {
	key := "response:" + path
	if query != "" {
		key += ":" + query
	}
	if userID != "" {
		key += ":" + userID
	}
	return key
}

// cachedResponseWriter tees the response body into a buffer
type cachedResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func (w *cachedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// CacheInvalidationMiddleware drops cached responses under each path prefix
// after a successful POST, PUT or DELETE.
func CacheInvalidationMiddleware(store cache.Store, pathPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if store == nil {
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 400 {
			return
		}

		InvalidateResponses(c.Request.Context(), store, pathPrefixes...)
	}
}

// InvalidateResponses deletes every cached response whose path starts with one of pathPrefixes
func InvalidateResponses(ctx context.Context, store cache.Store, pathPrefixes ...string) {
	for _, prefix := range pathPrefixes {
		if err := store.DeletePrefix(ctx, "response:"+prefix); err != nil {
			logger.Log.Warn("Failed to invalidate cached responses", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}
