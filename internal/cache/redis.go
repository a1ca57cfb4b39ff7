package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient wraps redis.Client with pooling defaults and metrics
type RedisClient struct {
	client *redis.Client
}

var globalRedis *RedisClient

// NewRedisClient connects to Redis and registers the client globally.
// The connection is verified with PING before returning.
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		_ = client.Close()
		return nil, err
	}

	rc := &RedisClient{client: client}
	globalRedis = rc

	logger.Log.Info("Redis client connected", zap.String("address", addr))
	return rc, nil
}

// GetRedisClient returns the global Redis client, or nil when Redis is disabled
func GetRedisClient() *RedisClient {
	return globalRedis
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	if globalRedis == rc {
		globalRedis = nil
	}
	return rc.client.Close()
}

// keyPattern reduces a key to its prefix for metric labels
func keyPattern(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

func observe(op, key string, start time.Time, err error) {
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	metrics.RecordRedisOperation(op, keyPattern(key), time.Since(start), err)
}

// Get retrieves a value. A missing key returns ErrMiss.
func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := rc.client.Get(ctx, key).Result()
	observe("get", key, start, err)
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

// SetEx stores a value with expiration
func (rc *RedisClient) SetEx(ctx context.Context, key string, value string, ttl time.Duration) error {
	start := time.Now()
	err := rc.client.Set(ctx, key, value, ttl).Err()
	observe("set", key, start, err)
	return err
}

// Del deletes one or more keys
func (rc *RedisClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	start := time.Now()
	err := rc.client.Del(ctx, keys...).Err()
	observe("del", keys[0], start, err)
	return err
}

// DeletePrefix removes every key starting with prefix. SCAN is used instead
// of KEYS so large keyspaces do not block the server.
func (rc *RedisClient) DeletePrefix(ctx context.Context, prefix string) error {
	start := time.Now()
	var cursor uint64
	var err error
	for {
		var keys []string
		keys, cursor, err = rc.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			break
		}
		if len(keys) > 0 {
			if err = rc.client.Del(ctx, keys...).Err(); err != nil {
				break
			}
		}
		if cursor == 0 {
			break
		}
	}
	observe("scan_del", prefix, start, err)
	return err
}

// IncrWindow increments a counter and sets its expiry when the window opens.
// Returns the count after the increment.
func (rc *RedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	start := time.Now()
	pipe := rc.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	_, err := pipe.Exec(ctx)
	observe("incr", key, start, err)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// TTL returns the time-to-live for a key
func (rc *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rc.client.TTL(ctx, key).Result()
}

// Ping tests the Redis connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}
