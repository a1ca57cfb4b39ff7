package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"go.uber.org/zap"
)

// ErrMiss is returned by Store.Get when the key does not exist
var ErrMiss = errors.New("cache: miss")

// Store is the key/value surface the caches need. *RedisClient implements it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key joins a prefix and values with ':'
func Key(prefix string, values ...string) string {
	return strings.Join(append([]string{prefix}, values...), ":")
}

// HashKey builds prefix:<md5(parts joined by '|')>
func HashKey(prefix string, parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Manager is a named JSON cache over a Store. A nil *Manager or a Manager
// without a store behaves as an always-missing cache.
type Manager struct {
	store Store
	name  string
	ttl   time.Duration
}

// NewManager creates a cache manager. store may be nil.
func NewManager(store Store, name string, ttl time.Duration) *Manager {
	return &Manager{store: store, name: name, ttl: ttl}
}

// Enabled reports whether a backing store is configured
func (m *Manager) Enabled() bool {
	return m != nil && m.store != nil
}

// GetJSON loads key into dst. Returns found=false on a miss; backend errors
// are returned so callers can log and fall through.
func (m *Manager) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	if !m.Enabled() {
		return false, nil
	}

	start := time.Now()
	val, err := m.store.Get(ctx, key)
	metrics.RecordCacheOperation("get", m.name, time.Since(start))
	if errors.Is(err, ErrMiss) {
		metrics.RecordCacheMiss(m.name)
		return false, nil
	}
	if err != nil {
		metrics.RecordCacheMiss(m.name)
		return false, err
	}

	if err := json.Unmarshal([]byte(val), dst); err != nil {
		// unreadable entries are dropped and treated as a miss
		_ = m.store.Del(ctx, key)
		metrics.RecordCacheMiss(m.name)
		return false, nil
	}

	metrics.RecordCacheHit(m.name)
	return true, nil
}

// SetJSON stores value under key with the manager's TTL
func (m *Manager) SetJSON(ctx context.Context, key string, value interface{}) error {
	if !m.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	start := time.Now()
	err = m.store.SetEx(ctx, key, string(data), m.ttl)
	metrics.RecordCacheOperation("set", m.name, time.Since(start))
	if err != nil {
		logger.Log.Debug("Cache write failed", zap.String("cache", m.name), zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes keys
func (m *Manager) Invalidate(ctx context.Context, keys ...string) error {
	if !m.Enabled() || len(keys) == 0 {
		return nil
	}
	start := time.Now()
	err := m.store.Del(ctx, keys...)
	metrics.RecordCacheOperation("del", m.name, time.Since(start))
	return err
}

// InvalidatePrefix removes every key under prefix
func (m *Manager) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !m.Enabled() {
		return nil
	}
	start := time.Now()
	err := m.store.DeletePrefix(ctx, prefix)
	metrics.RecordCacheOperation("del_prefix", m.name, time.Since(start))
	return err
}
