package search

import (
	"context"
	"strconv"

	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/logger"
	"go.uber.org/zap"
)

const cachePrefix = "search:posts"

// CachedSearcher memoizes another Searcher's results for a short TTL.
// Post mutations call Invalidate so new content shows up promptly.
type CachedSearcher struct {
	next  Searcher
	cache *cache.Manager
}

func NewCachedSearcher(next Searcher, manager *cache.Manager) *CachedSearcher {
	return &CachedSearcher{next: next, cache: manager}
}

func cacheKey(query string, limit int) string {
	return cache.HashKey(cachePrefix, query, strconv.Itoa(limit))
}

func (c *CachedSearcher) SearchPosts(ctx context.Context, query string, limit int) ([]string, error) {
	query = NormalizeQuery(query)
	if query == "" {
		return []string{}, nil
	}

	key := cacheKey(query, limit)
	var ids []string
	found, err := c.cache.GetJSON(ctx, key, &ids)
	if err != nil {
		logger.Log.Debug("Search cache read failed", zap.Error(err))
	}
	if found {
		return ids, nil
	}

	ids, err = c.next.SearchPosts(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, ids); err != nil {
		logger.Log.Debug("Search cache write failed", zap.Error(err))
	}
	return ids, nil
}

// Invalidate drops every cached search result
func (c *CachedSearcher) Invalidate(ctx context.Context) error {
	return c.cache.InvalidatePrefix(ctx, cachePrefix)
}
