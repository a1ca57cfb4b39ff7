// Package search finds posts by substring. The database backend is always
// available; Elasticsearch takes over when configured, and either can be
// wrapped in a Redis result cache.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/telemetry"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// Searcher returns ids of posts matching query, best match first
type Searcher interface {
	SearchPosts(ctx context.Context, query string, limit int) ([]string, error)
}

// Indexer keeps an external index in step with post mutations
type Indexer interface {
	IndexPost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, postID string) error
}

// NormalizeQuery trims the query; an empty result means "no search"
func NormalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// DatabaseSearcher runs a case-insensitive LIKE over titles and content
type DatabaseSearcher struct {
	posts repository.PostRepository
}

func NewDatabaseSearcher(posts repository.PostRepository) *DatabaseSearcher {
	return &DatabaseSearcher{posts: posts}
}

func (s *DatabaseSearcher) SearchPosts(ctx context.Context, query string, limit int) ([]string, error) {
	query = NormalizeQuery(query)
	if query == "" {
		return []string{}, nil
	}

	start := time.Now()
	ctx, span := telemetry.TraceSearch(ctx, "database", query, limit)
	posts, err := s.posts.Search(ctx, query, limit)
	telemetry.EndSpan(span, err)
	metrics.RecordSearch("database", len(posts), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids, nil
}
