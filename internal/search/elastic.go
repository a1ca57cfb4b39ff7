package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/telemetry"
)

// IndexPosts is the posts index name
const IndexPosts = "posts"

// ElasticSearcher searches and indexes posts in Elasticsearch
type ElasticSearcher struct {
	es    *elasticsearch.Client
	index string
}

// NewElasticSearcher connects to Elasticsearch at url. The HTTP transport is
// traced so every ES call shows up as a client span.
func NewElasticSearcher(url string) (*ElasticSearcher, error) {
	return newElasticSearcher(url, IndexPosts, nil)
}

func newElasticSearcher(url, index string, transport http.RoundTripper) (*ElasticSearcher, error) {
	if url == "" {
		url = "http://localhost:9200"
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Transport: telemetry.NewInstrumentedTransport(transport),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return &ElasticSearcher{es: es, index: index}, nil
}

// Ping verifies the cluster is reachable
func (s *ElasticSearcher) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the posts index with its mapping if missing
func (s *ElasticSearcher) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	mappingJSON, err := json.Marshal(postsIndexMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = s.es.Indices.Create(s.index,
		s.es.Indices.Create.WithBody(bytes.NewReader(mappingJSON)),
		s.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("creating index", res.Status(), res.Body)
	}
	return nil
}

// IndexPost upserts the post document
func (s *ElasticSearcher) IndexPost(ctx context.Context, post *models.Post) error {
	body, err := json.Marshal(PostToDocument(post))
	if err != nil {
		return fmt.Errorf("failed to marshal post document: %w", err)
	}

	res, err := s.es.Index(s.index, bytes.NewReader(body),
		s.es.Index.WithDocumentID(post.ID),
		s.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index post: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indexing post", res.Status(), res.Body)
	}
	return nil
}

// DeletePost removes the post document. A missing document is not an error.
func (s *ElasticSearcher) DeletePost(ctx context.Context, postID string) error {
	res, err := s.es.Delete(s.index, postID, s.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("deleting post", res.Status(), res.Body)
	}
	return nil
}

// SearchPosts runs a case-insensitive wildcard (*q*) match on title and content
func (s *ElasticSearcher) SearchPosts(ctx context.Context, query string, limit int) ([]string, error) {
	query = NormalizeQuery(query)
	if query == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := time.Now()
	ctx, span := telemetry.TraceSearch(ctx, "elasticsearch", query, limit)
	ids, err := s.executeSearch(ctx, wildcardQuery(query, limit))
	telemetry.EndSpan(span, err)
	metrics.RecordSearch("elasticsearch", len(ids), time.Since(start), err)
	return ids, err
}

// escapeWildcard escapes the wildcard query metacharacters
func escapeWildcard(q string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(strings.ToLower(q))
}

func wildcardQuery(query string, limit int) map[string]interface{} {
	pattern := "*" + escapeWildcard(query) + "*"
	clause := func(field string) map[string]interface{} {
		return map[string]interface{}{
			"wildcard": map[string]interface{}{
				field: map[string]interface{}{
					"value":            pattern,
					"case_insensitive": true,
				},
			},
		}
	}

	return map[string]interface{}{
		"size":    limit,
		"_source": false,
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					clause("title.keyword_lower"),
					clause("content.keyword_lower"),
				},
				"minimum_should_match": 1,
			},
		},
	}
}

func (s *ElasticSearcher) executeSearch(ctx context.Context, query map[string]interface{}) ([]string, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("searching posts", res.Status(), res.Body)
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]string, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func responseError(action, status string, body io.Reader) error {
	var errResp map[string]interface{}
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return fmt.Errorf("error response [%s]", status)
	}
	return fmt.Errorf("error %s: [%s] %v", action, status, errResp["error"])
}
