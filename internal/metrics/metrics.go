package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSize       *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
	CacheOperationsTotal   *prometheus.CounterVec
	CacheOperationDuration *prometheus.HistogramVec

	RateLimitExceededTotal *prometheus.CounterVec

	// Database metrics
	DatabaseQueryDuration   *prometheus.HistogramVec
	DatabaseQueriesTotal    *prometheus.CounterVec
	DatabaseConnectionsOpen *prometheus.GaugeVec

	// Redis metrics
	RedisOperationDuration *prometheus.HistogramVec
	RedisOperationsTotal   *prometheus.CounterVec

	// Engagement metrics
	VotesTotal    *prometheus.CounterVec
	LikesTotal    *prometheus.CounterVec
	PostsCreated  prometheus.Counter
	CommentsTotal prometheus.Counter

	// Karma metrics
	KarmaCalculationsTotal   *prometheus.CounterVec
	KarmaCalculationDuration *prometheus.HistogramVec

	// Search metrics
	SearchQueriesTotal  *prometheus.CounterVec
	SearchQueryDuration *prometheus.HistogramVec
	SearchResultsTotal  *prometheus.CounterVec

	WebsocketConnections prometheus.Gauge
	WebsocketMessages    *prometheus.CounterVec

	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics. Safe to call repeatedly.
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_size_bytes",
					Help:    "HTTP request body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "path"},
			),

			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),
			CacheOperationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_operations_total",
					Help: "Total number of cache operations",
				},
				[]string{"operation", "cache_name"},
			),
			CacheOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cache_operation_duration_seconds",
					Help:    "Cache operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "cache_name"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limit violations",
				},
				[]string{"endpoint", "method"},
			),

			DatabaseQueryDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "database_query_duration_seconds",
					Help:    "Database query latency in seconds",
					Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"query_type", "table"},
			),
			DatabaseQueriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "database_queries_total",
					Help: "Total number of database queries",
				},
				[]string{"query_type", "table", "status"},
			),
			DatabaseConnectionsOpen: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "database_connections_open",
					Help: "Number of currently open database connections",
				},
				[]string{"database"},
			),

			RedisOperationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "redis_operation_duration_seconds",
					Help:    "Redis operation latency in seconds",
					Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
				},
				[]string{"operation", "key_pattern"},
			),
			RedisOperationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "redis_operations_total",
					Help: "Total number of Redis operations",
				},
				[]string{"operation", "status"},
			),

			VotesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hackup_votes_total",
					Help: "Vote mutations by target, vote type and resulting action",
				},
				[]string{"target", "vote_type", "action"},
			),
			LikesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hackup_likes_total",
					Help: "Like mutations by target and action",
				},
				[]string{"target", "action"},
			),
			PostsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "hackup_posts_created_total",
					Help: "Total number of posts created",
				},
			),
			CommentsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "hackup_comments_created_total",
					Help: "Total number of comments created",
				},
			),

			KarmaCalculationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hackup_karma_calculations_total",
					Help: "Karma computations by mode and source",
				},
				[]string{"mode", "source"},
			),
			KarmaCalculationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "hackup_karma_calculation_duration_seconds",
					Help:    "Karma computation latency in seconds",
					Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5},
				},
				[]string{"mode"},
			),

			SearchQueriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "search_queries_total",
					Help: "Total number of search queries",
				},
				[]string{"backend", "status"},
			),
			SearchQueryDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "search_query_duration_seconds",
					Help:    "Search query duration in seconds",
					Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
				},
				[]string{"backend"},
			),
			SearchResultsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "search_results_total",
					Help: "Total number of search results returned",
				},
				[]string{"backend"},
			),

			WebsocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_active_connections",
					Help: "Number of connected websocket clients",
				},
			),
			WebsocketMessages: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "websocket_messages_total",
					Help: "Websocket messages by direction and type",
				},
				[]string{"direction", "type"},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordCacheHit(cacheName string) {
	Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

func RecordCacheOperation(operation, cacheName string, duration time.Duration) {
	m := Get()
	m.CacheOperationsTotal.WithLabelValues(operation, cacheName).Inc()
	m.CacheOperationDuration.WithLabelValues(operation, cacheName).Observe(duration.Seconds())
}

func RecordRateLimitExceeded(endpoint, method string) {
	Get().RateLimitExceededTotal.WithLabelValues(endpoint, method).Inc()
}

func RecordDatabaseQuery(queryType, table string, duration time.Duration, err error) {
	m := Get()
	m.DatabaseQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
	m.DatabaseQueriesTotal.WithLabelValues(queryType, table, status(err)).Inc()
}

func SetDatabaseConnections(database string, count int) {
	Get().DatabaseConnectionsOpen.WithLabelValues(database).Set(float64(count))
}

func RecordRedisOperation(operation, keyPattern string, duration time.Duration, err error) {
	m := Get()
	m.RedisOperationDuration.WithLabelValues(operation, keyPattern).Observe(duration.Seconds())
	m.RedisOperationsTotal.WithLabelValues(operation, status(err)).Inc()
}

// RecordVote counts a vote mutation. action is created, changed or removed.
func RecordVote(target, voteType, action string) {
	Get().VotesTotal.WithLabelValues(target, voteType, action).Inc()
}

// RecordLike counts a like mutation. action is added or removed.
func RecordLike(target, action string) {
	Get().LikesTotal.WithLabelValues(target, action).Inc()
}

func RecordPostCreated() {
	Get().PostsCreated.Inc()
}

func RecordCommentCreated() {
	Get().CommentsTotal.Inc()
}

// RecordKarmaCalculation observes one karma computation. source is "db" or "cache".
func RecordKarmaCalculation(mode, source string, duration time.Duration) {
	m := Get()
	m.KarmaCalculationsTotal.WithLabelValues(mode, source).Inc()
	if source != "cache" {
		m.KarmaCalculationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

func RecordSearch(backend string, results int, duration time.Duration, err error) {
	m := Get()
	m.SearchQueriesTotal.WithLabelValues(backend, status(err)).Inc()
	m.SearchQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err == nil {
		m.SearchResultsTotal.WithLabelValues(backend).Add(float64(results))
	}
}

func SetWebsocketConnections(n int64) {
	Get().WebsocketConnections.Set(float64(n))
}

func RecordWebsocketMessage(direction, msgType string) {
	Get().WebsocketMessages.WithLabelValues(direction, msgType).Inc()
}

func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
