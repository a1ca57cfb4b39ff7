// Package backend provides the HackUp API server.

// This package contains the main application entry point. The API is
// organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/repository: Post, comment, vote and like persistence
// - internal/karma: Karma calculation, formatting and the leaderboard
// - internal/auth: Authentication and authorization services
// - internal/websocket: WebSocket server for real-time updates
// - internal/search: Substring search over posts (database or Elasticsearch)
// - internal/storage: Profile icon storage (S3)
// - internal/cache: Redis and in-memory caching
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, tracing, etc.)
// - internal/seed: Development and test data

// See the individual package documentation for detailed API reference.
package backend
