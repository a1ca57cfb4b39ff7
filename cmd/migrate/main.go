package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hackup/backend/internal/config"
	"github.com/hackup/backend/internal/database"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/search"
	"go.uber.org/zap"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up", "reindex":
	default:
		fmt.Println("Usage: migrate [up|reindex]")
		fmt.Println("  up      - Create or update every table and index")
		fmt.Println("  reindex - Rebuild the Elasticsearch posts index from the database")
		os.Exit(1)
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), "migrate.log"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.Log.Fatal("❌ Invalid database configuration", zap.Error(err))
	}

	logger.Log.Info("🔄 Connecting to database...", zap.String("type", cfg.Type))
	if err := database.Initialize(cfg, false); err != nil {
		logger.Log.Fatal("❌ Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	switch command {
	case "up":
		runMigrationsUp()
	case "reindex":
		runReindex()
	}
}

func runMigrationsUp() {
	logger.Log.Info("📈 Running migrations...")
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("❌ Migration failed", zap.Error(err))
	}
	logger.Log.Info("✅ All migrations completed successfully!")
}

func runReindex() {
	url := os.Getenv("ELASTICSEARCH_URL")
	if url == "" {
		logger.Log.Fatal("❌ ELASTICSEARCH_URL is required for reindex")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	es, err := search.NewElasticSearcher(url)
	if err != nil {
		logger.Log.Fatal("❌ Failed to create Elasticsearch client", zap.Error(err))
	}
	if err := es.EnsureIndex(ctx); err != nil {
		logger.Log.Fatal("❌ Failed to ensure posts index", zap.Error(err))
	}

	rs := search.NewReconciliationService(es, repository.NewPostRepository(database.DB), time.Hour)
	n, err := rs.ReindexAll(ctx)
	if err != nil {
		logger.Log.Fatal("❌ Reindex failed", zap.Int("indexed", n), zap.Error(err))
	}
	logger.Log.Info("✅ Reindex complete", zap.Int("posts", n))
}
