package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hackup/backend/internal/config"
	"github.com/hackup/backend/internal/database"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/seed"
	"go.uber.org/zap"
)

func main() {
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var run func(*seed.Seeder, context.Context) error
	switch command {
	case "dev":
		run = (*seed.Seeder).SeedDev
	case "test":
		run = (*seed.Seeder).SeedTest
	case "clean":
		run = (*seed.Seeder).Clean
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with minimal data")
		fmt.Println("  clean - Remove all data (use with caution)")
		os.Exit(1)
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), "seed.log"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.Log.Fatal("❌ Invalid database configuration", zap.Error(err))
	}
	if err := database.Initialize(cfg, false); err != nil {
		logger.Log.Fatal("❌ Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("❌ Migration failed", zap.Error(err))
	}
	logger.Log.Info("✅ Database connected", zap.String("command", command))

	if err := run(seed.NewSeeder(database.DB), context.Background()); err != nil {
		logger.Log.Fatal("❌ Seeding failed", zap.Error(err))
	}
	logger.Log.Info("✅ Done", zap.String("command", command))
}
