package database

import (
	"fmt"
	"time"

	"github.com/hackup/backend/internal/config"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize opens the configured database and stores it in DB
func Initialize(cfg config.DatabaseConfig, verbose bool) error {
	db, err := Open(cfg, verbose)
	if err != nil {
		return err
	}

	if err := db.Use(telemetry.GORMTracingPlugin(cfg.Type)); err != nil {
		logger.WarnWithFields("Failed to register GORM tracing plugin", err)
	}

	DB = db
	logger.Log.Info("✅ Database connected successfully", zap.String("type", cfg.Type))
	return nil
}

// Open connects to postgres or sqlite depending on cfg.Type
func Open(cfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if verbose {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case config.DatabaseSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	case config.DatabasePostgres, "":
		dialector = postgres.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Type == config.DatabaseSQLite {
		// one connection keeps :memory: databases coherent and serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

// Migrate runs auto-migration against the global connection
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := MigrateDB(DB); err != nil {
		return err
	}
	logger.Log.Info("✅ Database migrations completed")
	return nil
}

// MigrateDB creates tables and secondary indexes on db
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// createIndexes adds the query-shaped indexes AutoMigrate cannot express.
// The statements are valid on both postgres and sqlite.
func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
		"CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts (user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_post_votes_post_type ON post_votes (post_id, vote_type)",
		"CREATE INDEX IF NOT EXISTS idx_comment_votes_comment_type ON comment_votes (comment_id, vote_type)",
		"CREATE INDEX IF NOT EXISTS idx_post_likes_user_created ON post_likes (user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comment_likes_user_created ON comment_likes (user_id, created_at DESC)",
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// OpenMemory opens a migrated, private in-memory sqlite database.
// Used by tests and the seed tool's dry runs.
func OpenMemory() (*gorm.DB, error) {
	db, err := Open(config.DatabaseConfig{
		Type:       config.DatabaseSQLite,
		SQLitePath: ":memory:",
	}, false)
	if err != nil {
		return nil, err
	}
	db.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	if err := MigrateDB(db); err != nil {
		return nil, err
	}
	return db, nil
}
