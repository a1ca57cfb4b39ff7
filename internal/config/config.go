package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database backends accepted by DATABASE_TYPE
const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

// Config holds every runtime setting for the HackUp services
type Config struct {
	Environment string
	Port        string

	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Tracing  TracingConfig

	JWTSecret []byte
	JWTTTL    time.Duration

	LogLevel string
	LogFile  string

	ElasticsearchURL string
	CORSOrigins      []string
	RequiredServices []string
	KarmaCacheTTL    time.Duration
	SearchCacheTTL   time.Duration
}

// DatabaseConfig selects and addresses the relational store
type DatabaseConfig struct {
	Type       string
	URL        string
	SQLitePath string
}

// RedisConfig addresses the optional Redis instance. An empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a Redis host was configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// StorageConfig addresses the optional S3 bucket used for user icons
type StorageConfig struct {
	Region  string
	Bucket  string
	BaseURL string
}

// Enabled reports whether icon uploads can be served
func (s StorageConfig) Enabled() bool {
	return s.Region != "" && s.Bucket != ""
}

// TracingConfig controls the OTLP exporter
type TracingConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64
}

// Load reads an optional .env file and then the process environment.
// JWT_SECRET is required; everything else has a default.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:      getEnvOrDefault("ENVIRONMENT", "development"),
		Port:             getEnvOrDefault("PORT", "8787"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:          getEnvOrDefault("LOG_FILE", "hackup.log"),
		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),
		CORSOrigins:      splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		RequiredServices: splitList(os.Getenv("REQUIRED_SERVICES")),
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Storage: StorageConfig{
			Region:  os.Getenv("AWS_REGION"),
			Bucket:  os.Getenv("AWS_BUCKET"),
			BaseURL: os.Getenv("CDN_BASE_URL"),
		},
		Tracing: TracingConfig{
			Endpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}

	db, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}
	cfg.Database = db

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = []byte(secret)

	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.KarmaCacheTTL, err = durationEnv("KARMA_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SearchCacheTTL, err = durationEnv("SEARCH_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled, err = boolEnv("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Tracing.SamplingRate, err = floatEnv("OTEL_SAMPLING_RATE", 1.0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings; used by tools that do not serve HTTP
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load()
	return loadDatabaseConfig()
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	dbType := strings.ToLower(getEnvOrDefault("DATABASE_TYPE", DatabasePostgres))
	if dbType != DatabasePostgres && dbType != DatabaseSQLite {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_TYPE must be %q or %q, got %q", DatabasePostgres, DatabaseSQLite, dbType)
	}

	url := os.Getenv("DATABASE_URL")
	if url == "" && dbType == DatabasePostgres {
		url = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnvOrDefault("DB_HOST", "localhost"),
			getEnvOrDefault("DB_PORT", "5432"),
			getEnvOrDefault("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getEnvOrDefault("DB_NAME", "hackup"),
			getEnvOrDefault("DB_SSLMODE", "disable"),
		)
	}

	return DatabaseConfig{
		Type:       dbType,
		URL:        url,
		SQLitePath: getEnvOrDefault("SQLITE_PATH", "hackup.db"),
	}, nil
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
