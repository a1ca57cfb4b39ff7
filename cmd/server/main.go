package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/auth"
	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/config"
	"github.com/hackup/backend/internal/database"
	"github.com/hackup/backend/internal/handlers"
	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/search"
	"github.com/hackup/backend/internal/storage"
	"github.com/hackup/backend/internal/telemetry"
	"github.com/hackup/backend/internal/validation"
	"github.com/hackup/backend/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Log.Info("=== HackUp server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.Type),
	)

	ctx := context.Background()
	metrics.Initialize()

	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		Enabled:      cfg.Tracing.Enabled,
		SamplingRate: cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}

	if err := database.Initialize(cfg.Database, !cfg.IsProduction()); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	validator := validation.NewServiceValidator(cfg.RequiredServices)
	validator.Register(validation.ServiceDatabase, func(context.Context) error { return database.Health() })

	// Redis backs karma caching, search caching, the response cache and rate limits
	var store cache.Store
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without shared cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			store = redisClient
			validator.Register(validation.ServiceRedis, validation.PingCheck(redisClient))
		}
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}

	karmaService := karma.NewService(database.DB, cache.NewManager(store, "karma", cfg.KarmaCacheTTL))
	h := handlers.NewHandlers(database.DB, karmaService)

	var reconciler *search.ReconciliationService
	if cfg.ElasticsearchURL != "" {
		es, err := search.NewElasticSearcher(cfg.ElasticsearchURL)
		if err == nil {
			err = es.EnsureIndex(ctx)
		}
		if err != nil {
			logger.Log.Warn("Elasticsearch unavailable, using database search", zap.Error(err))
		} else {
			h.SetSearch(search.NewCachedSearcher(es, cache.NewManager(store, "search", cfg.SearchCacheTTL)), es)
			validator.Register(validation.ServiceElasticsearch, validation.PingCheck(es))

			reconciler = search.NewReconciliationService(es, repository.NewPostRepository(database.DB), time.Hour)
			reconciler.Start()
			defer reconciler.Stop()
		}
	}
	if reconciler == nil {
		db := search.NewDatabaseSearcher(repository.NewPostRepository(database.DB))
		h.SetSearch(search.NewCachedSearcher(db, cache.NewManager(store, "search", cfg.SearchCacheTTL)), nil)
	}

	if cfg.Storage.Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.BaseURL)
		if err != nil {
			logger.Log.Warn("S3 unavailable, icon uploads disabled", zap.Error(err))
		} else {
			if err := uploader.CheckBucketAccess(ctx); err != nil {
				logger.Log.Warn("S3 bucket access failed", zap.Error(err))
			}
			h.SetIconUploader(uploader)
			validator.Register(validation.ServiceS3, uploader.CheckBucketAccess)
		}
	}

	if err := validator.ValidateServices(ctx); err != nil {
		logger.Log.Fatal("Required service validation failed", zap.Error(err))
	}

	authService := auth.NewService(database.DB, cfg.JWTSecret, cfg.JWTTTL)

	hub := websocket.NewHub()
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, authService, cfg.CORSOrigins)
	h.SetNotifier(hub)

	r := newRouter(routerDeps{
		handlers:      h,
		authService:   authService,
		authHandlers:  handlers.NewAuthHandlers(authService, repository.NewUserRepository(database.DB)),
		wsHandler:     wsHandler,
		validator:     validator,
		responseCache: store,
		corsOrigins:   cfg.CORSOrigins,
		tracing:       tp != nil,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("💡 HackUp backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warn("WebSocket shutdown warning", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("Tracer shutdown warning", zap.Error(err))
		}
	}

	logger.Log.Info("Server exited")
}
