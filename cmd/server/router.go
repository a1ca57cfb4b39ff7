package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/auth"
	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/handlers"
	"github.com/hackup/backend/internal/middleware"
	"github.com/hackup/backend/internal/validation"
	"github.com/hackup/backend/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "hackup-backend"

// routerDeps is everything the HTTP surface is built from
type routerDeps struct {
	handlers      *handlers.Handlers
	authService   auth.AuthServiceInterface
	authHandlers  *handlers.AuthHandlers
	wsHandler     *websocket.Handler
	validator     *validation.ServiceValidator
	responseCache cache.Store
	corsOrigins   []string
	tracing       bool
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CorrelationMiddleware())
	if d.tracing {
		r.Use(middleware.TracingMiddleware(serviceName)...)
		r.Use(middleware.SpanEnrichmentMiddleware())
	}
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	config := cors.DefaultConfig()
	if len(d.corsOrigins) == 0 || d.corsOrigins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = d.corsOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Correlation-ID"}
	config.ExposeHeaders = []string{"X-Request-ID", "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	r.Use(cors.New(config))

	// websocket upgrades must not be wrapped in a gzip writer
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/ws", "/metrics"})))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		}
		if d.validator != nil {
			report, healthy := d.validator.HealthReport(c.Request.Context())
			body["services"] = report
			if !healthy {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cfg := handlers.RouteConfig{
		RequireAuth:   auth.Middleware(d.authService),
		OptionalAuth:  auth.OptionalMiddleware(d.authService),
		AuthLimit:     middleware.RateLimit(middleware.AuthRateLimitConfig()),
		SearchLimit:   middleware.RateLimit(middleware.SearchRateLimitConfig()),
		UploadLimit:   middleware.RateLimit(middleware.UploadRateLimitConfig()),
		ResponseCache: d.responseCache,
	}
	if d.wsHandler != nil {
		cfg.WebSocket = d.wsHandler.HandleWebSocket
	}

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	handlers.RegisterRoutes(api, d.handlers, d.authHandlers, cfg)
	if d.wsHandler != nil {
		api.GET("/ws/metrics", auth.Middleware(d.authService), d.wsHandler.HandleMetrics)
	}

	return r
}
