package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/middleware"
	"github.com/hackup/backend/internal/repository"
)

// RouteConfig carries the cross-cutting middleware the API routes need.
// Nil limiters are skipped and a nil ResponseCache disables response caching.
type RouteConfig struct {
	RequireAuth  gin.HandlerFunc
	OptionalAuth gin.HandlerFunc

	AuthLimit   gin.HandlerFunc
	SearchLimit gin.HandlerFunc
	UploadLimit gin.HandlerFunc

	ResponseCache  cache.Store
	LeaderboardTTL time.Duration

	WebSocket gin.HandlerFunc
}

func passThrough(c *gin.Context) { c.Next() }

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// RegisterRoutes mounts the HTTP API on api (normally /api/v1)
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, ah *AuthHandlers, cfg RouteConfig) {
	required := cfg.RequireAuth
	if required == nil {
		required = passThrough
	}
	optional := cfg.OptionalAuth
	if optional == nil {
		optional = passThrough
	}
	if cfg.LeaderboardTTL <= 0 {
		cfg.LeaderboardTTL = 30 * time.Second
	}

	leaderboardPath := api.BasePath() + "/karma/leaderboard"
	// anything that can move karma drops the cached leaderboard
	karmaChanged := middleware.CacheInvalidationMiddleware(cfg.ResponseCache, leaderboardPath)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", chain(cfg.AuthLimit, ah.Register)...)
		authGroup.POST("/login", chain(cfg.AuthLimit, ah.Login)...)
		authGroup.GET("/me", required, ah.Me)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", optional, h.ListPosts)
		posts.POST("", required, h.CreatePost)
		posts.GET("/:id", optional, h.GetPost)
		posts.PUT("/:id", required, h.UpdatePost)
		posts.DELETE("/:id", required, karmaChanged, h.DeletePost)

		posts.GET("/:id/comments", optional, h.GetComments)
		posts.POST("/:id/comments", required, h.CreateComment)

		posts.GET("/:id/votes", h.ListVotes(repository.TargetPost))
		posts.POST("/:id/vote", required, karmaChanged, h.ToggleVote(repository.TargetPost))
		posts.PUT("/:id/vote", required, karmaChanged, h.SetVote(repository.TargetPost))
		posts.DELETE("/:id/vote", required, karmaChanged, h.ClearVote(repository.TargetPost))

		posts.GET("/:id/likes", h.ListLikes(repository.TargetPost))
		posts.POST("/:id/like", required, h.LikeItem(repository.TargetPost))
		posts.DELETE("/:id/like", required, h.UnlikeItem(repository.TargetPost))
	}

	comments := api.Group("/comments")
	{
		comments.GET("/:id", optional, h.GetComment)
		comments.DELETE("/:id", required, karmaChanged, h.DeleteComment)

		comments.GET("/:id/votes", h.ListVotes(repository.TargetComment))
		comments.POST("/:id/vote", required, karmaChanged, h.ToggleVote(repository.TargetComment))
		comments.PUT("/:id/vote", required, karmaChanged, h.SetVote(repository.TargetComment))
		comments.DELETE("/:id/vote", required, karmaChanged, h.ClearVote(repository.TargetComment))

		comments.GET("/:id/likes", h.ListLikes(repository.TargetComment))
		comments.POST("/:id/like", required, h.LikeItem(repository.TargetComment))
		comments.DELETE("/:id/like", required, h.UnlikeItem(repository.TargetComment))
	}

	users := api.Group("/users")
	{
		users.PUT("/me", required, h.UpdateMyProfile)
		users.POST("/me/icon", chain(required, cfg.UploadLimit, h.UploadIcon)...)
		users.GET("/me/saved-posts", required, h.GetSavedPosts)
		users.GET("/me/saved-comments", required, h.GetSavedComments)

		users.GET("/:id", optional, h.GetUserProfile)
		users.GET("/:id/posts", optional, h.GetUserPosts)
	}

	api.GET("/search", chain(cfg.SearchLimit, optional, h.SearchPosts)...)

	api.GET("/karma-score", h.GetKarmaScore)
	api.POST("/karma-score/batch", h.BatchKarmaScores)
	api.GET("/karma/leaderboard", middleware.ResponseCacheMiddleware(cfg.ResponseCache, cfg.LeaderboardTTL), h.GetLeaderboard)

	if cfg.WebSocket != nil {
		api.GET("/ws", cfg.WebSocket)
	}
}
