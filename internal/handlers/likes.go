package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/telemetry"
	"github.com/hackup/backend/internal/util"
)

const (
	defaultSavedLimit = 20
	maxSavedLimit     = 50
)

// LikeItem returns a handler that likes (bookmarks) an item. Liking twice
// answers 200 instead of 201.
// POST /api/v1/posts/:id/like, POST /api/v1/comments/:id/like
func (h *Handlers) LikeItem(target repository.VoteTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			return
		}
		s, ok := h.loadSubject(c, target)
		if !ok {
			return
		}

		ctx, span := telemetry.TraceLike(c.Request.Context(), string(target), s.itemID, "add")
		created, err := h.likes.Add(ctx, target, s.itemID, userID)
		telemetry.EndSpan(span, err)
		if err != nil {
			respondRepoError(c, err, "like")
			return
		}

		count, err := h.likes.Count(ctx, target, s.itemID)
		if err != nil {
			util.RespondError(c, err, "failed to count likes")
			return
		}

		if !created {
			c.JSON(http.StatusOK, gin.H{
				"message":    "already liked",
				"liked":      true,
				"like_count": count,
			})
			return
		}

		metrics.RecordLike(string(target), "added")
		h.publishStats(ctx, s)
		c.JSON(http.StatusCreated, gin.H{
			"liked":      true,
			"like_count": count,
		})
	}
}

// UnlikeItem returns a handler that removes the caller's like
// DELETE /api/v1/posts/:id/like, DELETE /api/v1/comments/:id/like
func (h *Handlers) UnlikeItem(target repository.VoteTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			return
		}
		s, ok := h.loadSubject(c, target)
		if !ok {
			return
		}

		ctx, span := telemetry.TraceLike(c.Request.Context(), string(target), s.itemID, "remove")
		removed, err := h.likes.Remove(ctx, target, s.itemID, userID)
		telemetry.EndSpan(span, err)
		if err != nil {
			respondRepoError(c, err, "like")
			return
		}
		if !removed {
			util.RespondNotFound(c, "like")
			return
		}

		count, err := h.likes.Count(ctx, target, s.itemID)
		if err != nil {
			util.RespondError(c, err, "failed to count likes")
			return
		}

		metrics.RecordLike(string(target), "removed")
		h.publishStats(ctx, s)
		c.JSON(http.StatusOK, gin.H{
			"liked":      false,
			"like_count": count,
		})
	}
}

// ListLikes returns a handler listing every like on an item
// GET /api/v1/posts/:id/likes, GET /api/v1/comments/:id/likes
func (h *Handlers) ListLikes(target repository.VoteTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.loadSubject(c, target)
		if !ok {
			return
		}

		likes, err := h.likes.List(c.Request.Context(), target, s.itemID)
		if err != nil {
			util.RespondError(c, err, "failed to list likes")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"likes": likes,
			"count": len(likes),
		})
	}
}

// SavedPost is a liked post with the time it was saved
type SavedPost struct {
	models.PostWithStats
	SavedAt time.Time `json:"saved_at"`
}

// GetSavedPosts lists the posts the current user liked, newest like first
// GET /api/v1/users/me/saved-posts
func (h *Handlers) GetSavedPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	limit, offset := util.ParsePagination(c, defaultSavedLimit, maxSavedLimit)
	saved, total, err := h.likes.SavedPosts(ctx, userID, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		util.RespondError(c, err, "failed to list saved posts")
		return
	}

	posts := make([]models.Post, len(saved))
	for i, s := range saved {
		posts[i] = s.Post
	}
	withStats, err := h.postsWithStats(ctx, posts, userID)
	if err != nil {
		util.RespondError(c, err, "failed to load post stats")
		return
	}

	out := make([]SavedPost, len(saved))
	for i := range saved {
		out[i] = SavedPost{PostWithStats: withStats[i], SavedAt: saved[i].LikedAt}
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       out,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
		"has_more":    int64(offset)+int64(limit) < total,
	})
}

// GetSavedComments lists the comments the current user liked, each with
// its parent post
// GET /api/v1/users/me/saved-comments
func (h *Handlers) GetSavedComments(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	limit, offset := util.ParsePagination(c, defaultSavedLimit, maxSavedLimit)
	saved, total, err := h.likes.SavedComments(ctx, userID, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		util.RespondError(c, err, "failed to list saved comments")
		return
	}

	comments := make([]models.Comment, len(saved))
	for i, s := range saved {
		comments[i] = s.Comment
	}
	withStats, err := h.commentsWithStats(ctx, comments, userID)
	if err != nil {
		util.RespondError(c, err, "failed to load comment stats")
		return
	}
	for i := range withStats {
		post := saved[i].Comment.Post
		withStats[i].Post = &models.PostRef{ID: post.ID, Title: post.Title}
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":    withStats,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
		"has_more":    int64(offset)+int64(limit) < total,
	})
}
