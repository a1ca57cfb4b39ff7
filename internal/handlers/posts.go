package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/util"
	"github.com/hackup/backend/internal/websocket"
	"go.uber.org/zap"
)

const (
	defaultPostLimit = 10
	maxPostLimit     = 50
)

// Pagination describes a limit/offset page of a listing
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

func newPagination(limit, offset int, total int64) Pagination {
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: int64(offset)+int64(limit) < total,
	}
}

type postRequest struct {
	Title   string `json:"title" binding:"required,min=3,max=50"`
	Content string `json:"content" binding:"required,min=10,max=500"`
}

// normalize trims both fields and re-checks lengths, since padding with
// whitespace would otherwise satisfy the binding rules
func (r *postRequest) normalize(c *gin.Context) bool {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)

	if n := utf8.RuneCountInString(r.Title); n < models.PostTitleMinLength || n > models.PostTitleMaxLength {
		util.RespondValidationError(c, "title", "title must be between 3 and 50 characters")
		return false
	}
	if n := utf8.RuneCountInString(r.Content); n < models.PostContentMinLength || n > models.PostContentMaxLength {
		util.RespondValidationError(c, "content", "content must be between 10 and 500 characters")
		return false
	}
	return true
}

// ListPosts returns posts newest first with engagement stats
// GET /api/v1/posts
func (h *Handlers) ListPosts(c *gin.Context) {
	limit, offset := util.ParsePagination(c, defaultPostLimit, maxPostLimit)
	ctx := c.Request.Context()

	posts, total, err := h.posts.List(ctx, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		util.RespondError(c, err, "failed to list posts")
		return
	}

	withStats, err := h.postsWithStats(ctx, posts, util.GetViewerID(c))
	if err != nil {
		util.RespondError(c, err, "failed to load post stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      withStats,
		"pagination": newPagination(limit, offset, total),
	})
}

// CreatePost publishes a new tip for the current user
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req postRequest
	if !bindJSON(c, &req) || !req.normalize(c) {
		return
	}

	ctx := c.Request.Context()
	post := &models.Post{UserID: userID, Title: req.Title, Content: req.Content}
	if err := h.posts.Create(ctx, post); err != nil {
		respondRepoError(c, err, "post")
		return
	}

	metrics.RecordPostCreated()
	logger.Log.Info("Post created", logger.WithUserID(userID), logger.WithPostID(post.ID))

	h.syncSearch(ctx, post, false)
	h.notifier.PostCreated(websocket.PostPayload{
		PostID:    post.ID,
		UserID:    userID,
		Username:  post.User.Username,
		Title:     post.Title,
		CreatedAt: post.CreatedAt,
	})

	c.JSON(http.StatusCreated, post.WithStats(models.PostStats{}))
}

// GetPost returns one post with stats
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.posts.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondRepoError(c, err, "post")
		return
	}

	withStats, err := h.postsWithStats(ctx, []models.Post{*post}, util.GetViewerID(c))
	if err != nil {
		util.RespondError(c, err, "failed to load post stats")
		return
	}
	c.JSON(http.StatusOK, withStats[0])
}

// UpdatePost edits the title and content of the caller's own post
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	postID := c.Param("id")
	existing, err := h.posts.GetByID(ctx, postID)
	if err != nil {
		respondRepoError(c, err, "post")
		return
	}
	if existing.UserID != userID {
		util.RespondForbidden(c, "only the author can edit this post")
		return
	}

	var req postRequest
	if !bindJSON(c, &req) || !req.normalize(c) {
		return
	}

	post, err := h.posts.Update(ctx, postID, req.Title, req.Content)
	if err != nil {
		respondRepoError(c, err, "post")
		return
	}
	h.syncSearch(ctx, post, false)

	withStats, err := h.postsWithStats(ctx, []models.Post{*post}, userID)
	if err != nil {
		util.RespondError(c, err, "failed to load post stats")
		return
	}
	c.JSON(http.StatusOK, withStats[0])
}

// DeletePost removes the caller's own post along with its comments, votes
// and likes, then refreshes karma for every author who lost votes
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	postID := c.Param("id")
	post, err := h.posts.GetByID(ctx, postID)
	if err != nil {
		respondRepoError(c, err, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "only the author can delete this post")
		return
	}

	affected, err := h.posts.Delete(ctx, postID)
	if err != nil {
		respondRepoError(c, err, "post")
		return
	}

	logger.Log.Info("Post deleted",
		logger.WithUserID(userID),
		logger.WithPostID(postID),
		zap.Int("affected_authors", len(affected)),
	)

	h.syncSearch(ctx, post, true)
	h.notifier.PostDeleted(postID)
	h.refreshKarma(ctx, affected...)

	c.Status(http.StatusNoContent)
}

// GetUserPosts lists one user's posts newest first
// GET /api/v1/users/:id/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("id")
	if _, err := h.users.GetByID(ctx, userID); err != nil {
		respondRepoError(c, err, "user")
		return
	}

	limit, offset := util.ParsePagination(c, defaultPostLimit, maxPostLimit)
	posts, total, err := h.posts.ListByUser(ctx, userID, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		util.RespondError(c, err, "failed to list posts")
		return
	}

	withStats, err := h.postsWithStats(ctx, posts, util.GetViewerID(c))
	if err != nil {
		util.RespondError(c, err, "failed to load post stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      withStats,
		"pagination": newPagination(limit, offset, total),
	})
}
