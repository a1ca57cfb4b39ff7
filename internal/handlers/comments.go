package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/util"
	"github.com/hackup/backend/internal/websocket"
)

const (
	defaultCommentLimit = 20
	maxCommentLimit     = 100
)

// CreateComment creates a new comment on a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		util.RespondValidationError(c, "content", "content must not be blank")
		return
	}

	ctx := c.Request.Context()
	postID := c.Param("id")
	if _, err := h.posts.GetByID(ctx, postID); err != nil {
		respondRepoError(c, err, "post")
		return
	}

	comment := &models.Comment{PostID: postID, UserID: userID, Content: req.Content}
	if err := h.comments.Create(ctx, comment); err != nil {
		respondRepoError(c, err, "comment")
		return
	}

	metrics.RecordCommentCreated()
	logger.Log.Info("Comment created",
		logger.WithUserID(userID),
		logger.WithPostID(postID),
		logger.WithCommentID(comment.ID),
	)

	h.notifier.CommentCreated(websocket.CommentPayload{
		CommentID: comment.ID,
		PostID:    postID,
		UserID:    userID,
		Username:  comment.User.Username,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
	h.publishPostStats(ctx, postID)

	c.JSON(http.StatusCreated, comment.WithStats(models.CommentStats{}))
}

// GetComments lists a post's comments newest first
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")
	if _, err := h.posts.GetByID(ctx, postID); err != nil {
		respondRepoError(c, err, "post")
		return
	}

	limit, offset := util.ParsePagination(c, defaultCommentLimit, maxCommentLimit)
	comments, total, err := h.comments.ListByPost(ctx, postID, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		util.RespondError(c, err, "failed to list comments")
		return
	}

	withStats, err := h.commentsWithStats(ctx, comments, util.GetViewerID(c))
	if err != nil {
		util.RespondError(c, err, "failed to load comment stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": withStats,
		"meta": gin.H{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetComment returns one comment with stats
// GET /api/v1/comments/:id
func (h *Handlers) GetComment(c *gin.Context) {
	ctx := c.Request.Context()
	comment, err := h.comments.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondRepoError(c, err, "comment")
		return
	}

	withStats, err := h.commentsWithStats(ctx, []models.Comment{*comment}, util.GetViewerID(c))
	if err != nil {
		util.RespondError(c, err, "failed to load comment stats")
		return
	}
	out := withStats[0]
	out.Post = &models.PostRef{ID: comment.Post.ID, Title: comment.Post.Title}
	c.JSON(http.StatusOK, out)
}

// DeleteComment removes the caller's own comment with its votes and likes
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	commentID := c.Param("id")
	comment, err := h.comments.GetByID(ctx, commentID)
	if err != nil {
		respondRepoError(c, err, "comment")
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "only the author can delete this comment")
		return
	}

	if err := h.comments.Delete(ctx, commentID); err != nil {
		respondRepoError(c, err, "comment")
		return
	}

	logger.Log.Info("Comment deleted", logger.WithUserID(userID), logger.WithCommentID(commentID))

	h.publishPostStats(ctx, comment.PostID)
	h.refreshKarma(ctx, comment.UserID)

	c.Status(http.StatusNoContent)
}
