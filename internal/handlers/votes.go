package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/telemetry"
	"github.com/hackup/backend/internal/util"
	"go.uber.org/zap"
)

// subject is the post or comment a vote or like route points at
type subject struct {
	target  repository.VoteTarget
	itemID  string
	ownerID string
	postID  string
}

// loadSubject resolves :id for target, answering 404 when it does not exist
func (h *Handlers) loadSubject(c *gin.Context, target repository.VoteTarget) (*subject, bool) {
	ctx := c.Request.Context()
	id := c.Param("id")

	switch target {
	case repository.TargetPost:
		post, err := h.posts.GetByID(ctx, id)
		if err != nil {
			respondRepoError(c, err, "post")
			return nil, false
		}
		return &subject{target: target, itemID: post.ID, ownerID: post.UserID, postID: post.ID}, true
	case repository.TargetComment:
		comment, err := h.comments.GetByID(ctx, id)
		if err != nil {
			respondRepoError(c, err, "comment")
			return nil, false
		}
		return &subject{target: target, itemID: comment.ID, ownerID: comment.UserID, postID: comment.PostID}, true
	}

	util.RespondBadRequest(c, "unknown target")
	return nil, false
}

// publishStats broadcasts fresh counters for the subject
func (h *Handlers) publishStats(ctx context.Context, s *subject) {
	if s.target == repository.TargetComment {
		h.publishCommentStats(ctx, s.itemID, s.postID)
		return
	}
	h.publishPostStats(ctx, s.itemID)
}

type voteRequest struct {
	VoteType models.VoteType `json:"vote_type" binding:"required,oneof=UP DOWN"`
}

// VoteResponse is returned by the toggle and set vote routes
type VoteResponse struct {
	Action    repository.VoteAction `json:"action"`
	UserVote  *models.VoteType      `json:"user_vote"`
	UpVotes   int64                 `json:"up_votes"`
	DownVotes int64                 `json:"down_votes"`
}

// ToggleVote returns a handler that toggles the caller's vote: repeating
// the current type clears it, anything else sets it
// POST /api/v1/posts/:id/vote, POST /api/v1/comments/:id/vote
func (h *Handlers) ToggleVote(target repository.VoteTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			return
		}
		var req voteRequest
		if !bindJSON(c, &req) {
			return
		}
		s, ok := h.loadSubject(c, target)
		if !ok {
			return
		}

		ctx, span := telemetry.TraceVote(c.Request.Context(), string(target), s.itemID, string(req.VoteType), "toggle")
		result, err := h.votes.Toggle(ctx, target, s.itemID, userID, req.VoteType)
		telemetry.EndSpan(span, err)
		if err != nil {
			respondRepoError(c, err, "vote")
			return
		}

		h.respondVote(c, s, userID, req.VoteType, result.Action, result.Vote)
	}
}

// SetVote returns a handler that replaces the caller's vote with the given type
// PUT /api/v1/posts/:id/vote, PUT /api/v1/comments/:id/vote
func (h *Handlers) SetVote(target repository.VoteTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			return
		}
		var req voteRequest
		if !bindJSON(c, &req) {
			return
		}
		s, ok := h.loadSubject(c, target)
		if !ok {
			return
		}

		ctx, span := telemetry.TraceVote(c.Request.Context(), string(target), s.itemID, string(req.VoteType), "set")
		previous, err := h.votes.Get(ctx, target, s.itemID, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			telemetry.EndSpan(span, err)
			respondRepoError(c, err, "vote")
			return
		}
		vote, err := h.votes.Set(ctx, target, s.itemID, userID, req.VoteType)
		telemetry.EndSpan(span, err)
		if err != nil {
			respondRepoError(c, err, "vote")
			return
		}

		action := repository.VoteCreated
		if previous != nil {
			action = repository.VoteChanged
		}
		h.respondVote(c, s, userID, req.VoteType, action, vote.VoteType.Ptr())
	}
}

// ClearVote returns a handler that removes the caller's vote
// DELETE /api/v1/posts/:id/vote, DELETE /api/v1/comments/:id/vote
func (h *Handlers) ClearVote(target repository.VoteTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := util.GetUserIDFromContext(c)
		if !ok {
			return
		}
		s, ok := h.loadSubject(c, target)
		if !ok {
			return
		}

		ctx, span := telemetry.TraceVote(c.Request.Context(), string(target), s.itemID, "", "clear")
		removed, err := h.votes.Clear(ctx, target, s.itemID, userID)
		telemetry.EndSpan(span, err)
		if err != nil {
			respondRepoError(c, err, "vote")
			return
		}
		if !removed {
			util.RespondNotFound(c, "vote")
			return
		}

		metrics.RecordVote(string(target), "", string(repository.VoteRemoved))
		h.afterVote(ctx, s)
		c.Status(http.StatusNoContent)
	}
}

// respondVote records the mutation, fans out side effects and writes the
// resulting state with fresh counts
func (h *Handlers) respondVote(c *gin.Context, s *subject, userID string, voteType models.VoteType, action repository.VoteAction, userVote *models.VoteType) {
	ctx := c.Request.Context()
	metrics.RecordVote(string(s.target), string(voteType), string(action))
	logger.Log.Debug("Vote recorded",
		logger.WithUserID(userID),
		zap.String("target", string(s.target)),
		zap.String("item_id", s.itemID),
		zap.String("action", string(action)),
	)

	up, down, err := h.votes.Counts(ctx, s.target, s.itemID)
	if err != nil {
		util.RespondError(c, err, "failed to count votes")
		return
	}
	h.afterVote(ctx, s)

	c.JSON(http.StatusOK, VoteResponse{
		Action:    action,
		UserVote:  userVote,
		UpVotes:   up,
		DownVotes: down,
	})
}

// afterVote refreshes the owner's karma and broadcasts new counters
func (h *Handlers) afterVote(ctx context.Context, s *subject) {
	h.refreshKarma(ctx, s.ownerID)
	h.publishStats(ctx, s)
}

// ListVotes returns a handler listing every vote on an item with totals
// GET /api/v1/posts/:id/votes, GET /api/v1/comments/:id/votes
func (h *Handlers) ListVotes(target repository.VoteTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.loadSubject(c, target)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		votes, err := h.votes.List(ctx, target, s.itemID)
		if err != nil {
			util.RespondError(c, err, "failed to list votes")
			return
		}

		var up, down int64
		for _, v := range votes {
			switch v.VoteType {
			case models.VoteUp:
				up++
			case models.VoteDown:
				down++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"votes":      votes,
			"up_votes":   up,
			"down_votes": down,
			"score":      up - down,
		})
	}
}
