package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/errors"
	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/util"
)

// GetKarmaScore returns a user's live karma with display formatting
// GET /api/v1/karma-score?userId=&detailed=
func (h *Handlers) GetKarmaScore(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		apiErr := errors.BadRequest("userId is required")
		apiErr.Field = "userId"
		util.RespondWithAPIError(c, apiErr)
		return
	}

	ctx := c.Request.Context()
	if util.ParseBool(c.Query("detailed")) {
		detail, err := h.karma.Detailed(ctx, userID)
		if err != nil {
			util.RespondError(c, err, "failed to calculate karma")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":     userID,
			"karma_score": detail.TotalKarma,
			"formatted":   karma.Format(detail.TotalKarma),
			"details":     detail,
		})
		return
	}

	score, err := h.karma.Calculate(ctx, userID)
	if err != nil {
		util.RespondError(c, err, "failed to calculate karma")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"karma_score": score,
		"formatted":   karma.Format(score),
	})
}

// BatchKarmaScores computes karma for up to 100 users in one call
// POST /api/v1/karma-score/batch
func (h *Handlers) BatchKarmaScores(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required,min=1,max=100,dive,required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	scores, err := h.karma.CalculateMany(c.Request.Context(), req.UserIDs)
	if err != nil {
		util.RespondError(c, err, "failed to calculate karma")
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": scores})
}

// GetLeaderboard ranks users by live karma
// GET /api/v1/karma/leaderboard?limit=
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), karma.DefaultLeaderboardLimit),
		karma.DefaultLeaderboardLimit, karma.MaxLeaderboardLimit)

	entries, err := h.karma.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		util.RespondError(c, err, "failed to load leaderboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": entries})
}
