package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/storage"
	"github.com/hackup/backend/internal/util"
	"go.uber.org/zap"
)

// UserProfile is the public view of a user with live karma
type UserProfile struct {
	ID         string          `json:"id"`
	Username   string          `json:"username"`
	IconURL    string          `json:"icon_url"`
	CreatedAt  time.Time       `json:"created_at"`
	KarmaScore int64           `json:"karma_score"`
	Formatted  karma.Formatted `json:"formatted"`
	PostCount  int64           `json:"post_count"`
}

// GetUserProfile returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUserProfile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondRepoError(c, err, "user")
		return
	}

	score, err := h.karma.Calculate(ctx, user.ID)
	if err != nil {
		util.RespondError(c, err, "failed to calculate karma")
		return
	}

	_, postCount, err := h.posts.ListByUser(ctx, user.ID, repository.Page{Limit: 1})
	if err != nil {
		util.RespondError(c, err, "failed to count posts")
		return
	}

	c.JSON(http.StatusOK, UserProfile{
		ID:         user.ID,
		Username:   user.Username,
		IconURL:    user.IconURL,
		CreatedAt:  user.CreatedAt,
		KarmaScore: score,
		Formatted:  karma.Format(score),
		PostCount:  postCount,
	})
}

// UpdateMyProfile changes the caller's username and/or icon URL
// PUT /api/v1/users/me
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Username *string `json:"username" binding:"omitempty,min=3,max=30"`
		IconURL  *string `json:"icon_url" binding:"omitempty,url"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if !models.ValidUsername(username) {
			util.RespondValidationError(c, "username", "username must be between 3 and 30 characters")
			return
		}
		// the unique index is case-sensitive on postgres
		if existing, err := h.users.GetByUsername(ctx, username); err == nil && existing.ID != userID {
			util.RespondConflict(c, "username")
			return
		}
		req.Username = &username
	}

	user, err := h.users.Update(ctx, userID, repository.UserUpdate{
		Username: req.Username,
		IconURL:  req.IconURL,
	})
	if err != nil {
		respondRepoError(c, err, "username")
		return
	}

	logger.Log.Info("Profile updated", logger.WithUserID(userID))
	c.JSON(http.StatusOK, user)
}

// UploadIcon stores a new icon image for the caller and points icon_url at it
// POST /api/v1/users/me/icon
func (h *Handlers) UploadIcon(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		util.RespondServiceUnavailable(c, "icon storage")
		return
	}

	header, err := c.FormFile("icon")
	if err != nil {
		util.RespondBadRequest(c, "icon file is required")
		return
	}
	if !storage.IsSupportedImage(header.Filename) {
		util.RespondBadRequest(c, "icon must be a jpg, png, gif or webp image")
		return
	}
	if header.Size > storage.MaxIconSize {
		util.RespondBadRequest(c, "icon must be 5MB or smaller")
		return
	}

	file, err := header.Open()
	if err != nil {
		util.RespondBadRequest(c, "failed to read icon")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxIconSize+1))
	if err != nil {
		util.RespondBadRequest(c, "failed to read icon")
		return
	}
	if len(data) > storage.MaxIconSize {
		util.RespondBadRequest(c, "icon must be 5MB or smaller")
		return
	}

	ctx := c.Request.Context()
	current, err := h.users.GetByID(ctx, userID)
	if err != nil {
		respondRepoError(c, err, "user")
		return
	}

	result, err := h.uploader.UploadIcon(ctx, data, userID, header.Filename)
	if err != nil {
		util.RespondError(c, err, "failed to upload icon")
		return
	}

	user, err := h.users.Update(ctx, userID, repository.UserUpdate{IconURL: &result.URL})
	if err != nil {
		respondRepoError(c, err, "user")
		return
	}

	if current.IconURL != "" && current.IconURL != result.URL {
		if err := h.uploader.DeleteIcon(ctx, current.IconURL); err != nil {
			logger.Log.Warn("Failed to delete previous icon", logger.WithUserID(userID), zap.Error(err))
		}
	}

	logger.Log.Info("Icon uploaded", logger.WithUserID(userID), zap.String("key", result.Key), zap.Int64("size", result.Size))
	c.JSON(http.StatusOK, gin.H{
		"icon_url": result.URL,
		"user":     user,
	})
}
