package util

import (
	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/errors"
	"github.com/hackup/backend/internal/models"
)

// GetUserFromContext extracts the authenticated user from the Gin context.
// If the user is not authenticated, it responds with 401 Unauthorized.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok {
		RespondWithAPIError(c, errors.InternalError("invalid user data in context"))
		return nil, false
	}
	return userPtr, true
}

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it responds with 401 Unauthorized.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		RespondWithAPIError(c, errors.InternalError("invalid user ID in context"))
		return "", false
	}
	return userIDStr, true
}

// GetViewerID returns the caller's user ID on routes where auth is optional.
// Anonymous callers get "".
func GetViewerID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
