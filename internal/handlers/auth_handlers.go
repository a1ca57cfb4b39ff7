package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/auth"
	"github.com/hackup/backend/internal/errors"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/util"
	"go.uber.org/zap"
)

// AuthHandlers serves registration, login and the current-user lookup
type AuthHandlers struct {
	authService auth.AuthServiceInterface
	users       repository.UserRepository
}

// NewAuthHandlers creates the auth handlers
func NewAuthHandlers(authService auth.AuthServiceInterface, users repository.UserRepository) *AuthHandlers {
	return &AuthHandlers{authService: authService, users: users}
}

// Register creates a native email/password account
// POST /api/v1/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	switch {
	case err == nil:
	case stderrors.Is(err, auth.ErrInvalidUsername):
		util.RespondValidationError(c, "username", err.Error())
		return
	case stderrors.Is(err, auth.ErrUserExists):
		apiErr := errors.Conflict("user")
		apiErr.Field = "email"
		util.RespondWithAPIError(c, apiErr)
		return
	case stderrors.Is(err, auth.ErrUsernameExists):
		apiErr := errors.Conflict("username")
		apiErr.Field = "username"
		util.RespondWithAPIError(c, apiErr)
		return
	default:
		util.RespondError(c, err, "failed to register")
		return
	}

	logger.Log.Info("User registered", logger.WithUserID(resp.User.ID), zap.String("username", resp.User.Username))
	c.JSON(http.StatusCreated, resp)
}

// Login exchanges email and password for a token
// POST /api/v1/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if stderrors.Is(err, auth.ErrInvalidCredentials) {
			util.RespondUnauthorized(c, "invalid email or password")
			return
		}
		util.RespondError(c, err, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondRepoError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}
