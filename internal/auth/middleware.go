package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/util"
	"go.uber.org/zap"
)

// TokenFromRequest reads a bearer token from the Authorization header,
// falling back to the ?token= query parameter used by websocket clients.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return strings.TrimSpace(header)
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects requests without a valid bearer token and
// stores user_id and user in the gin context.
func Middleware(svc AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			util.RespondUnauthorized(c, "missing bearer token")
			return
		}

		user, err := svc.ValidateToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.Log.Debug("Rejected bearer token", zap.Error(err), logger.WithIP(c.ClientIP()))
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalMiddleware sets the viewer when a valid bearer token is present.
// It never rejects a request.
func OptionalMiddleware(svc AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if user, err := svc.ValidateToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", user)
			}
		}
		c.Next()
	}
}
