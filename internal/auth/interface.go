package auth

import (
	"context"

	"github.com/hackup/backend/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
// Middleware and the websocket handshake depend on it so tests can swap in MockAuthService.
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)

	// ValidateToken parses a bearer token and loads its user
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
