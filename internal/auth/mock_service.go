package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hackup/backend/internal/models"
)

const mockTokenPrefix = "mock_token_"

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is an in-memory AuthServiceInterface for tests.
// Tokens it issues have the form mock_token_<userID>.
type MockAuthService struct {
	mu sync.Mutex

	Calls []MockCall

	RegisterFunc      func(req RegisterRequest) (*AuthResponse, error)
	LoginFunc         func(req LoginRequest) (*AuthResponse, error)
	ValidateTokenFunc func(tokenString string) (*models.User, error)

	// Default error to return
	DefaultError error

	// keyed by email
	Users map[string]*models.User
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls: make([]MockCall, 0),
		Users: make(map[string]*models.User),
	}
}

// MockToken returns the token the mock accepts for user
func MockToken(user *models.User) string {
	return mockTokenPrefix + user.ID
}

func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// AddUser adds a test user to the mock service
func (m *MockAuthService) AddUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[strings.ToLower(user.Email)] = user
}

func (m *MockAuthService) respond(user *models.User) *AuthResponse {
	return &AuthResponse{
		Token:     MockToken(user),
		User:      *user,
		ExpiresAt: time.Now().Add(DefaultTokenTTL),
	}
}

func (m *MockAuthService) Register(_ context.Context, req RegisterRequest) (*AuthResponse, error) {
	m.recordCall("Register", req)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	req.Username = strings.TrimSpace(req.Username)
	if !models.ValidUsername(req.Username) {
		return nil, ErrInvalidUsername
	}

	m.mu.Lock()
	_, exists := m.Users[strings.ToLower(req.Email)]
	m.mu.Unlock()
	if exists {
		return nil, ErrUserExists
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Username: req.Username,
		IconURL:  req.IconURL,
	}
	m.AddUser(user)
	return m.respond(user), nil
}

func (m *MockAuthService) Login(_ context.Context, req LoginRequest) (*AuthResponse, error) {
	m.recordCall("Login", req)
	if m.LoginFunc != nil {
		return m.LoginFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	m.mu.Lock()
	user, exists := m.Users[strings.ToLower(req.Email)]
	m.mu.Unlock()
	if !exists {
		return nil, ErrInvalidCredentials
	}
	return m.respond(user), nil
}

func (m *MockAuthService) ValidateToken(_ context.Context, tokenString string) (*models.User, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	id := strings.TrimPrefix(tokenString, mockTokenPrefix)
	if id == tokenString {
		return nil, ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.Users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

// Ensure MockAuthService implements AuthServiceInterface
var _ AuthServiceInterface = (*MockAuthService)(nil)
