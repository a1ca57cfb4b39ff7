package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hackup/backend/internal/auth"
	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/handlers"
	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/testutil"
	"github.com/hackup/backend/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	router  *gin.Engine
	authSvc *auth.MockAuthService
	token   string
}

func newRouterFixture(t *testing.T, checks map[string]validation.Check) routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "tester")
	authSvc := auth.NewMockAuthService()
	authSvc.AddUser(user)

	validator := validation.NewServiceValidator(nil)
	for name, check := range checks {
		validator.Register(name, check)
	}

	router := newRouter(routerDeps{
		handlers:      handlers.NewHandlers(db, karma.NewService(db, nil)),
		authService:   authSvc,
		authHandlers:  handlers.NewAuthHandlers(authSvc, repository.NewUserRepository(db)),
		validator:     validator,
		responseCache: cache.NewMemoryStore(),
	})
	return routerFixture{router: router, authSvc: authSvc, token: auth.MockToken(user)}
}

func (f routerFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newRouterFixture(t, map[string]validation.Check{
		validation.ServiceDatabase: func(context.Context) error { return nil },
	})

	w := f.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Services["database"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthDegraded(t *testing.T) {
	f := newRouterFixture(t, map[string]validation.Check{
		validation.ServiceRedis: func(context.Context) error { return errors.New("connection refused") },
	})

	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.do(http.MethodGet, "/api/v1/posts", "", nil)

	w := f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAPIUsesJWTMiddleware(t *testing.T) {
	f := newRouterFixture(t, nil)
	post := map[string]string{"title": "Router wired", "content": "The full stack accepts this post."}

	w := f.do(http.MethodPost, "/api/v1/posts", "", post)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/posts", "garbage", post)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/posts", f.token, post)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Router wired")
}

func TestCORSPreflight(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/posts", nil)
	req.Header.Set("Origin", "https://hackup.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
