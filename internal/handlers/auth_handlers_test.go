package handlers

import (
	"net/http"

	"github.com/hackup/backend/internal/auth"
	"github.com/hackup/backend/internal/models"
)

func (s *HandlersTestSuite) TestRegister() {
	body := map[string]string{
		"email":    "dana@example.com",
		"username": "dana",
		"password": "correct-horse",
	}
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp auth.AuthResponse
	decode(s.T(), w, &resp)
	s.Equal("dana", resp.User.Username)
	s.NotEmpty(resp.Token)

	w = s.request(http.MethodPost, "/api/v1/auth/register", "", body)
	s.Equal(http.StatusConflict, w.Code)

	s.authSvc.RegisterFunc = func(auth.RegisterRequest) (*auth.AuthResponse, error) {
		return nil, auth.ErrUsernameExists
	}
	body["email"] = "other@example.com"
	w = s.request(http.MethodPost, "/api/v1/auth/register", "", body)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("CONFLICT", s.errorCode(w))

	w = s.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "bad", "username": "x", "password": "short"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestRegisterTrimsUsernameBeforeLengthCheck() {
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "pad@example.com",
		"username": "  ab  ",
		"password": "correct-horse",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code, w.Body.String())
	s.Equal("VALIDATION_ERROR", s.errorCode(w))

	var body struct {
		Field string `json:"field"`
	}
	decode(s.T(), w, &body)
	s.Equal("username", body.Field)
}

func (s *HandlersTestSuite) TestLogin() {
	s.authSvc.AddUser(&models.User{ID: s.alice.ID, Email: s.alice.Email, Username: s.alice.Username})

	w := s.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    s.alice.Email,
		"password": "whatever-it-is",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp auth.AuthResponse
	decode(s.T(), w, &resp)
	s.Equal(auth.MockToken(s.alice), resp.Token)

	w = s.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever-it-is",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHORIZED", s.errorCode(w))
}

func (s *HandlersTestSuite) TestMe() {
	w := s.request(http.MethodGet, "/api/v1/auth/me", s.bob.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var user models.User
	decode(s.T(), w, &user)
	s.Equal("bob", user.Username)

	w = s.request(http.MethodGet, "/api/v1/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}
