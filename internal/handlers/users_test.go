package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/testutil"
)

func (s *HandlersTestSuite) uploadIcon(userID, filename string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("icon", filename)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/icon", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) TestGetUserProfile() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Profile post")
	testutil.VotePost(s.T(), s.db, post.ID, s.bob.ID, models.VoteUp)
	comment := testutil.CreateComment(s.T(), s.db, post.ID, s.alice.ID, "own comment")
	testutil.VoteComment(s.T(), s.db, comment.ID, s.bob.ID, models.VoteDown)
	carol := testutil.CreateUser(s.T(), s.db, "carol")
	testutil.VotePost(s.T(), s.db, post.ID, carol.ID, models.VoteUp)

	w := s.request(http.MethodGet, "/api/v1/users/"+s.alice.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var profile UserProfile
	decode(s.T(), w, &profile)
	s.Equal("alice", profile.Username)
	s.Equal(int64(1), profile.KarmaScore)
	s.Equal("+1", profile.Formatted.Display)
	s.Equal(karma.BandPositive, profile.Formatted.Band)
	s.Equal(int64(1), profile.PostCount)

	w = s.request(http.MethodGet, "/api/v1/users/nobody", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestUpdateMyProfile() {
	w := s.request(http.MethodPut, "/api/v1/users/me", s.alice.ID, map[string]string{"username": "  alice_hacks "})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var user models.User
	decode(s.T(), w, &user)
	s.Equal("alice_hacks", user.Username)

	w = s.request(http.MethodPut, "/api/v1/users/me", s.alice.ID, map[string]string{"username": "bob"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.request(http.MethodPut, "/api/v1/users/me", s.alice.ID, map[string]string{"icon_url": "not a url"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPut, "/api/v1/users/me", s.alice.ID, map[string]string{"username": " ab  "})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	// two runes but four bytes once the padding is gone
	w = s.request(http.MethodPut, "/api/v1/users/me", s.alice.ID, map[string]string{"username": " éé "})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(w))

	w = s.request(http.MethodPut, "/api/v1/users/me", s.alice.ID, map[string]string{"username": strings.Repeat("é", 30)})
	s.Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestUploadIcon() {
	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", s.alice.ID).
		Update("icon_url", "https://cdn.test/icons/old.png").Error)

	w := s.uploadIcon(s.alice.ID, "me.png", []byte("\x89PNG fake image"))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		IconURL string      `json:"icon_url"`
		User    models.User `json:"user"`
	}
	decode(s.T(), w, &resp)
	s.Equal("https://cdn.test/icons/"+s.alice.ID+"/me.png", resp.IconURL)
	s.Equal(resp.IconURL, resp.User.IconURL)
	s.Len(s.uploader.uploads, 1)
	s.Equal([]string{"https://cdn.test/icons/old.png"}, s.uploader.deleted)

	w = s.uploadIcon(s.alice.ID, "notes.txt", []byte("plain text"))
	s.Equal(http.StatusBadRequest, w.Code)

	s.handlers.SetIconUploader(nil)
	w = s.uploadIcon(s.alice.ID, "me.png", []byte("\x89PNG"))
	s.Equal(http.StatusServiceUnavailable, w.Code)
}
