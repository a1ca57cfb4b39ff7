package handlers

import (
	"net/http"
	"time"

	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/testutil"
)

type likeResponse struct {
	Message   string `json:"message"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

func (s *HandlersTestSuite) TestLikeAndUnlikePost() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Likeable")
	path := "/api/v1/posts/" + post.ID + "/like"

	w := s.request(http.MethodPost, path, s.bob.ID, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp likeResponse
	decode(s.T(), w, &resp)
	s.True(resp.Liked)
	s.Equal(int64(1), resp.LikeCount)

	w = s.request(http.MethodPost, path, s.bob.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp = likeResponse{}
	decode(s.T(), w, &resp)
	s.Equal("already liked", resp.Message)
	s.Equal(int64(1), resp.LikeCount)

	w = s.request(http.MethodGet, "/api/v1/posts/"+post.ID+"/likes", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(s.T(), w, &list)
	s.Equal(1, list.Count)

	w = s.request(http.MethodDelete, path, s.bob.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp = likeResponse{}
	decode(s.T(), w, &resp)
	s.False(resp.Liked)
	s.Zero(resp.LikeCount)

	w = s.request(http.MethodDelete, path, s.bob.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.request(http.MethodPost, "/api/v1/posts/missing/like", s.bob.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestLikeDoesNotMoveKarma() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Liked not voted")

	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", s.bob.ID, nil)
	s.Require().Equal(http.StatusCreated, w.Code)

	var alice models.User
	s.Require().NoError(s.db.First(&alice, "id = ?", s.alice.ID).Error)
	s.Zero(alice.KarmaScore)
	_, ok := s.notifier.lastKarma(s.alice.ID)
	s.False(ok)
}

func (s *HandlersTestSuite) TestSavedPosts() {
	first := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Saved first")
	second := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Saved second")
	testutil.CreatePost(s.T(), s.db, s.alice.ID, "Never saved")

	now := time.Now()
	s.Require().NoError(s.db.Create(&models.PostLike{PostID: first.ID, UserID: s.bob.ID, CreatedAt: now.Add(-time.Hour)}).Error)
	s.Require().NoError(s.db.Create(&models.PostLike{PostID: second.ID, UserID: s.bob.ID, CreatedAt: now}).Error)

	w := s.request(http.MethodGet, "/api/v1/users/me/saved-posts", s.bob.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Posts      []SavedPost `json:"posts"`
		TotalCount int64       `json:"total_count"`
		Limit      int         `json:"limit"`
		HasMore    bool        `json:"has_more"`
	}
	decode(s.T(), w, &page)
	s.Require().Len(page.Posts, 2)
	s.Equal(second.ID, page.Posts[0].ID)
	s.Equal(first.ID, page.Posts[1].ID)
	s.True(page.Posts[0].Stats.UserLiked)
	s.False(page.Posts[0].SavedAt.IsZero())
	s.Equal(int64(2), page.TotalCount)
	s.Equal(20, page.Limit)
	s.False(page.HasMore)

	w = s.request(http.MethodGet, "/api/v1/users/me/saved-posts?limit=1", s.bob.ID, nil)
	decode(s.T(), w, &page)
	s.Len(page.Posts, 1)
	s.True(page.HasMore)

	w = s.request(http.MethodGet, "/api/v1/users/me/saved-posts?offset=9223372036854775807", s.bob.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	decode(s.T(), w, &page)
	s.Empty(page.Posts)
	s.False(page.HasMore)

	w = s.request(http.MethodGet, "/api/v1/users/me/saved-posts", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestSavedComments() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Parent post")
	comment := testutil.CreateComment(s.T(), s.db, post.ID, s.alice.ID, "bookmark me")

	w := s.request(http.MethodPost, "/api/v1/comments/"+comment.ID+"/like", s.bob.ID, nil)
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Require().NotEmpty(s.notifier.commentStats)
	s.Equal(int64(1), s.notifier.commentStats[len(s.notifier.commentStats)-1].LikeCount)

	w = s.request(http.MethodGet, "/api/v1/users/me/saved-comments", s.bob.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Comments   []models.CommentWithStats `json:"comments"`
		TotalCount int64                     `json:"total_count"`
	}
	decode(s.T(), w, &page)
	s.Require().Len(page.Comments, 1)
	s.Equal(comment.ID, page.Comments[0].ID)
	s.Require().NotNil(page.Comments[0].Post)
	s.Equal("Parent post", page.Comments[0].Post.Title)
	s.Equal(int64(1), page.TotalCount)
}
