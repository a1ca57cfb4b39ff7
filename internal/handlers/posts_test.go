package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/testutil"
	"github.com/hackup/backend/internal/util"
)

type postListResponse struct {
	Posts      []models.PostWithStats `json:"posts"`
	Pagination Pagination             `json:"pagination"`
}

func (s *HandlersTestSuite) TestCreatePost() {
	w := s.request(http.MethodPost, "/api/v1/posts", s.alice.ID, map[string]string{
		"title":   "  Freeze your ginger  ",
		"content": "Frozen ginger grates into a fine snow.",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var post models.PostWithStats
	decode(s.T(), w, &post)
	s.Equal("Freeze your ginger", post.Title)
	s.Equal(s.alice.ID, post.UserID)
	s.Equal("alice", post.User.Username)
	s.Zero(post.Stats.UpVotes)
	s.Nil(post.Stats.UserVote)

	s.Equal([]string{post.ID}, s.indexer.indexed)
	s.Require().Len(s.notifier.created, 1)
	s.Equal(post.ID, s.notifier.created[0].PostID)
}

func (s *HandlersTestSuite) TestCreatePostValidation() {
	tests := []struct {
		name    string
		title   string
		content string
		status  int
	}{
		{"short title", "ab", "Long enough content here.", http.StatusBadRequest},
		{"long title", strings.Repeat("t", 51), "Long enough content here.", http.StatusBadRequest},
		{"short content", "Valid title", "too short", http.StatusBadRequest},
		{"padded title", "  a  ", "Long enough content here.", http.StatusUnprocessableEntity},
		{"padded content", "Valid title", "   tiny      ", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.request(http.MethodPost, "/api/v1/posts", s.alice.ID, map[string]string{
				"title":   tt.title,
				"content": tt.content,
			})
			s.Equal(tt.status, w.Code, w.Body.String())
		})
	}
}

func (s *HandlersTestSuite) TestCreatePostDuplicateTitle() {
	testutil.CreatePost(s.T(), s.db, s.bob.ID, "Taken title")

	w := s.request(http.MethodPost, "/api/v1/posts", s.alice.ID, map[string]string{
		"title":   "Taken title",
		"content": "Some perfectly fine content.",
	})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("CONFLICT", s.errorCode(w))
}

func (s *HandlersTestSuite) TestListPostsPaginatesNewestFirst() {
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		testutil.CreatePostAt(s.T(), s.db, s.alice.ID, fmt.Sprintf("Tip number %02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	w := s.request(http.MethodGet, "/api/v1/posts", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page postListResponse
	decode(s.T(), w, &page)
	s.Len(page.Posts, 10)
	s.Equal("Tip number 11", page.Posts[0].Title)
	s.Equal(Pagination{Limit: 10, Offset: 0, Total: 12, HasMore: true}, page.Pagination)

	w = s.request(http.MethodGet, "/api/v1/posts?limit=5&offset=10", "", nil)
	decode(s.T(), w, &page)
	s.Len(page.Posts, 2)
	s.False(page.Pagination.HasMore)

	// limit is capped and garbage falls back to the default
	w = s.request(http.MethodGet, "/api/v1/posts?limit=500&offset=-3", "", nil)
	decode(s.T(), w, &page)
	s.Equal(50, page.Pagination.Limit)
	s.Equal(0, page.Pagination.Offset)

	w = s.request(http.MethodGet, "/api/v1/posts?offset=9223372036854775807", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	decode(s.T(), w, &page)
	s.Empty(page.Posts)
	s.Equal(util.MaxOffset, page.Pagination.Offset)
	s.False(page.Pagination.HasMore)
}

func (s *HandlersTestSuite) TestGetPostIncludesViewerState() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Viewer state")
	testutil.VotePost(s.T(), s.db, post.ID, s.bob.ID, models.VoteDown)
	testutil.LikePost(s.T(), s.db, post.ID, s.bob.ID)

	w := s.request(http.MethodGet, "/api/v1/posts/"+post.ID, s.bob.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var got models.PostWithStats
	decode(s.T(), w, &got)
	s.Equal(int64(1), got.Stats.DownVotes)
	s.Equal(int64(1), got.Stats.Likes)
	s.Require().NotNil(got.Stats.UserVote)
	s.Equal(models.VoteDown, *got.Stats.UserVote)
	s.True(got.Stats.UserLiked)

	w = s.request(http.MethodGet, "/api/v1/posts/"+post.ID, "", nil)
	decode(s.T(), w, &got)
	s.Nil(got.Stats.UserVote)
	s.False(got.Stats.UserLiked)

	w = s.request(http.MethodGet, "/api/v1/posts/missing", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestUpdatePostOwnerOnly() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Original title")
	body := map[string]string{"title": "Edited title", "content": "Edited content that is long enough."}

	w := s.request(http.MethodPut, "/api/v1/posts/"+post.ID, s.bob.ID, body)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPut, "/api/v1/posts/"+post.ID, s.alice.ID, body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var got models.PostWithStats
	decode(s.T(), w, &got)
	s.Equal("Edited title", got.Title)
	s.Contains(s.indexer.indexed, post.ID)

	w = s.request(http.MethodPut, "/api/v1/posts/"+post.ID, s.alice.ID, map[string]string{"title": "x", "content": "y"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestDeletePostCascadesAndRefreshesKarma() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Doomed post")
	comment := testutil.CreateComment(s.T(), s.db, post.ID, s.bob.ID, "nice")
	testutil.VotePost(s.T(), s.db, post.ID, s.bob.ID, models.VoteUp)
	testutil.VoteComment(s.T(), s.db, comment.ID, s.alice.ID, models.VoteUp)
	s.Require().NoError(s.db.Model(&models.User{}).Where("id IN ?", []string{s.alice.ID, s.bob.ID}).
		UpdateColumn("karma_score", 1).Error)

	w := s.request(http.MethodDelete, "/api/v1/posts/"+post.ID, s.bob.ID, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/posts/"+post.ID, s.alice.ID, nil)
	s.Require().Equal(http.StatusNoContent, w.Code)

	for _, table := range []string{"posts", "comments", "post_votes", "comment_votes"} {
		var n int64
		s.Require().NoError(s.db.Table(table).Count(&n).Error)
		s.Zero(n, table)
	}

	var alice, bob models.User
	s.Require().NoError(s.db.First(&alice, "id = ?", s.alice.ID).Error)
	s.Require().NoError(s.db.First(&bob, "id = ?", s.bob.ID).Error)
	s.Zero(alice.KarmaScore)
	s.Zero(bob.KarmaScore)

	_, ok := s.notifier.lastKarma(s.bob.ID)
	s.True(ok, "comment author should be told their karma changed")
	s.Equal([]string{post.ID}, s.notifier.deleted)
	s.Equal([]string{post.ID}, s.indexer.deleted)
}

func (s *HandlersTestSuite) TestGetUserPosts() {
	testutil.CreatePost(s.T(), s.db, s.alice.ID, "Alice one")
	testutil.CreatePost(s.T(), s.db, s.bob.ID, "Bob one")

	w := s.request(http.MethodGet, "/api/v1/users/"+s.alice.ID+"/posts", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page postListResponse
	decode(s.T(), w, &page)
	s.Require().Len(page.Posts, 1)
	s.Equal("Alice one", page.Posts[0].Title)

	w = s.request(http.MethodGet, "/api/v1/users/nobody/posts", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestComments() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Commented post")

	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", s.bob.ID, map[string]string{"content": "Works great"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created models.CommentWithStats
	decode(s.T(), w, &created)
	s.Equal("bob", created.User.Username)
	s.Require().Len(s.notifier.comments, 1)
	s.Require().NotEmpty(s.notifier.postStats)
	s.Equal(int64(1), s.notifier.postStats[len(s.notifier.postStats)-1].CommentCount)

	w = s.request(http.MethodPost, "/api/v1/posts/missing/comments", s.bob.ID, map[string]string{"content": "hello"})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", s.bob.ID, map[string]string{"content": strings.Repeat("c", 501)})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Comments []models.CommentWithStats `json:"comments"`
		Meta     struct {
			Total  int64 `json:"total"`
			Limit  int   `json:"limit"`
			Offset int   `json:"offset"`
		} `json:"meta"`
	}
	decode(s.T(), w, &list)
	s.Len(list.Comments, 1)
	s.Equal(int64(1), list.Meta.Total)
	s.Equal(20, list.Meta.Limit)

	w = s.request(http.MethodGet, "/api/v1/comments/"+created.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var single models.CommentWithStats
	decode(s.T(), w, &single)
	s.Require().NotNil(single.Post)
	s.Equal("Commented post", single.Post.Title)

	w = s.request(http.MethodDelete, "/api/v1/comments/"+created.ID, s.alice.ID, nil)
	s.Equal(http.StatusForbidden, w.Code)
	w = s.request(http.MethodDelete, "/api/v1/comments/"+created.ID, s.bob.ID, nil)
	s.Equal(http.StatusNoContent, w.Code)
	w = s.request(http.MethodGet, "/api/v1/comments/"+created.ID, "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}
