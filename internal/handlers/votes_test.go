package handlers

import (
	"context"
	"net/http"

	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/testutil"
)

func (s *HandlersTestSuite) vote(method, path, userID string, vt models.VoteType) VoteResponse {
	w := s.request(method, path, userID, map[string]string{"vote_type": string(vt)})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp VoteResponse
	decode(s.T(), w, &resp)
	return resp
}

func (s *HandlersTestSuite) TestTogglePostVote() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Votable post")
	path := "/api/v1/posts/" + post.ID + "/vote"

	resp := s.vote(http.MethodPost, path, s.bob.ID, models.VoteUp)
	s.Equal(repository.VoteCreated, resp.Action)
	s.Require().NotNil(resp.UserVote)
	s.Equal(models.VoteUp, *resp.UserVote)
	s.Equal(int64(1), resp.UpVotes)

	resp = s.vote(http.MethodPost, path, s.bob.ID, models.VoteDown)
	s.Equal(repository.VoteChanged, resp.Action)
	s.Equal(int64(0), resp.UpVotes)
	s.Equal(int64(1), resp.DownVotes)

	resp = s.vote(http.MethodPost, path, s.bob.ID, models.VoteDown)
	s.Equal(repository.VoteRemoved, resp.Action)
	s.Nil(resp.UserVote)
	s.Zero(resp.DownVotes)

	var rows int64
	s.Require().NoError(s.db.Model(&models.PostVote{}).Count(&rows).Error)
	s.Zero(rows)
}

func (s *HandlersTestSuite) TestVoteRefreshesOwnerKarma() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Karma post")

	s.vote(http.MethodPost, "/api/v1/posts/"+post.ID+"/vote", s.bob.ID, models.VoteUp)

	var alice models.User
	s.Require().NoError(s.db.First(&alice, "id = ?", s.alice.ID).Error)
	s.Equal(int64(1), alice.KarmaScore)

	event, ok := s.notifier.lastKarma(s.alice.ID)
	s.Require().True(ok)
	s.Equal(int64(1), event.KarmaScore)
	s.Equal("+1", event.Formatted.Display)

	s.Require().NotEmpty(s.notifier.postStats)
	s.Equal(int64(1), s.notifier.postStats[len(s.notifier.postStats)-1].UpVotes)
}

func (s *HandlersTestSuite) TestSelfVoteCounts() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Self promo")

	s.vote(http.MethodPost, "/api/v1/posts/"+post.ID+"/vote", s.alice.ID, models.VoteUp)

	var alice models.User
	s.Require().NoError(s.db.First(&alice, "id = ?", s.alice.ID).Error)
	s.Equal(int64(1), alice.KarmaScore)
}

func (s *HandlersTestSuite) TestSetAndClearVote() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Set vote post")
	path := "/api/v1/posts/" + post.ID + "/vote"

	resp := s.vote(http.MethodPut, path, s.bob.ID, models.VoteUp)
	s.Equal(repository.VoteCreated, resp.Action)

	// setting the same type again keeps the vote instead of toggling it off
	resp = s.vote(http.MethodPut, path, s.bob.ID, models.VoteUp)
	s.Equal(repository.VoteChanged, resp.Action)
	s.Equal(int64(1), resp.UpVotes)

	w := s.request(http.MethodDelete, path, s.bob.ID, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.request(http.MethodDelete, path, s.bob.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestVoteValidation() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Strict post")

	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/vote", s.bob.ID, map[string]string{"vote_type": "SIDEWAYS"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("BAD_REQUEST", s.errorCode(w))

	w = s.request(http.MethodPost, "/api/v1/posts/missing/vote", s.bob.ID, map[string]string{"vote_type": "UP"})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.request(http.MethodPost, "/api/v1/comments/missing/vote", s.bob.ID, map[string]string{"vote_type": "UP"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestCommentVotesAndList() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Thread")
	comment := testutil.CreateComment(s.T(), s.db, post.ID, s.bob.ID, "first")
	path := "/api/v1/comments/" + comment.ID + "/vote"

	s.vote(http.MethodPost, path, s.alice.ID, models.VoteDown)
	carol := testutil.CreateUser(s.T(), s.db, "carol")
	s.vote(http.MethodPost, path, carol.ID, models.VoteDown)

	var bob models.User
	s.Require().NoError(s.db.First(&bob, "id = ?", s.bob.ID).Error)
	s.Equal(int64(-2), bob.KarmaScore)
	s.Require().NotEmpty(s.notifier.commentStats)
	last := s.notifier.commentStats[len(s.notifier.commentStats)-1]
	s.Equal(post.ID, last.PostID)
	s.Equal(int64(2), last.DownVotes)

	w := s.request(http.MethodGet, "/api/v1/comments/"+comment.ID+"/votes", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Votes     []repository.Vote `json:"votes"`
		UpVotes   int64             `json:"up_votes"`
		DownVotes int64             `json:"down_votes"`
		Score     int64             `json:"score"`
	}
	decode(s.T(), w, &list)
	s.Len(list.Votes, 2)
	s.Equal(int64(2), list.DownVotes)
	s.Equal(int64(-2), list.Score)
}

func (s *HandlersTestSuite) TestVoteInvalidatesCachedLeaderboard() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Leader post")

	w := s.request(http.MethodGet, "/api/v1/karma/leaderboard", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("MISS", w.Header().Get("X-Cache"))
	w = s.request(http.MethodGet, "/api/v1/karma/leaderboard", "", nil)
	s.Equal("HIT", w.Header().Get("X-Cache"))

	s.vote(http.MethodPost, "/api/v1/posts/"+post.ID+"/vote", s.bob.ID, models.VoteUp)
	_, err := s.store.Get(context.Background(), "response:/api/v1/karma/leaderboard")
	s.ErrorIs(err, cache.ErrMiss)

	w = s.request(http.MethodGet, "/api/v1/karma/leaderboard", "", nil)
	s.Equal("MISS", w.Header().Get("X-Cache"))
	var board struct {
		Users []struct {
			Rank       int   `json:"rank"`
			KarmaScore int64 `json:"karma_score"`
			User       struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"users"`
	}
	decode(s.T(), w, &board)
	s.Require().NotEmpty(board.Users)
	s.Equal("alice", board.Users[0].User.Username)
	s.Equal(int64(1), board.Users[0].KarmaScore)
}
