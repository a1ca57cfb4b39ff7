package handlers

import (
	"net/http"

	"github.com/hackup/backend/internal/karma"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/testutil"
)

func (s *HandlersTestSuite) TestGetKarmaScore() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Karma source")
	testutil.VotePost(s.T(), s.db, post.ID, s.bob.ID, models.VoteUp)
	comment := testutil.CreateComment(s.T(), s.db, post.ID, s.alice.ID, "reply")
	testutil.VoteComment(s.T(), s.db, comment.ID, s.bob.ID, models.VoteUp)

	w := s.request(http.MethodGet, "/api/v1/karma-score?userId="+s.alice.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		UserID     string          `json:"user_id"`
		KarmaScore int64           `json:"karma_score"`
		Formatted  karma.Formatted `json:"formatted"`
		Details    *karma.Detail   `json:"details"`
	}
	decode(s.T(), w, &resp)
	s.Equal(int64(2), resp.KarmaScore)
	s.Equal("+2", resp.Formatted.Display)
	s.Nil(resp.Details)

	w = s.request(http.MethodGet, "/api/v1/karma-score?userId="+s.alice.ID+"&detailed=true", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	decode(s.T(), w, &resp)
	s.Require().NotNil(resp.Details)
	s.Equal(int64(1), resp.Details.PostKarma)
	s.Equal(int64(1), resp.Details.CommentKarma)
	s.Equal(int64(1), resp.Details.Breakdown.CommentUpVotes)

	// unknown users simply have no votes
	w = s.request(http.MethodGet, "/api/v1/karma-score?userId=ghost", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp.Details = nil
	decode(s.T(), w, &resp)
	s.Zero(resp.KarmaScore)
}

func (s *HandlersTestSuite) TestGetKarmaScoreRequiresUserID() {
	w := s.request(http.MethodGet, "/api/v1/karma-score", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("BAD_REQUEST", s.errorCode(w))
}

func (s *HandlersTestSuite) TestBatchKarmaScores() {
	post := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Batch")
	testutil.VotePost(s.T(), s.db, post.ID, s.bob.ID, models.VoteDown)

	w := s.request(http.MethodPost, "/api/v1/karma-score/batch", "", map[string][]string{
		"user_ids": {s.alice.ID, s.bob.ID},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Scores map[string]int64 `json:"scores"`
	}
	decode(s.T(), w, &resp)
	s.Equal(int64(-1), resp.Scores[s.alice.ID])
	s.Equal(int64(0), resp.Scores[s.bob.ID])

	w = s.request(http.MethodPost, "/api/v1/karma-score/batch", "", map[string][]string{"user_ids": {}})
	s.Equal(http.StatusBadRequest, w.Code)

	tooMany := make([]string, karma.MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = "u"
	}
	w = s.request(http.MethodPost, "/api/v1/karma-score/batch", "", map[string][]string{"user_ids": tooMany})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestLeaderboardOrdering() {
	carol := testutil.CreateUser(s.T(), s.db, "carol")
	bobPost := testutil.CreatePost(s.T(), s.db, s.bob.ID, "Bob tip")
	testutil.VotePost(s.T(), s.db, bobPost.ID, s.alice.ID, models.VoteUp)
	testutil.VotePost(s.T(), s.db, bobPost.ID, carol.ID, models.VoteUp)
	carolPost := testutil.CreatePost(s.T(), s.db, carol.ID, "Carol tip")
	testutil.VotePost(s.T(), s.db, carolPost.ID, s.alice.ID, models.VoteDown)

	w := s.request(http.MethodGet, "/api/v1/karma/leaderboard?limit=2", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Users []karma.LeaderboardEntry `json:"users"`
	}
	decode(s.T(), w, &resp)
	s.Require().Len(resp.Users, 2)
	s.Equal("bob", resp.Users[0].User.Username)
	s.Equal(int64(2), resp.Users[0].KarmaScore)
	s.Equal(1, resp.Users[0].Rank)
	s.Equal("alice", resp.Users[1].User.Username)
	s.Equal(2, resp.Users[1].Rank)
}
