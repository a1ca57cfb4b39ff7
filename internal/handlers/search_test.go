package handlers

import (
	"net/http"

	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/testutil"
)

type searchResponse struct {
	Posts []models.PostWithStats `json:"posts"`
	Count int                    `json:"count"`
	Query string                 `json:"query"`
}

func (s *HandlersTestSuite) TestSearchPosts() {
	testutil.CreatePost(s.T(), s.db, s.alice.ID, "Peel garlic fast")
	testutil.CreatePost(s.T(), s.db, s.bob.ID, "Untangle cables")
	testutil.CreatePost(s.T(), s.db, s.bob.ID, "Garlic press hack")

	w := s.request(http.MethodGet, "/api/v1/search?q=GARLIC", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp searchResponse
	decode(s.T(), w, &resp)
	s.Equal(2, resp.Count)
	s.Equal("GARLIC", resp.Query)
	for _, p := range resp.Posts {
		s.Contains(p.Title, "arlic")
	}

	w = s.request(http.MethodGet, "/api/v1/search?q=trick&limit=1", "", nil)
	resp = searchResponse{}
	decode(s.T(), w, &resp)
	s.Equal(1, resp.Count)

	w = s.request(http.MethodGet, "/api/v1/search?q=nothing-matches", "", nil)
	resp = searchResponse{}
	decode(s.T(), w, &resp)
	s.Zero(resp.Count)
	s.NotNil(resp.Posts)
}

func (s *HandlersTestSuite) TestSearchBlankQuery() {
	testutil.CreatePost(s.T(), s.db, s.alice.ID, "Anything")

	w := s.request(http.MethodGet, "/api/v1/search?q=%20%20", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp searchResponse
	decode(s.T(), w, &resp)
	s.Zero(resp.Count)
	s.Empty(resp.Posts)
	s.Equal("", resp.Query)
}
