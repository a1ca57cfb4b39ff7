package karma

import (
	"context"
	"testing"
	"time"

	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type KarmaSuite struct {
	suite.Suite
	db    *gorm.DB
	ctx   context.Context
	store *cache.MemoryStore
	svc   *Service

	alice, bob, carol *models.User
}

func TestKarmaSuite(t *testing.T) {
	suite.Run(t, new(KarmaSuite))
}

func (s *KarmaSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.ctx = context.Background()
	s.store = cache.NewMemoryStore()
	s.svc = NewService(s.db, cache.NewManager(s.store, "karma", time.Minute))

	s.alice = testutil.CreateUser(s.T(), s.db, "alice")
	s.bob = testutil.CreateUser(s.T(), s.db, "bob")
	s.carol = testutil.CreateUser(s.T(), s.db, "carol")
}

// seed gives alice +2 on a post, -1 on another, and +1 -2 on a comment
func (s *KarmaSuite) seed() {
	p1 := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Alice tip one")
	p2 := testutil.CreatePost(s.T(), s.db, s.alice.ID, "Alice tip two")
	bp := testutil.CreatePost(s.T(), s.db, s.bob.ID, "Bob tip")
	c := testutil.CreateComment(s.T(), s.db, bp.ID, s.alice.ID, "alice comment")

	testutil.VotePost(s.T(), s.db, p1.ID, s.bob.ID, models.VoteUp)
	testutil.VotePost(s.T(), s.db, p1.ID, s.carol.ID, models.VoteUp)
	testutil.VotePost(s.T(), s.db, p2.ID, s.bob.ID, models.VoteDown)
	testutil.VoteComment(s.T(), s.db, c.ID, s.bob.ID, models.VoteDown)
	testutil.VoteComment(s.T(), s.db, c.ID, s.carol.ID, models.VoteDown)
	testutil.VoteComment(s.T(), s.db, c.ID, s.alice.ID, models.VoteUp)

	testutil.VotePost(s.T(), s.db, bp.ID, s.alice.ID, models.VoteUp)
}

func (s *KarmaSuite) TestCalculate() {
	s.seed()

	score, err := s.svc.Calculate(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), score, "(2-1) + (1-2)")

	score, err = s.svc.Calculate(s.ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), score)
}

func (s *KarmaSuite) TestCalculateNoContentAndUnknownUser() {
	score, err := s.svc.Calculate(s.ctx, s.carol.ID)
	s.Require().NoError(err)
	s.Zero(score)

	score, err = s.svc.Calculate(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Zero(score)
}

func (s *KarmaSuite) TestDetailed() {
	s.seed()

	d, err := s.svc.Detailed(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), d.Breakdown.PostUpVotes)
	s.Equal(int64(1), d.Breakdown.PostDownVotes)
	s.Equal(int64(1), d.Breakdown.CommentUpVotes)
	s.Equal(int64(2), d.Breakdown.CommentDownVotes)
	s.Equal(int64(1), d.PostKarma)
	s.Equal(int64(-1), d.CommentKarma)
	s.Equal(int64(0), d.TotalKarma)
}

func (s *KarmaSuite) TestNegativeKarmaHasNoFloor() {
	p := testutil.CreatePost(s.T(), s.db, s.carol.ID, "Bad tip")
	testutil.VotePost(s.T(), s.db, p.ID, s.alice.ID, models.VoteDown)
	testutil.VotePost(s.T(), s.db, p.ID, s.bob.ID, models.VoteDown)

	score, err := s.svc.Calculate(s.ctx, s.carol.ID)
	s.Require().NoError(err)
	s.Equal(int64(-2), score)
}

func (s *KarmaSuite) TestCalculateManyMatchesSingle() {
	s.seed()

	ids := []string{s.alice.ID, s.bob.ID, s.carol.ID, s.bob.ID, "ghost"}
	scores, err := s.svc.CalculateMany(s.ctx, ids)
	s.Require().NoError(err)
	s.Len(scores, 4)

	for _, id := range []string{s.alice.ID, s.bob.ID, s.carol.ID, "ghost"} {
		single, err := s.svc.Calculate(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(single, scores[id], id)
	}
}

func (s *KarmaSuite) TestCacheServesUntilRefresh() {
	p := testutil.CreatePost(s.T(), s.db, s.carol.ID, "Cached tip")
	testutil.VotePost(s.T(), s.db, p.ID, s.alice.ID, models.VoteUp)

	score, err := s.svc.Calculate(s.ctx, s.carol.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), score)

	// a vote written behind the service is not visible through the cache
	testutil.VotePost(s.T(), s.db, p.ID, s.bob.ID, models.VoteUp)
	score, err = s.svc.Calculate(s.ctx, s.carol.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), score)

	refreshed, err := s.svc.Refresh(s.ctx, s.carol.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), refreshed)

	score, err = s.svc.Calculate(s.ctx, s.carol.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), score)

	var u models.User
	s.Require().NoError(s.db.First(&u, "id = ?", s.carol.ID).Error)
	s.Equal(int64(2), u.KarmaScore)
}

func (s *KarmaSuite) TestWorksWithoutCache() {
	svc := NewService(s.db, nil)
	s.seed()
	score, err := svc.Calculate(s.ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), score)

	_, err = svc.Refresh(s.ctx, "ghost")
	s.NoError(err)
}

func (s *KarmaSuite) TestRefreshMany() {
	s.seed()
	scores, err := s.svc.RefreshMany(s.ctx, []string{s.alice.ID, s.bob.ID, s.alice.ID})
	s.Require().NoError(err)
	s.Equal(map[string]int64{s.alice.ID: 0, s.bob.ID: 1}, scores)
}

func (s *KarmaSuite) TestLeaderboardOrdering() {
	s.seed()
	dave := testutil.CreateUser(s.T(), s.db, "aaron")
	p := testutil.CreatePost(s.T(), s.db, dave.ID, "Aaron tip")
	testutil.VotePost(s.T(), s.db, p.ID, s.carol.ID, models.VoteUp)

	board, err := s.svc.Leaderboard(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(board, 4)

	// aaron and bob tie at 1 and sort by username; alice and carol tie at 0
	s.Equal("aaron", board[0].User.Username)
	s.Equal("bob", board[1].User.Username)
	s.Equal("alice", board[2].User.Username)
	s.Equal("carol", board[3].User.Username)
	s.Equal(1, board[0].Rank)
	s.Equal(4, board[3].Rank)
	s.Equal(int64(1), board[0].KarmaScore)
	s.Equal("+1", board[0].Formatted.Display)

	top, err := s.svc.Leaderboard(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(top, 1)
}
