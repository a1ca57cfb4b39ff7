// Package karma computes user reputation from the votes on their content.
//
// A user's karma is (post UP - post DOWN) + (comment UP - comment DOWN),
// always derived from vote rows. users.karma_score holds the last computed
// snapshot and is refreshed after vote changes.
package karma

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackup/backend/internal/cache"
	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/metrics"
	"github.com/hackup/backend/internal/models"
	"github.com/hackup/backend/internal/repository"
	"github.com/hackup/backend/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	MaxBatchSize            = 100

	cachePrefix = "karma"
)

// Breakdown holds the four vote counts karma is derived from
type Breakdown struct {
	PostUpVotes      int64 `json:"post_up_votes"`
	PostDownVotes    int64 `json:"post_down_votes"`
	CommentUpVotes   int64 `json:"comment_up_votes"`
	CommentDownVotes int64 `json:"comment_down_votes"`
}

func (b Breakdown) PostKarma() int64    { return b.PostUpVotes - b.PostDownVotes }
func (b Breakdown) CommentKarma() int64 { return b.CommentUpVotes - b.CommentDownVotes }
func (b Breakdown) Total() int64        { return b.PostKarma() + b.CommentKarma() }

// Detail is the detailed karma view
type Detail struct {
	TotalKarma   int64     `json:"total_karma"`
	PostKarma    int64     `json:"post_karma"`
	CommentKarma int64     `json:"comment_karma"`
	Breakdown    Breakdown `json:"breakdown"`
}

// LeaderboardEntry is one ranked user
type LeaderboardEntry struct {
	Rank       int                `json:"rank"`
	User       models.UserSummary `json:"user"`
	KarmaScore int64              `json:"karma_score"`
	Formatted  Formatted          `json:"formatted"`
}

// Service computes karma scores
type Service struct {
	db    *gorm.DB
	users repository.UserRepository
	cache *cache.Manager
}

// NewService creates a karma service. cacheManager may be nil.
func NewService(db *gorm.DB, cacheManager *cache.Manager) *Service {
	return &Service{
		db:    db,
		users: repository.NewUserRepository(db),
		cache: cacheManager,
	}
}

func cacheKey(userID string) string {
	return cache.Key(cachePrefix, userID)
}

// Calculate returns the live karma for userID. Unknown users score 0.
func (s *Service) Calculate(ctx context.Context, userID string) (int64, error) {
	start := time.Now()

	var cached int64
	found, err := s.cache.GetJSON(ctx, cacheKey(userID), &cached)
	if err != nil {
		logger.Log.Debug("Karma cache read failed, using database", logger.WithUserID(userID), zap.Error(err))
	}
	if found {
		metrics.RecordKarmaCalculation("single", "cache", time.Since(start))
		return cached, nil
	}

	b, err := s.breakdown(ctx, userID)
	if err != nil {
		return 0, err
	}
	score := b.Total()
	metrics.RecordKarmaCalculation("single", "db", time.Since(start))

	if err := s.cache.SetJSON(ctx, cacheKey(userID), score); err != nil {
		logger.Log.Debug("Karma cache write failed", logger.WithUserID(userID), zap.Error(err))
	}
	return score, nil
}

// Detailed returns the karma split by posts and comments with raw counts
func (s *Service) Detailed(ctx context.Context, userID string) (*Detail, error) {
	start := time.Now()
	b, err := s.breakdown(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordKarmaCalculation("detailed", "db", time.Since(start))

	return &Detail{
		TotalKarma:   b.Total(),
		PostKarma:    b.PostKarma(),
		CommentKarma: b.CommentKarma(),
		Breakdown:    b,
	}, nil
}

// breakdown runs the four aggregate counts for one user
func (s *Service) breakdown(ctx context.Context, userID string) (Breakdown, error) {
	ctx, span := telemetry.TraceKarma(ctx, "calculate", 1)
	var b Breakdown
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	db := s.db.WithContext(ctx)
	counts := []struct {
		dst    *int64
		votes  string
		items  string
		column string
		vote   models.VoteType
	}{
		{&b.PostUpVotes, "post_votes", "posts", "post_id", models.VoteUp},
		{&b.PostDownVotes, "post_votes", "posts", "post_id", models.VoteDown},
		{&b.CommentUpVotes, "comment_votes", "comments", "comment_id", models.VoteUp},
		{&b.CommentDownVotes, "comment_votes", "comments", "comment_id", models.VoteDown},
	}
	for _, c := range counts {
		err = db.Table(c.votes).
			Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.%s", c.items, c.items, c.votes, c.column)).
			Where(c.items+".user_id = ? AND "+c.votes+".vote_type = ?", userID, c.vote).
			Count(c.dst).Error
		if err != nil {
			err = fmt.Errorf("karma count on %s: %w", c.votes, err)
			return Breakdown{}, err
		}
	}
	return b, nil
}

// CalculateMany computes karma for a batch of users with four grouped
// queries. Every requested id is present in the result.
func (s *Service) CalculateMany(ctx context.Context, userIDs []string) (map[string]int64, error) {
	ids := dedupe(userIDs)
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	start := time.Now()
	ctx, span := telemetry.TraceKarma(ctx, "batch", len(ids))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	db := s.db.WithContext(ctx)
	queries := []struct {
		votes  string
		items  string
		column string
		vote   models.VoteType
		sign   int64
	}{
		{"post_votes", "posts", "post_id", models.VoteUp, 1},
		{"post_votes", "posts", "post_id", models.VoteDown, -1},
		{"comment_votes", "comments", "comment_id", models.VoteUp, 1},
		{"comment_votes", "comments", "comment_id", models.VoteDown, -1},
	}

	for _, id := range ids {
		out[id] = 0
	}
	for _, q := range queries {
		var rows []struct {
			OwnerID string
			N       int64
		}
		err = db.Table(q.votes).
			Select(q.items+".user_id AS owner_id, COUNT(*) AS n").
			Joins(fmt.Sprintf("JOIN %s ON %s.id = %s.%s", q.items, q.items, q.votes, q.column)).
			Where(q.items+".user_id IN ? AND "+q.votes+".vote_type = ?", ids, q.vote).
			Group(q.items + ".user_id").
			Scan(&rows).Error
		if err != nil {
			err = fmt.Errorf("karma batch on %s: %w", q.votes, err)
			return nil, err
		}
		for _, row := range rows {
			out[row.OwnerID] += q.sign * row.N
		}
	}

	metrics.RecordKarmaCalculation("batch", "db", time.Since(start))
	return out, nil
}

// Refresh recomputes karma from votes, persists the snapshot and drops the
// cached value. Missing users are ignored.
func (s *Service) Refresh(ctx context.Context, userID string) (int64, error) {
	b, err := s.breakdown(ctx, userID)
	if err != nil {
		return 0, err
	}
	score := b.Total()

	if err := s.users.UpdateKarmaScore(ctx, userID, score); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("persist karma: %w", err)
	}
	if err := s.cache.Invalidate(ctx, cacheKey(userID)); err != nil {
		logger.Log.Warn("Failed to invalidate karma cache", logger.WithUserID(userID), zap.Error(err))
	}

	logger.Log.Debug("Karma refreshed", logger.WithUserID(userID), zap.Int64("karma", score))
	return score, nil
}

// RefreshMany refreshes each user and returns the new scores
func (s *Service) RefreshMany(ctx context.Context, userIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(userIDs))
	for _, id := range dedupe(userIDs) {
		score, err := s.Refresh(ctx, id)
		if err != nil {
			return out, err
		}
		out[id] = score
	}
	return out, nil
}

const leaderboardQuery = `
SELECT u.id, u.username, u.icon_url,
       COALESCE(pk.score, 0) + COALESCE(ck.score, 0) AS karma
FROM users u
LEFT JOIN (
    SELECT p.user_id AS owner_id,
           SUM(CASE WHEN v.vote_type = 'UP' THEN 1 ELSE -1 END) AS score
    FROM post_votes v JOIN posts p ON p.id = v.post_id
    GROUP BY p.user_id
) pk ON pk.owner_id = u.id
LEFT JOIN (
    SELECT c.user_id AS owner_id,
           SUM(CASE WHEN v.vote_type = 'UP' THEN 1 ELSE -1 END) AS score
    FROM comment_votes v JOIN comments c ON c.id = v.comment_id
    GROUP BY c.user_id
) ck ON ck.owner_id = u.id
ORDER BY karma DESC, u.username ASC, u.id ASC
LIMIT ?`

// Leaderboard ranks users by live karma. Ties break by username then id.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	start := time.Now()
	ctx, span := telemetry.TraceKarma(ctx, "leaderboard", limit)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var rows []struct {
		ID       string
		Username string
		IconURL  string
		Karma    int64
	}
	if err = s.db.WithContext(ctx).Raw(leaderboardQuery, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	metrics.RecordKarmaCalculation("leaderboard", "db", time.Since(start))

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			User:       models.UserSummary{ID: row.ID, Username: row.Username, IconURL: row.IconURL},
			KarmaScore: row.Karma,
			Formatted:  Format(row.Karma),
		})
	}
	return entries, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
