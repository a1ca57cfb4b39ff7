package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hackup/backend/internal/models"
	"gorm.io/gorm"
)

// Like is the target-independent view of a like row
type Like struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPost is a post from a user's likes with the time it was saved
type SavedPost struct {
	Post    models.Post
	LikedAt time.Time
}

// SavedComment is a comment from a user's likes; Comment.Post and Comment.User are loaded
type SavedComment struct {
	Comment models.Comment
	LikedAt time.Time
}

// LikeRepository manages likes (bookmarks). A user's likes double as
// their saved lists.
type LikeRepository interface {
	Add(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error)
	Remove(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error)
	IsLiked(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error)
	Count(ctx context.Context, target VoteTarget, itemID string) (int64, error)
	List(ctx context.Context, target VoteTarget, itemID string) ([]Like, error)
	SavedPosts(ctx context.Context, userID string, page Page) ([]SavedPost, int64, error)
	SavedComments(ctx context.Context, userID string, page Page) ([]SavedComment, int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Add likes an item. Liking twice is not an error; created reports whether
// a new row was written.
func (r *likeRepository) Add(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error) {
	if err := target.check(); err != nil {
		return false, err
	}

	var row interface{}
	if target == TargetComment {
		row = &models.CommentLike{CommentID: itemID, UserID: userID}
	} else {
		row = &models.PostLike{PostID: itemID, UserID: userID}
	}

	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *likeRepository) Remove(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error) {
	if err := target.check(); err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Where(target.itemColumn()+" = ? AND user_id = ?", itemID, userID).
		Delete(target.likeModel())
	return res.RowsAffected > 0, res.Error
}

func (r *likeRepository) IsLiked(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error) {
	if err := target.check(); err != nil {
		return false, err
	}
	var n int64
	err := r.db.WithContext(ctx).Model(target.likeModel()).
		Where(target.itemColumn()+" = ? AND user_id = ?", itemID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *likeRepository) Count(ctx context.Context, target VoteTarget, itemID string) (int64, error) {
	if err := target.check(); err != nil {
		return 0, err
	}
	counts, err := countBy(r.db.WithContext(ctx), target.likeTable(), target.itemColumn(), []string{itemID})
	return counts[itemID], err
}

func (r *likeRepository) List(ctx context.Context, target VoteTarget, itemID string) ([]Like, error) {
	if err := target.check(); err != nil {
		return nil, err
	}
	likes := []Like{}
	err := r.db.WithContext(ctx).Table(target.likeTable()).
		Select("id, "+target.itemColumn()+" AS item_id, user_id, created_at").
		Where(target.itemColumn()+" = ?", itemID).
		Order("created_at DESC").Order("id ASC").
		Scan(&likes).Error
	return likes, err
}

// SavedPosts lists the posts a user liked, most recently liked first
func (r *likeRepository) SavedPosts(ctx context.Context, userID string, page Page) ([]SavedPost, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.PostLike{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var likes []models.PostLike
	q := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id ASC").
		Preload("Post.User")
	if err := page.apply(q).Find(&likes).Error; err != nil {
		return nil, 0, err
	}

	out := make([]SavedPost, 0, len(likes))
	for _, l := range likes {
		if l.Post.ID == "" {
			continue
		}
		out = append(out, SavedPost{Post: l.Post, LikedAt: l.CreatedAt})
	}
	return out, total, nil
}

// SavedComments lists the comments a user liked, each with its parent post
func (r *likeRepository) SavedComments(ctx context.Context, userID string, page Page) ([]SavedComment, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.CommentLike{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var likes []models.CommentLike
	q := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id ASC").
		Preload("Comment.User").
		Preload("Comment.Post")
	if err := page.apply(q).Find(&likes).Error; err != nil {
		return nil, 0, err
	}

	out := make([]SavedComment, 0, len(likes))
	for _, l := range likes {
		if l.Comment.ID == "" {
			continue
		}
		out = append(out, SavedComment{Comment: l.Comment, LikedAt: l.CreatedAt})
	}
	return out, total, nil
}

// countBy returns COUNT(*) grouped by col for the given ids; absent ids map to 0
func countBy(db *gorm.DB, table, col string, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ItemID string
		N      int64
	}
	err := db.Table(table).
		Select(col+" AS item_id, COUNT(*) AS n").
		Where(col+" IN ?", ids).
		Group(col).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ItemID] = row.N
	}
	return out, nil
}

// viewerSet returns the subset of ids the user has a row for in table
func viewerSet(db *gorm.DB, table, col, userID string, ids []string) (map[string]bool, error) {
	out := map[string]bool{}
	if userID == "" || len(ids) == 0 {
		return out, nil
	}
	var hits []string
	err := db.Table(table).
		Where("user_id = ? AND "+col+" IN ?", userID, ids).
		Pluck(col, &hits).Error
	if err != nil {
		return nil, err
	}
	for _, id := range hits {
		out[id] = true
	}
	return out, nil
}

// viewerVotes returns the user's vote per item for the given ids
func viewerVotes(db *gorm.DB, target VoteTarget, userID string, ids []string) (map[string]models.VoteType, error) {
	out := map[string]models.VoteType{}
	if userID == "" || len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ItemID   string
		VoteType models.VoteType
	}
	col := target.itemColumn()
	err := db.Table(target.voteTable()).
		Select(col+" AS item_id, vote_type").
		Where("user_id = ? AND "+col+" IN ?", userID, ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ItemID] = row.VoteType
	}
	return out, nil
}
