package repository

import (
	"context"

	"github.com/hackup/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository handles all database operations for comments
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, commentID string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, page Page) ([]models.Comment, int64, error)
	Delete(ctx context.Context, commentID string) error
	Stats(ctx context.Context, commentIDs []string, viewerID string) (map[string]models.CommentStats, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment == nil {
		return ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return translate(err)
	}
	return translate(r.db.WithContext(ctx).Where("id = ?", comment.UserID).First(&comment.User).Error)
}

// GetByID loads a comment with its author and parent post
func (r *commentRepository) GetByID(ctx context.Context, commentID string) (*models.Comment, error) {
	var c models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Post").
		Where("id = ?", commentID).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListByPost returns a post's comments newest first with the total count
func (r *commentRepository) ListByPost(ctx context.Context, postID string, page Page) ([]models.Comment, int64, error) {
	scope := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)

	var total int64
	if err := scope.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := []models.Comment{}
	q := scope.Session(&gorm.Session{}).Preload("User").Order("created_at DESC").Order("id ASC")
	if err := page.apply(q).Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// Delete removes a comment with its likes and votes in one transaction
func (r *commentRepository) Delete(ctx context.Context, commentID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", commentID).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", commentID).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", commentID).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err)
}

// Stats computes engagement counts for a batch of comments
func (r *commentRepository) Stats(ctx context.Context, commentIDs []string, viewerID string) (map[string]models.CommentStats, error) {
	db := r.db.WithContext(ctx)
	out := make(map[string]models.CommentStats, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}

	likes, err := countBy(db, "comment_likes", "comment_id", commentIDs)
	if err != nil {
		return nil, err
	}
	votes, err := voteCounts(db, TargetComment, commentIDs)
	if err != nil {
		return nil, err
	}
	myVotes, err := viewerVotes(db, TargetComment, viewerID, commentIDs)
	if err != nil {
		return nil, err
	}
	myLikes, err := viewerSet(db, "comment_likes", "comment_id", viewerID, commentIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range commentIDs {
		s := models.CommentStats{
			Likes:     likes[id],
			UpVotes:   votes[id].up,
			DownVotes: votes[id].down,
			UserLiked: myLikes[id],
		}
		if v, ok := myVotes[id]; ok {
			s.UserVote = v.Ptr()
		}
		out[id] = s
	}
	return out, nil
}
