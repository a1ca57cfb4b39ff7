package repository

import (
	"context"
	"strings"

	"github.com/hackup/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository handles all database operations for posts
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	GetByIDs(ctx context.Context, postIDs []string) ([]models.Post, error)
	Update(ctx context.Context, postID, title, content string) (*models.Post, error)
	Delete(ctx context.Context, postID string) ([]string, error)
	List(ctx context.Context, page Page) ([]models.Post, int64, error)
	ListByUser(ctx context.Context, userID string, page Page) ([]models.Post, int64, error)
	Search(ctx context.Context, query string, limit int) ([]models.Post, error)
	Stats(ctx context.Context, postIDs []string, viewerID string) (map[string]models.PostStats, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a post. A taken title returns ErrDuplicate.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post == nil {
		return ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return translate(err)
	}
	return translate(r.db.WithContext(ctx).Where("id = ?", post.UserID).First(&post.User).Error)
}

// GetByID loads a post with its author
func (r *postRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", postID).First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// GetByIDs loads posts in the order of postIDs. Missing ids are skipped.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []string) ([]models.Post, error) {
	if len(postIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).Preload("User").Where("id IN ?", postIDs).Find(&posts).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	out := make([]models.Post, 0, len(posts))
	for _, id := range postIDs {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *postRepository) Update(ctx context.Context, postID, title, content string) (*models.Post, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{"title": title, "content": content})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, postID)
}

// Delete removes a post and everything hanging off it in one transaction:
// comment likes, comment votes, comments, post likes, post votes, the post.
// It returns the ids of users whose content lost votes (the post author and
// the authors of its comments) so their karma can be refreshed.
func (r *postRepository) Delete(ctx context.Context, postID string) ([]string, error) {
	var affected []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id, user_id").Where("id = ?", postID).First(&post).Error; err != nil {
			return err
		}

		var commentAuthors []string
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).
			Distinct().Pluck("user_id", &commentAuthors).Error; err != nil {
			return err
		}

		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", postID)
		steps := []struct {
			model interface{}
			query string
			arg   interface{}
		}{
			{&models.CommentLike{}, "comment_id IN (?)", commentIDs},
			{&models.CommentVote{}, "comment_id IN (?)", commentIDs},
			{&models.Comment{}, "post_id = ?", postID},
			{&models.PostLike{}, "post_id = ?", postID},
			{&models.PostVote{}, "post_id = ?", postID},
			{&models.Post{}, "id = ?", postID},
		}
		for _, s := range steps {
			if err := tx.Where(s.query, s.arg).Delete(s.model).Error; err != nil {
				return err
			}
		}

		affected = uniqueStrings(append([]string{post.UserID}, commentAuthors...))
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return affected, nil
}

// List returns posts newest first with the total row count
func (r *postRepository) List(ctx context.Context, page Page) ([]models.Post, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.Post{}), page)
}

func (r *postRepository) ListByUser(ctx context.Context, userID string, page Page) ([]models.Post, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID), page)
}

func (r *postRepository) list(ctx context.Context, scope *gorm.DB, page Page) ([]models.Post, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := []models.Post{}
	q := scope.Session(&gorm.Session{}).Preload("User").Order("created_at DESC").Order("id ASC")
	if err := page.apply(q).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Search matches query as a case-insensitive substring of title or content.
// LIKE wildcards in query match literally. Results are newest first.
func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	query = strings.TrimSpace(query)
	if query == "" {
		return posts, nil
	}

	pattern := containsPattern(query)
	q := r.db.WithContext(ctx).Preload("User").
		Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(content) LIKE LOWER(?) ESCAPE '\'`, pattern, pattern).
		Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&posts).Error
	return posts, err
}

// Stats computes engagement counts for a batch of posts with grouped
// queries. Every requested id is present in the result.
func (r *postRepository) Stats(ctx context.Context, postIDs []string, viewerID string) (map[string]models.PostStats, error) {
	db := r.db.WithContext(ctx)
	out := make(map[string]models.PostStats, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	likes, err := countBy(db, "post_likes", "post_id", postIDs)
	if err != nil {
		return nil, err
	}
	comments, err := countBy(db, "comments", "post_id", postIDs)
	if err != nil {
		return nil, err
	}
	votes, err := voteCounts(db, TargetPost, postIDs)
	if err != nil {
		return nil, err
	}
	myVotes, err := viewerVotes(db, TargetPost, viewerID, postIDs)
	if err != nil {
		return nil, err
	}
	myLikes, err := viewerSet(db, "post_likes", "post_id", viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range postIDs {
		s := models.PostStats{
			Likes:     likes[id],
			Comments:  comments[id],
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

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
