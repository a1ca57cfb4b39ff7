package models

import (
	"time"

	"gorm.io/gorm"
)

// PostLike bookmarks a post for a user; (post_id, user_id) is unique
type PostLike struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_likes_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

// CommentLike bookmarks a comment for a user; (comment_id, user_id) is unique
type CommentLike struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CommentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_likes_comment_user" json:"comment_id"`
	Comment   Comment   `gorm:"foreignKey:CommentID" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_likes_comment_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&Comment{},
		&PostVote{},
		&CommentVote{},
		&PostLike{},
		&CommentLike{},
	}
}
