package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply on a post
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;index" json:"post_id"`
	Post      Post      `gorm:"foreignKey:PostID" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

// CommentStats aggregates engagement on a comment
type CommentStats struct {
	Likes     int64     `json:"likes"`
	UpVotes   int64     `json:"up_votes"`
	DownVotes int64     `json:"down_votes"`
	UserVote  *VoteType `json:"user_vote"`
	UserLiked bool      `json:"user_liked"`
}

// PostRef is the minimal post block embedded in saved comments
type PostRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CommentWithStats is the read model returned by comment listings
type CommentWithStats struct {
	ID        string       `json:"id"`
	PostID    string       `json:"post_id"`
	UserID    string       `json:"user_id"`
	User      UserSummary  `json:"user"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	Stats     CommentStats `json:"stats"`
	Post      *PostRef     `json:"post,omitempty"`
}

// WithStats builds the read model from a comment with its User loaded
func (c Comment) WithStats(stats CommentStats) CommentWithStats {
	return CommentWithStats{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		User:      c.User.Summary(),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Stats:     stats,
	}
}
