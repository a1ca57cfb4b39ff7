package models

import (
	"time"

	"gorm.io/gorm"
)

// Length limits for user-authored content
const (
	PostTitleMinLength   = 3
	PostTitleMaxLength   = 50
	PostContentMinLength = 10
	PostContentMaxLength = 500
	CommentMaxLength     = 500
)

// Post is a life-hack tip. Titles are unique across the site.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Title     string    `gorm:"uniqueIndex;size:50;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

// PostStats aggregates engagement on a post. UserVote and UserLiked are
// relative to the viewer and stay empty for anonymous reads.
type PostStats struct {
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	UpVotes   int64     `json:"up_votes"`
	DownVotes int64     `json:"down_votes"`
	UserVote  *VoteType `json:"user_vote"`
	UserLiked bool      `json:"user_liked"`
}

// PostWithStats is the read model returned by post listings
type PostWithStats struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	UserID    string      `json:"user_id"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Stats     PostStats   `json:"stats"`
}

// WithStats builds the read model from a post with its User loaded
func (p Post) WithStats(stats PostStats) PostWithStats {
	return PostWithStats{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		UserID:    p.UserID,
		User:      p.User.Summary(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Stats:     stats,
	}
}
