package models

import (
	"time"

	"gorm.io/gorm"
)

// VoteType is a directional vote
type VoteType string

const (
	VoteUp   VoteType = "UP"
	VoteDown VoteType = "DOWN"
)

// Valid reports whether v is UP or DOWN
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Value is +1 for UP and -1 for DOWN
func (v VoteType) Value() int64 {
	switch v {
	case VoteUp:
		return 1
	case VoteDown:
		return -1
	}
	return 0
}

// Ptr returns a pointer to a copy of v
func (v VoteType) Ptr() *VoteType {
	return &v
}

// PostVote is one user's vote on one post; (post_id, user_id) is unique
type PostVote struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_votes_post_user" json:"post_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_votes_post_user;index" json:"user_id"`
	VoteType  VoteType  `gorm:"type:varchar(4);not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *PostVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}

// CommentVote is one user's vote on one comment; (comment_id, user_id) is unique
type CommentVote struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CommentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_votes_comment_user" json:"comment_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_votes_comment_user;index" json:"user_id"`
	VoteType  VoteType  `gorm:"type:varchar(4);not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *CommentVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = generateUUID()
	}
	return nil
}
