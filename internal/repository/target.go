package repository

import (
	"fmt"

	"github.com/hackup/backend/internal/models"
)

// VoteTarget selects which item family a vote or like applies to
type VoteTarget string

const (
	TargetPost    VoteTarget = "post"
	TargetComment VoteTarget = "comment"
)

func (t VoteTarget) Valid() bool {
	return t == TargetPost || t == TargetComment
}

func (t VoteTarget) voteTable() string {
	if t == TargetComment {
		return "comment_votes"
	}
	return "post_votes"
}

func (t VoteTarget) likeTable() string {
	if t == TargetComment {
		return "comment_likes"
	}
	return "post_likes"
}

func (t VoteTarget) voteModel() interface{} {
	if t == TargetComment {
		return &models.CommentVote{}
	}
	return &models.PostVote{}
}

func (t VoteTarget) likeModel() interface{} {
	if t == TargetComment {
		return &models.CommentLike{}
	}
	return &models.PostLike{}
}

func (t VoteTarget) itemColumn() string {
	if t == TargetComment {
		return "comment_id"
	}
	return "post_id"
}

func (t VoteTarget) check() error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown target %q", ErrInvalidInput, string(t))
	}
	return nil
}
